package gotest

import (
	"regexp"
	"strconv"
	"strings"

	"oss.indeed.com/go/go-verdict/internal/testrun"
)

var (
	// fileLineRegexp matches the first line of a t.Error/t.Log block
	// ("    cart_test.go:12: message") and compiler errors
	// ("./cart_test.go:12:4: message").
	fileLineRegexp = regexp.MustCompile(`^(\s*)(\S+\.go):(\d+)(?::\d+)?: ?(.*)$`)
	// stackFileRegexp matches the file line of a goroutine stack frame.
	stackFileRegexp = regexp.MustCompile(`^\t(\S+\.go):(\d+)(?: \+0x[0-9a-f]+)?$`)
)

// noiseLines prefix lines that never describe why something failed.
var noiseLines = []string{"=== ", "--- ", "FAIL", "PASS", "ok ", "exit status ", "# "}

// parseFailure extracts a failure from the output of a failed test or
// package. The message is built from the t.Error style blocks in output,
// falling back to a panic message and then to the first line that is not
// go test chatter. Frames come from those blocks, attributed to the failing
// description's package, and from goroutine stack traces.
func parseFailure(d testrun.Description, output string) testrun.Failure {
	lines := strings.Split(output, "\n")
	var (
		messages []string
		frames   []testrun.Frame
		panicMsg string
	)
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := fileLineRegexp.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[3])
			frames = append(frames, testrun.Frame{
				ClassName: d.ClassName,
				Function:  d.MethodName,
				File:      m[2],
				Line:      n,
			})
			block := []string{m[4]}
			for i+1 < len(lines) && isContinuation(lines[i+1], len(m[1])) {
				i++
				block = append(block, strings.TrimSpace(lines[i]))
			}
			if msg := blockMessage(block); msg != "" {
				messages = append(messages, msg)
			}
			continue
		}

		if strings.HasPrefix(line, "panic: ") && panicMsg == "" {
			panicMsg = strings.TrimSuffix(line, " [recovered]")
			continue
		}

		if m := stackFileRegexp.FindStringSubmatch(line); m != nil && i > 0 {
			if pkg, fn, ok := splitStackFunc(lines[i-1]); ok {
				n, _ := strconv.Atoi(m[2])
				frames = append(frames, testrun.Frame{
					ClassName: pkg,
					Function:  fn,
					File:      m[1],
					Line:      n,
				})
			}
		}
	}

	msg := strings.Join(messages, "\n")
	if msg == "" {
		msg = panicMsg
	}
	if msg == "" {
		msg = firstMeaningfulLine(lines)
	}
	return testrun.Failure{
		Description: d,
		Message:     msg,
		Frames:      frames,
		Trace:       output,
	}
}

// isContinuation reports whether line continues a block whose first line
// was indented by indent characters.
func isContinuation(line string, indent int) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" || len(line)-len(trimmed) <= indent {
		return false
	}
	return !fileLineRegexp.MatchString(line)
}

// blockMessage joins the lines of a block. testify blocks are reduced to
// their "Error:" and "Messages:" sections.
func blockMessage(block []string) string {
	var kept []string
	in := false
	for _, line := range block {
		switch {
		case strings.HasPrefix(line, "Error Trace:"), strings.HasPrefix(line, "Test:"):
			in = false
		case strings.HasPrefix(line, "Error:"):
			in = true
			line = strings.TrimSpace(strings.TrimPrefix(line, "Error:"))
		case strings.HasPrefix(line, "Messages:"):
			in = true
			line = strings.TrimSpace(strings.TrimPrefix(line, "Messages:"))
		}
		if in && line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		for _, line := range block {
			if line != "" {
				kept = append(kept, line)
			}
		}
	}
	return strings.Join(kept, "\n")
}

// splitStackFunc splits the function line of a stack frame, such as
// "example.com/shop/cart.(*Cart).Add(0xc000012345)", into the declaring
// package and the function. External test packages are reported as the
// package they test.
func splitStackFunc(line string) (pkg, fn string, ok bool) {
	line = strings.TrimPrefix(line, "created by ")
	if i := strings.Index(line, " in goroutine "); i >= 0 {
		line = line[:i]
	}
	if strings.HasSuffix(line, ")") {
		if i := strings.LastIndex(line, "("); i > 0 {
			line = line[:i]
		}
	}
	if line == "" || strings.ContainsAny(line, " \t") {
		return "", "", false
	}
	slash := strings.LastIndex(line, "/")
	dot := strings.Index(line[slash+1:], ".")
	if dot < 0 {
		return "", "", false
	}
	dot += slash + 1
	return strings.TrimSuffix(line[:dot], "_test"), line[dot+1:], true
}

func firstMeaningfulLine(lines []string) string {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || isNoise(line) {
			continue
		}
		return line
	}
	return ""
}

func isNoise(line string) bool {
	for _, prefix := range noiseLines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
