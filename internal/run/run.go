// Package run executes external programs, logging what it runs.
package run

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"oss.indeed.com/go/go-verdict/internal/printing"
)

const (
	outPrefix = "  > "
	errPrefix = "  ! "
)

type cmdinfo struct {
	cmd       *exec.Cmd
	log       *printing.LogWriter
	logStdout bool
	logStderr bool
}

// Cmd runs command with args and returns its stdout and stderr. A non-nil
// error is returned when the command cannot be started, exits non-zero, or
// is killed because ctx is done.
//
// By default Cmd writes the following to os.Stdout:
//   - A time-stamped line naming the command and its args before it runs.
//   - The stdout of the command, each line prefixed with "  > ".
//   - The stderr of the command, each line prefixed with "  ! ".
//   - A time-stamped line saying whether the command succeeded.
//
// Use Log to send all of that elsewhere, and SuppressStdout or
// SuppressStderr to leave out the command's own output. The returned
// stdout and stderr never carry the prefixes.
func Cmd(ctx context.Context, command string, args []string, opts ...Option) (string, string, error) {
	sp := cmdinfo{
		cmd:       exec.CommandContext(ctx, command, args...),
		log:       printing.NewLogWriter(os.Stdout),
		logStdout: true,
		logStderr: true,
	}
	for _, opt := range opts {
		opt(&sp)
	}

	var stdout, stderr bytes.Buffer

	stdouts := append(make([]io.Writer, 0, 3), &stdout)
	if sp.cmd.Stdout != nil {
		stdouts = append(stdouts, sp.cmd.Stdout)
	}
	if sp.logStdout {
		stdouts = append(stdouts, printing.NewLinePrefixWriter(sp.log, outPrefix))
	}
	sp.cmd.Stdout = io.MultiWriter(stdouts...)

	stderrs := append(make([]io.Writer, 0, 2), &stderr)
	if sp.logStderr {
		stderrs = append(stderrs, printing.NewLinePrefixWriter(sp.log, errPrefix))
	}
	sp.cmd.Stderr = io.MultiWriter(stderrs...)

	if sp.cmd.Dir != "" {
		sp.log.Logf("Running %q with args %q in %s...", sp.cmd.Path, sp.cmd.Args[1:], sp.cmd.Dir)
	} else {
		sp.log.Logf("Running %q with args %q...", sp.cmd.Path, sp.cmd.Args[1:])
	}
	err := sp.cmd.Run()
	if err != nil {
		sp.log.Logf("Command failed: %v", err)
	} else {
		sp.log.Logf("Command completed successfully")
	}

	return stdout.String(), stderr.String(), err
}

// Args returns the provided variadic args as a slice, so that
//
//	run.Cmd(ctx, "go", run.Args("test", "-json"))
//
// reads a little better than spelling out the []string.
func Args(args ...string) []string {
	return args
}

// Option alters the way Cmd runs the provided command.
type Option func(*cmdinfo)

// Dir runs the command in dir instead of the current directory.
func Dir(dir string) Option {
	return func(s *cmdinfo) {
		s.cmd.Dir = dir
	}
}

// Env causes Cmd to set *additional* environment variables for the command.
func Env(env ...string) Option {
	return func(s *cmdinfo) {
		if len(s.cmd.Env) == 0 {
			s.cmd.Env = append(os.Environ(), env...)
		} else {
			s.cmd.Env = append(s.cmd.Env, env...)
		}
	}
}

// Stdout causes Cmd to tee the stdout of the process to the provided
// io.Writer as it is produced.
func Stdout(out io.Writer) Option {
	return func(s *cmdinfo) {
		s.cmd.Stdout = out
	}
}

// Log changes where Cmd writes log-like information about running the command.
func Log(to io.Writer) Option {
	return func(s *cmdinfo) {
		s.log = printing.NewLogWriter(to)
	}
}

// SuppressStdout prevents Cmd from copying the command stdout to the log.
// It is still returned.
func SuppressStdout() Option {
	return func(s *cmdinfo) {
		s.logStdout = false
	}
}

// SuppressStderr prevents Cmd from copying the command stderr to the log.
// It is still returned.
func SuppressStderr() Option {
	return func(s *cmdinfo) {
		s.logStderr = false
	}
}
