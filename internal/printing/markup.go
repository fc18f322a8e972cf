package printing

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	// NoLine suppresses the newline normally written after a line.
	NoLine = "^no_line^"
	// NoPrefix suppresses the configured line prefix.
	NoPrefix = "^no_prefix^"
)

var tagRegexp = regexp.MustCompile(`\^([a-z_]+)\^`)

// levelTags maps the level label tags to their level.
var levelTags = map[string]Level{
	"warn": LevelWarn,
	"info": LevelInfo,
	"dbug": LevelDebug,
}

// Level is an output level that can be switched on or off.
type Level int

const (
	LevelWarn Level = iota
	LevelInfo
	LevelDebug
)

// OutputOption configures an Output.
type OutputOption func(o *Output)

// Levels enables exactly the levels named in list, for example
// "warn,info,debug". "dbug" is accepted for "debug".
func Levels(list string) OutputOption {
	return func(o *Output) {
		o.levels = map[Level]bool{
			LevelWarn:  strings.Contains(list, "warn"),
			LevelInfo:  strings.Contains(list, "info"),
			LevelDebug: strings.Contains(list, "debug") || strings.Contains(list, "dbug"),
		}
	}
}

// Color turns ANSI colours on or off. Colours are off by default.
func Color(enabled bool) OutputOption {
	return func(o *Output) {
		o.color = enabled
	}
}

// BoldColors renders colour tags in their bright variant, which reads better
// on xterm.
func BoldColors(enabled bool) OutputOption {
	return func(o *Output) {
		o.boldColors = enabled
	}
}

// Decorated controls whether Print lines are written at all. Privileged
// lines are always written; undecorated they lose their markup and prefix.
func Decorated(enabled bool) OutputOption {
	return func(o *Output) {
		o.decorated = enabled
	}
}

// LinePrefix is written before every line that does not carry NoPrefix.
func LinePrefix(prefix string) OutputOption {
	return func(o *Output) {
		o.prefix = prefix
	}
}

// Output renders markup lines to an io.Writer. It is safe for concurrent use.
type Output struct {
	mu  sync.Mutex
	to  io.Writer
	tag string

	prefix     string
	levels     map[Level]bool
	color      bool
	boldColors bool
	decorated  bool

	styled map[string]string
	plain  map[string]string
}

// NewOutput returns an Output writing to to. By default all levels are
// enabled, output is decorated and colours are off. When to is a
// PrivilegedWriter every line is routed to its terminal side.
func NewOutput(to io.Writer, opts ...OutputOption) *Output {
	o := &Output{
		to:        to,
		levels:    map[Level]bool{LevelWarn: true, LevelInfo: true, LevelDebug: true},
		decorated: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if _, ok := to.(*PrivilegedWriter); ok {
		o.tag = PrivilegedPrefix
	}
	o.plain = termCodes(false, false)
	o.styled = termCodes(o.color, o.boldColors)
	return o
}

// IsEnabled reports whether level is enabled.
func (o *Output) IsEnabled(level Level) bool {
	return o.levels[level]
}

// IsWarn reports whether warn level output is enabled.
func (o *Output) IsWarn() bool { return o.IsEnabled(LevelWarn) }

// IsInfo reports whether info level output is enabled.
func (o *Output) IsInfo() bool { return o.IsEnabled(LevelInfo) }

// IsDebug reports whether debug level output is enabled.
func (o *Output) IsDebug() bool { return o.IsEnabled(LevelDebug) }

// IsDecorated reports whether Print lines are written.
func (o *Output) IsDecorated() bool { return o.decorated }

// Print writes a formatted line. Nothing is written when output is not
// decorated or when the line has the tag of a disabled level.
func (o *Output) Print(format string, args ...interface{}) {
	o.print(fmt.Sprintf(format, args...), true)
}

// PrintNoLine is Print without the trailing newline.
func (o *Output) PrintNoLine(format string, args ...interface{}) {
	o.print(fmt.Sprintf(format, args...), false)
}

// Privileged writes a formatted line regardless of levels and decoration.
// The NoLine and NoPrefix tokens are honoured.
func (o *Output) Privileged(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	noLine := strings.Contains(msg, NoLine)
	noPrefix := strings.Contains(msg, NoPrefix)
	msg = strings.Replace(msg, NoLine, "", 1)
	msg = strings.Replace(msg, NoPrefix, "", 1)

	var line string
	if o.decorated {
		line, _ = resolve(msg, o.styled, nil)
		if !noPrefix {
			line = o.prefix + line
		}
	} else {
		line, _ = resolve(msg, o.plain, nil)
	}
	if !noLine {
		line += "\n"
	}
	o.write(line)
}

// Logf writes a debug line.
func (o *Output) Logf(format string, args ...interface{}) {
	o.Print("^dbug^ "+format, args...)
}

func (o *Output) print(msg string, newline bool) {
	if !o.decorated {
		return
	}
	line, ok := resolve(msg, o.styled, o.levels)
	if !ok {
		return
	}
	line = o.prefix + line
	if newline {
		line += "\n"
	}
	o.write(line)
}

// write emits s in a single Write so a line is never split between writers.
func (o *Output) write(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = io.WriteString(o.to, o.tag+s)
}

// resolve replaces every known tag in msg with its code in a single pass.
// It returns false if msg has the tag of a level not enabled in levels. A
// nil levels map enables every level.
func resolve(msg string, codes map[string]string, levels map[Level]bool) (string, bool) {
	if levels != nil {
		for _, m := range tagRegexp.FindAllStringSubmatch(msg, -1) {
			if level, ok := levelTags[m[1]]; ok && !levels[level] {
				return "", false
			}
		}
	}
	return tagRegexp.ReplaceAllStringFunc(msg, func(tag string) string {
		if code, ok := codes[tag[1:len(tag)-1]]; ok {
			return code
		}
		return tag
	}), true
}

// Strip removes all known markup from msg.
func Strip(msg string) string {
	s, _ := resolve(strings.NewReplacer(NoLine, "", NoPrefix, "").Replace(msg), termCodes(false, false), nil)
	return s
}

func termCodes(color, boldColors bool) map[string]string {
	label := func(name string, c text.Color) string {
		if !color {
			return "[" + name + "]"
		}
		return "[" + text.Colors{text.Bold, c}.EscapeSeq() + name + text.Reset.EscapeSeq() + "]"
	}
	style := func(c text.Color) string {
		if !color {
			return ""
		}
		return c.EscapeSeq()
	}
	weight := text.Reset
	if boldColors {
		weight = text.Bold
	}
	fg := func(c text.Color) string {
		if !color {
			return ""
		}
		return text.Colors{weight, c}.EscapeSeq()
	}
	return map[string]string{
		"error":   label("err!", text.FgRed),
		"warn":    label("warn", text.FgYellow),
		"info":    label("info", text.FgBlue),
		"dbug":    label("dbug", text.FgBlack),
		"r":       style(text.Reset),
		"b":       style(text.Bold),
		"n":       style(text.Faint),
		"i":       style(text.ReverseVideo),
		"black":   fg(text.FgBlack),
		"red":     fg(text.FgRed),
		"green":   fg(text.FgGreen),
		"yellow":  fg(text.FgYellow),
		"blue":    fg(text.FgBlue),
		"magenta": fg(text.FgMagenta),
		"cyan":    fg(text.FgCyan),
		"white":   fg(text.FgWhite),
	}
}
