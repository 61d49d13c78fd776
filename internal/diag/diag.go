// Generation-time diagnostics. Unsupported or ambiguous API shapes are
// reported as values so the generation pass can carry on.
package diag

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type Severity int

const (
	// Notice marks a classification gap that was handled by passing the
	// type through unchanged.
	Notice Severity = iota
	// Warning marks a shape for which best-effort or no code was emitted.
	Warning
	// Error marks a shape that made the whole command unusable.
	Error
)

func (s Severity) String() string {
	switch s {
	case Notice:
		return "NOTICE"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

type Diagnostic struct {
	Severity  Severity
	Command   string
	Parameter string
	Message   string
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	if d.Command != "" {
		sb.WriteString(" (")
		sb.WriteString(d.Command)
		if d.Parameter != "" {
			sb.WriteString(".")
			sb.WriteString(d.Parameter)
		}
		sb.WriteString(")")
	}
	return sb.String()
}

// List collects diagnostics in the order they were reported.
type List []Diagnostic

func (l *List) Add(severity Severity, command, parameter, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Severity:  severity,
		Command:   command,
		Parameter: parameter,
		Message:   fmt.Sprintf(format, args...),
	})
}

// ForCommand returns a copy with the command name filled in where missing.
func (l List) ForCommand(command string) List {
	result := make(List, len(l))
	for i, d := range l {
		if d.Command == "" {
			d.Command = command
		}
		result[i] = d
	}
	return result
}

func (l List) HasErrors() bool {
	return l.Count(Error) > 0
}

func (l List) Count(severity Severity) int {
	return lo.CountBy(l, func(d Diagnostic) bool { return d.Severity == severity })
}
