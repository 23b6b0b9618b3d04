// Package diag formats CLI diagnostics: caret-style parse error
// reports and single-line engine failures.
package diag

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

// Level represents the severity of a diagnostic
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
)

// Diagnostic is a structured message with an optional source location.
type Diagnostic struct {
	Level   Level
	Message string
	Line    int
	Column  int
}

// Reporter renders diagnostics against one source text.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter creates a reporter for a source text.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{
		filename: filename,
		lines:    strings.Split(source, "\n"),
	}
}

// Format renders a diagnostic with the offending line and a caret.
func (r *Reporter) Format(d Diagnostic) string {
	var b strings.Builder

	levelColor := r.levelColor(d.Level)
	dim := color.New(color.Faint).SprintFunc()

	b.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.Level)), d.Message))
	if d.Line <= 0 || d.Line > len(r.lines) {
		return b.String()
	}
	b.WriteString(fmt.Sprintf(" %s %s:%d:%d\n", dim("-->"), r.filename, d.Line, d.Column))
	line := r.lines[d.Line-1]
	b.WriteString(line)
	b.WriteString("\n")
	if d.Column > 0 && d.Column <= len(line)+1 {
		b.WriteString(strings.Repeat(" ", d.Column-1))
		b.WriteString(levelColor("^"))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Reporter) levelColor(l Level) func(...any) string {
	switch l {
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgCyan).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

// FromParseError converts a participle error into a positioned
// diagnostic.
func FromParseError(err error) Diagnostic {
	if pe, ok := err.(participle.Error); ok {
		pos := pe.Position()
		return Diagnostic{Level: Error, Message: pe.Message(), Line: pos.Line, Column: pos.Column}
	}
	return Diagnostic{Level: Error, Message: err.Error()}
}
