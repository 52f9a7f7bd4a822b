// Package errors formats compiler diagnostics for the toycc CLI: a
// single CompileError type carrying phase, position, message and an
// optional spelling suggestion, rendered with color at the terminal.
package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Phase identifies which pipeline stage raised an error, so the CLI can
// report "lexical error", "syntax error" or "semantic error" consistently
// with what each stage's own error string already says.
type Phase string

const (
	PhaseLexer  Phase = "lexical"
	PhaseParser Phase = "syntax"
	PhaseSema   Phase = "semantic"
)

// CompileError is a single diagnostic with enough context to render a
// caret under the offending column.
type CompileError struct {
	Phase      Phase
	Message    string
	Line       int
	Column     int
	Suggestion string

	// Source and FileName are optional. FileName prefixes the location
	// Format prints; when Source is set, Format also prints the offending
	// source line with a caret underneath it.
	Source   string
	FileName string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s error at line %d, column %d: %s", e.Phase, e.Line, e.Column, e.Message)
}

// WithSuggestion attaches a spelling suggestion and returns the receiver,
// for fluent construction at the call site.
func (e *CompileError) WithSuggestion(s string) *CompileError {
	e.Suggestion = s
	return e
}

var (
	errorColor      = color.New(color.FgRed, color.Bold)
	locationColor   = color.New(color.FgCyan)
	suggestionColor = color.New(color.FgYellow)
	gutterColor     = color.New(color.FgHiBlack)
)

// Format renders err for terminal display. Colors are applied
// unconditionally; color.NoColor (set by the fatih/color package itself
// from NO_COLOR/terminal detection) downgrades them to plain text.
func Format(err *CompileError) string {
	var b strings.Builder

	loc := fmt.Sprintf("%d:%d", err.Line, err.Column)
	if err.FileName != "" {
		loc = err.FileName + ":" + loc
	}

	b.WriteString(errorColor.Sprintf("%s error", capitalize(string(err.Phase))))
	b.WriteString(" ")
	b.WriteString(locationColor.Sprintf("(%s)", loc))
	b.WriteString(": ")
	b.WriteString(err.Message)
	b.WriteString("\n")

	if err.Source != "" {
		if snippet, caret, ok := sourceSnippet(err.Source, err.Line, err.Column); ok {
			b.WriteString(gutterColor.Sprintf("  %4d | ", err.Line))
			b.WriteString(snippet)
			b.WriteString("\n")
			b.WriteString("       | ")
			b.WriteString(errorColor.Sprint(caret))
			b.WriteString("\n")
		}
	}

	if err.Suggestion != "" {
		b.WriteString(suggestionColor.Sprint("help: "))
		b.WriteString(err.Suggestion)
		b.WriteString("\n")
	}

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sourceSnippet(source string, line, column int) (snippet, caret string, ok bool) {
	lines := strings.Split(source, "\n")
	idx := line - 1
	if idx < 0 || idx >= len(lines) {
		return "", "", false
	}
	snippet = lines[idx]
	col := column - 1
	if col < 0 {
		col = 0
	}
	if col > len(snippet) {
		col = len(snippet)
	}
	caret = strings.Repeat(" ", col) + "^"
	return snippet, caret, true
}
