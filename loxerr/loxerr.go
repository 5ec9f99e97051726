// Package loxerr defines the error types which describe failures in a slox program.
//
// All errors are attributed to a range of characters in the source code and render as the position, the message, and
// the offending source line with the range highlighted. For example:
//
//	2:7: error: unterminated string literal
//	print "bar;
//	      ~~~~~
package loxerr

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"slox/token"
)

// Error describes a static (scan, parse, or resolve) error in a slox program.
type Error struct {
	Msg   string
	Start token.Position
	End   token.Position
}

// New creates an [*Error] with the given message and range.
func New(rang token.Range, message string) *Error {
	return Newf(rang, "%s", message)
}

// Newf creates an [*Error].
// The error message is constructed from the given format string and arguments, as in [fmt.Sprintf].
func Newf(rang token.Range, format string, args ...any) *Error {
	return &Error{
		Msg:   fmt.Sprintf(format, args...),
		Start: rang.Start(),
		End:   rang.End(),
	}
}

func (e *Error) Error() string {
	return render(e.Start, e.End, "error", e.Msg)
}

// RuntimeError describes an error raised during the execution of a slox program.
type RuntimeError struct {
	Msg   string
	Start token.Position
	End   token.Position
}

// NewRuntimef creates a [*RuntimeError].
// The error message is constructed from the given format string and arguments, as in [fmt.Sprintf].
func NewRuntimef(rang token.Range, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Msg:   fmt.Sprintf(format, args...),
		Start: rang.Start(),
		End:   rang.End(),
	}
}

func (e *RuntimeError) Error() string {
	return render(e.Start, e.End, "runtime error", e.Msg)
}

// render formats an error by displaying the error message and highlighting the range of characters in the source code
// that the error applies to.
func render(start, end token.Position, kind, msg string) string {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)

	var b strings.Builder
	bold.Fprint(&b, start, ": ", red.Sprintf("%s: ", kind), msg)

	if start.File == nil {
		return b.String()
	}
	line := start.File.Line(start.Line)
	if !utf8.Valid(line) {
		// If the line is not valid UTF-8 then we can't sensibly display it, so just return the message on its own.
		return b.String()
	}

	fmt.Fprint(&b, "\n", string(line))

	highlightEnd := len(line)
	if end.Line == start.Line {
		highlightEnd = end.Column
	}
	if highlightEnd <= start.Column {
		return b.String()
	}
	fmt.Fprint(&b, "\n", strings.Repeat(" ", runewidth.StringWidth(string(line[:start.Column]))))
	red.Fprint(&b, strings.Repeat("~", runewidth.StringWidth(string(line[start.Column:highlightEnd]))))

	return b.String()
}

// Errors is a list of [*Error]s.
type Errors []*Error

// Add adds an [*Error] to the list of errors.
// The parameters are the same as for [New].
func (e *Errors) Add(rang token.Range, message string) {
	*e = append(*e, New(rang, message))
}

// Addf adds an [*Error] to the list of errors.
// The parameters are the same as for [Newf].
func (e *Errors) Addf(rang token.Range, format string, args ...any) {
	*e = append(*e, Newf(rang, format, args...))
}

// Sort sorts the errors by their start position.
func (e Errors) Sort() {
	slices.SortStableFunc(e, func(e1, e2 *Error) int {
		return e1.Start.Compare(e2.Start)
	})
}

// Error formats the errors by concatenating their messages after sorting them by their start position.
func (e Errors) Error() string {
	if len(e) == 0 {
		panic("Error called on empty error list")
	}
	e.Sort()
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns the error list unchanged if it's non-empty, otherwise nil.
// This should be used to return an [Errors] from a function as an [error] so that it becomes an untyped nil if there
// are no errors.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
