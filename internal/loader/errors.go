package loader

import (
	"fmt"
	"strings"
)

// ParseError reports an uploaded file that could not be turned into rows.
// Line is the 1-based line in the file (the header is line 1) or 0 when the
// failure is not tied to a row.
type ParseError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parsing %s", e.File)
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingInputError lists the input slots that have not been supplied yet.
type MissingInputError struct {
	Missing []Slot
}

func (e *MissingInputError) Error() string {
	names := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		names[i] = string(s)
	}
	return "missing input: " + strings.Join(names, ", ")
}
