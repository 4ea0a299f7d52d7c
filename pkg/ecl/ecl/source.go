package ecl

import (
	"strings"

	eclerrors "github.com/sambeau/ecl/pkg/ecl/errors"
)

// Entry is one expression taken from a multi-expression source file.
type Entry struct {
	Text   string // expression text, without its trailing newline
	Line   int    // 1-based line of the first character in the file
	Offset int    // byte offset of the first character in the file
}

// Split breaks a file into expressions. Expressions are separated by blank
// lines; lines whose first non-space character is '#' are notes and also
// end the current expression.
func Split(text string) []Entry {
	var entries []Entry
	var cur *Entry

	flush := func(end int) {
		if cur != nil {
			cur.Text = strings.TrimRight(text[cur.Offset:end], "\r\n")
			entries = append(entries, *cur)
			cur = nil
		}
	}

	offset, line := 0, 1
	for offset < len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		next := len(text)
		if end >= 0 {
			next = offset + end + 1
		}
		trimmed := strings.TrimSpace(text[offset:next])

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			flush(offset)
		case cur == nil:
			cur = &Entry{Line: line, Offset: offset}
		}

		offset = next
		line++
	}
	flush(len(text))
	return entries
}

// Rebase moves an error raised for e.Text to its position in the file.
func (e Entry) Rebase(err *eclerrors.EclError) *eclerrors.EclError {
	if err == nil {
		return nil
	}
	moved := err.WithPosition(err.Line+e.Line-1, err.Column)
	moved.Offset += e.Offset
	return moved
}
