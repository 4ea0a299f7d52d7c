package errors

import (
	"strings"

	"golang.org/x/text/width"
)

// Caret returns the marker line printed under line so that the first '^'
// sits under the rune at the 1-based column, underlining n runes.
// Indentation is measured in terminal cells: tabs are kept as tabs and
// East Asian wide characters take two cells.
func Caret(line string, column, n int) string {
	if column < 1 {
		column = 1
	}
	if n < 1 {
		n = 1
	}

	var sb strings.Builder
	runes := []rune(line)
	for i := 0; i < column-1 && i < len(runes); i++ {
		r := runes[i]
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", cells(r)))
	}

	marks := 0
	for i := column - 1; i < column-1+n; i++ {
		if i < len(runes) {
			marks += cells(runes[i])
		} else {
			marks++
		}
	}
	sb.WriteString(strings.Repeat("^", marks))
	return sb.String()
}

// cells returns the display width of r.
func cells(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

// Position converts a byte offset in source to a 1-based line and a
// 1-based column counted in runes.
func Position(source string, offset int) (line, column int) {
	if offset > len(source) {
		offset = len(source)
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if source[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	column = len([]rune(source[lineStart:offset])) + 1
	return line, column
}
