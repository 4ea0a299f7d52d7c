package format

import (
	"strings"
	"unicode/utf8"
)

// Printer manages formatting state and output
type Printer struct {
	output       strings.Builder
	indent       int    // Current indentation level
	indentString string // Text written once per level
	width        int    // Target line width
	linePos      int    // Current display column in the current line
}

// NewPrinter creates a new Printer instance
func NewPrinter(opts Options) *Printer {
	opts = opts.withDefaults()
	return &Printer{indentString: opts.Indent, width: opts.Width}
}

// String returns the formatted output
func (p *Printer) String() string {
	return p.output.String()
}

// Reset clears the printer state for reuse
func (p *Printer) Reset() {
	p.output.Reset()
	p.indent = 0
	p.linePos = 0
}

// write appends a string to the output and updates line position
func (p *Printer) write(s string) {
	p.output.WriteString(s)
	// Update line position - handle embedded newlines
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		p.linePos = displayWidth(s[idx+1:])
	} else {
		p.linePos += displayWidth(s)
	}
}

// newline writes a newline character and resets line position
func (p *Printer) newline() {
	p.output.WriteString("\n")
	p.linePos = 0
}

// writeIndent writes the current indentation
func (p *Printer) writeIndent() {
	p.write(strings.Repeat(p.indentString, p.indent))
}

// breakLine starts a new line at the current indentation
func (p *Printer) breakLine() {
	p.newline()
	p.writeIndent()
}

// indentInc increases the indentation level
func (p *Printer) indentInc() {
	p.indent++
}

// indentDec decreases the indentation level
func (p *Printer) indentDec() {
	if p.indent > 0 {
		p.indent--
	}
}

// fitsOnLine checks if a string would fit on the current line
func (p *Printer) fitsOnLine(s string) bool {
	// Don't count embedded newlines - if string has newlines, it doesn't fit
	if strings.Contains(s, "\n") {
		return false
	}
	return p.linePos+displayWidth(s) <= p.width
}

// displayWidth counts runes, with tabs as TabWidth columns.
func displayWidth(s string) int {
	return utf8.RuneCountInString(s) + strings.Count(s, "\t")*(TabWidth-1)
}
