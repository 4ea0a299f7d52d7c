// Package format renders ECL expression trees as text.
// All layout thresholds are configurable via these constants.
package format

// Line width - the target maximum line length for Pretty
const MaxLineWidth = 80

// Indentation - two spaces per level, the usual style for ECL in
// terminology documentation
const (
	TabWidth     = 4    // Display width of a tab character in a custom indent
	IndentString = "  " // one level
)

// MinLineWidth is the narrowest width Pretty accepts; smaller values are
// raised to it.
const MinLineWidth = 20
