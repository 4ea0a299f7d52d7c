// Package errors provides structured error types for the ECL front end.
//
// This package defines EclError, a single error type carrying the error
// class, kind, catalog code and source position of every lexer and parser
// failure, so callers can render caret diagnostics or handle kinds
// programmatically.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors by the stage that raised them.
type ErrorClass string

const (
	ClassLex   ErrorClass = "lex"   // Tokenizer errors
	ClassParse ErrorClass = "parse" // Grammar errors
	ClassLimit ErrorClass = "limit" // Input size or nesting limits
	ClassIO    ErrorClass = "io"    // File operations (CLI only)
)

// Kind identifies what went wrong, independent of the message wording.
type Kind string

const (
	UnexpectedCharacter  Kind = "UnexpectedCharacter"
	UnterminatedLiteral  Kind = "UnterminatedLiteral"
	UnexpectedToken      Kind = "UnexpectedToken"
	UnexpectedEndOfInput Kind = "UnexpectedEndOfInput"
	InvalidIdentifier    Kind = "InvalidIdentifier"
	ValueOutOfRange      Kind = "ValueOutOfRange"
	LimitExceeded        Kind = "LimitExceeded"
	FileError            Kind = "FileError"
)

// Sentinels for errors.Is matching on kind.
var (
	ErrUnexpectedCharacter  = &EclError{Kind: UnexpectedCharacter}
	ErrUnterminatedLiteral  = &EclError{Kind: UnterminatedLiteral}
	ErrUnexpectedToken      = &EclError{Kind: UnexpectedToken}
	ErrUnexpectedEndOfInput = &EclError{Kind: UnexpectedEndOfInput}
	ErrInvalidIdentifier    = &EclError{Kind: InvalidIdentifier}
	ErrValueOutOfRange      = &EclError{Kind: ValueOutOfRange}
	ErrLimitExceeded        = &EclError{Kind: LimitExceeded}
)

// EclError represents any error raised while turning ECL text into a tree.
type EclError struct {
	Class    ErrorClass     `json:"class"`              // Error category
	Kind     Kind           `json:"kind"`               // What went wrong
	Code     string         `json:"code"`               // Catalog code (e.g., "PARSE-0001")
	Message  string         `json:"message"`            // Human-readable message
	Expected string         `json:"expected,omitempty"` // What the parser wanted
	Found    string         `json:"found,omitempty"`    // What it got instead
	Hints    []string       `json:"hints,omitempty"`    // Suggestions for fixing
	Offset   int            `json:"offset"`             // 0-based byte offset into the source
	Length   int            `json:"length"`             // Byte length of the offending text
	Line     int            `json:"line"`               // 1-based line (0 if unknown)
	Column   int            `json:"column"`             // 1-based column in runes (0 if unknown)
	File     string         `json:"file,omitempty"`     // File path (if known)
	Data     map[string]any `json:"data,omitempty"`     // Template variables
}

// Error implements the error interface.
func (e *EclError) Error() string {
	return e.String()
}

// Is reports whether target is an EclError of the same kind.
// Only the kind is compared, so the package sentinels match any position.
func (e *EclError) Is(target error) bool {
	t, ok := target.(*EclError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// String returns a formatted string representation of the error.
func (e *EclError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line report with the offending source line
// and a caret under the error position.
func (e *EclError) PrettyString(source string) string {
	var sb strings.Builder

	switch e.Class {
	case ClassLex:
		sb.WriteString("Syntax error")
	case ClassLimit:
		sb.WriteString("Limit exceeded")
	case ClassIO:
		sb.WriteString("I/O error")
	default:
		sb.WriteString("Parse error")
	}

	if e.File != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.File)
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(" at line %d, column %d", e.Line, e.Column))
	}
	sb.WriteString(":\n  ")
	sb.WriteString(e.Message)

	if line, ok := sourceLine(source, e.Line); ok {
		sb.WriteString("\n\n  ")
		sb.WriteString(line)
		sb.WriteString("\n  ")
		sb.WriteString(Caret(line, e.Column, e.caretWidth(line)))
	}

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// caretWidth returns the number of runes the caret should underline.
func (e *EclError) caretWidth(line string) int {
	if e.Length <= 1 || e.Column <= 0 {
		return 1
	}
	runes := []rune(line)
	start := e.Column - 1
	if start >= len(runes) {
		return 1
	}
	n := len([]rune(e.sourceSlice(line)))
	if n < 1 {
		return 1
	}
	if start+n > len(runes) {
		n = len(runes) - start
	}
	return n
}

// sourceSlice returns the error's text within line, clipped to the line.
func (e *EclError) sourceSlice(line string) string {
	runes := []rune(line)
	start := e.Column - 1
	if start < 0 || start >= len(runes) {
		return ""
	}
	tail := string(runes[start:])
	if e.Length < len(tail) {
		return tail[:e.Length]
	}
	return tail
}

// sourceLine returns the 1-based line n of source.
func sourceLine(source string, n int) (string, bool) {
	if n <= 0 || source == "" {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

// ToJSON returns the error as JSON bytes.
func (e *EclError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ToJSONIndent returns the error as indented JSON bytes.
func (e *EclError) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// WithFile returns a copy of the error with the file path set.
func (e *EclError) WithFile(file string) *EclError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *EclError) WithPosition(line, column int) *EclError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsLexError returns true if the tokenizer raised this error.
func (e *EclError) IsLexError() bool {
	return e.Class == ClassLex
}

// IsParseError returns true if the parser raised this error.
func (e *EclError) IsParseError() bool {
	return e.Class == ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Kind     Kind       // Error kind
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Lexer errors (LEX-0xxx)
	// ========================================
	"LEX-0001": {
		Class:    ClassLex,
		Kind:     UnexpectedCharacter,
		Template: "unexpected character '{{.Char}}'",
	},
	"LEX-0002": {
		Class:    ClassLex,
		Kind:     UnterminatedLiteral,
		Template: "unterminated string",
		Hints:    []string{"close the string with {{.Quote}}"},
	},
	"LEX-0003": {
		Class:    ClassLex,
		Kind:     UnterminatedLiteral,
		Template: "unterminated block comment",
		Hints:    []string{"close the comment with */"},
	},
	"LEX-0004": {
		Class:    ClassLex,
		Kind:     UnterminatedLiteral,
		Template: "unterminated term",
		Hints:    []string{"close the term with |"},
	},
	"LEX-0005": {
		Class:    ClassLex,
		Kind:     UnexpectedCharacter,
		Template: "comment '{{.Marker}}' inside a term",
		Hints:    []string{"terms cannot hold comments; move the comment outside the |...| delimiters"},
	},

	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Kind:     UnexpectedToken,
		Template: "expected {{.Expected}}, got '{{.Found}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Kind:     UnexpectedEndOfInput,
		Template: "unexpected end of input, expected {{.Expected}}",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Kind:     UnexpectedToken,
		Template: "unexpected '{{.Found}}' after complete expression",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Kind:     UnexpectedToken,
		Template: "MINUS cannot be chained",
		Hints:    []string{"({{.Left}}) MINUS {{.Right}}"},
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Kind:     UnexpectedToken,
		Template: "',' is only a synonym for AND inside a refinement",
		Hints:    []string{"use AND to combine expression constraints"},
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Kind:     UnexpectedToken,
		Template: "expected a term between '|' delimiters",
	},

	// ========================================
	// Identifier errors (ID-0xxx)
	// ========================================
	"ID-0001": {
		Class:    ClassParse,
		Kind:     InvalidIdentifier,
		Template: "invalid SNOMED CT identifier '{{.Found}}': must have at least 6 digits",
	},
	"ID-0002": {
		Class:    ClassParse,
		Kind:     InvalidIdentifier,
		Template: "invalid SNOMED CT identifier '{{.Found}}': must not start with 0",
	},

	// ========================================
	// Value errors (VALUE-0xxx)
	// ========================================
	"VALUE-0001": {
		Class:    ClassParse,
		Kind:     ValueOutOfRange,
		Template: "{{.What}} '{{.Found}}' is out of range",
	},
	"VALUE-0002": {
		Class:    ClassParse,
		Kind:     UnexpectedToken,
		Template: "invalid number '{{.Found}}'",
	},

	// ========================================
	// Limit errors (LIMIT-0xxx)
	// ========================================
	"LIMIT-0001": {
		Class:    ClassLimit,
		Kind:     LimitExceeded,
		Template: "input is {{.Size}} bytes, limit is {{.Max}}",
	},
	"LIMIT-0002": {
		Class:    ClassLimit,
		Kind:     LimitExceeded,
		Template: "nesting deeper than {{.Max}} levels",
	},

	// ========================================
	// I/O errors (IO-0xxx)
	// ========================================
	"IO-0001": {
		Class:    ClassIO,
		Kind:     FileError,
		Template: "failed to {{.Operation}} '{{.Path}}': {{.GoError}}",
	},
}

// New creates an EclError from the catalog.
// If the code is not found, returns a generic parse error.
func New(code string, data map[string]any) *EclError {
	def, ok := ErrorCatalog[code]
	if !ok {
		return &EclError{
			Class:   ClassParse,
			Kind:    UnexpectedToken,
			Code:    code,
			Message: fmt.Sprintf("unknown error code: %s", code),
			Data:    data,
		}
	}

	err := &EclError{
		Class:   def.Class,
		Kind:    def.Kind,
		Code:    code,
		Message: renderTemplate(def.Template, data),
		Data:    data,
	}
	if v, ok := data["Expected"].(string); ok {
		err.Expected = v
	}
	if v, ok := data["Found"].(string); ok {
		err.Found = v
	}

	if len(def.Hints) > 0 {
		err.Hints = make([]string, len(def.Hints))
		for i, hint := range def.Hints {
			err.Hints[i] = renderTemplate(hint, data)
		}
	}

	return err
}

// NewAt creates a catalog error positioned at a source span.
func NewAt(code string, offset, length, line, column int, data map[string]any) *EclError {
	err := New(code, data)
	err.Offset = offset
	err.Length = length
	err.Line = line
	err.Column = column
	return err
}

// renderTemplate executes a template string with the given data.
// Falls back to the raw template if execution fails.
func renderTemplate(tmpl string, data map[string]any) string {
	if data == nil {
		return tmpl
	}

	t, err := template.New("").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return tmpl
	}

	return strings.ReplaceAll(buf.String(), "<no value>", "")
}
