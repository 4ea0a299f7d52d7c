package lexer

import "fmt"

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Hidden tokens
	WS         // ' ', '\t', '\n', '\r'
	SL_COMMENT // // to end of line
	ML_COMMENT // /* ... */

	// Hierarchy operators
	LT     // <
	DBL_LT // <<
	LT_EM  // <!
	GT     // >
	DBL_GT // >>
	GT_EM  // >!
	LTE    // <=
	GTE    // >=

	// Comparison operators
	EQUAL     // =
	NOT_EQUAL // !=

	// Punctuation
	COLON        // :
	DOT          // .
	TO           // ..
	CARET        // ^
	WILDCARD     // *
	PIPE         // |
	CURLY_OPEN   // {
	CURLY_CLOSE  // }
	ROUND_OPEN   // (
	ROUND_CLOSE  // )
	SQUARE_OPEN  // [
	SQUARE_CLOSE // ]
	COMMA        // ,
	PLUS         // +
	DASH         // -
	NOT          // !
	HASH         // #

	// Keywords
	AND      // AND
	OR       // OR
	MINUS    // MINUS
	REVERSED // R

	// Single characters
	ZERO            // 0
	DIGIT_NONZERO   // 1-9
	LETTER          // a-z, A-Z
	OTHER_CHARACTER // anything else printable

	// Literals
	STRING // "text" or 'text'
	TERM   // text between | delimiters
)

// Channel separates tokens the parser sees from whitespace and comments.
type Channel int

const (
	Default Channel = iota
	Hidden
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string // raw lexeme as written
	Offset  int    // byte offset of the first character
	Line    int    // 1-based
	Column  int    // 1-based, in runes
	Channel Channel
}

// Len returns the byte length of the lexeme.
func (t Token) Len() int {
	return len(t.Literal)
}

// End returns the byte offset just past the lexeme.
func (t Token) End() int {
	return t.Offset + len(t.Literal)
}

// Adjacent reports whether next starts exactly where t ends, with no
// whitespace or comment in between.
func (t Token) Adjacent(next Token) bool {
	return t.End() == next.Offset
}

// IsDigit reports whether the token is a single decimal digit.
func (t Token) IsDigit() bool {
	return t.Type == ZERO || t.Type == DIGIT_NONZERO
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Offset: %d, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Offset, t.Line, t.Column)
}

var tokenNames = [...]string{
	ILLEGAL:         "ILLEGAL",
	EOF:             "EOF",
	WS:              "WS",
	SL_COMMENT:      "SL_COMMENT",
	ML_COMMENT:      "ML_COMMENT",
	LT:              "LT",
	DBL_LT:          "DBL_LT",
	LT_EM:           "LT_EM",
	GT:              "GT",
	DBL_GT:          "DBL_GT",
	GT_EM:           "GT_EM",
	LTE:             "LTE",
	GTE:             "GTE",
	EQUAL:           "EQUAL",
	NOT_EQUAL:       "NOT_EQUAL",
	COLON:           "COLON",
	DOT:             "DOT",
	TO:              "TO",
	CARET:           "CARET",
	WILDCARD:        "WILDCARD",
	PIPE:            "PIPE",
	CURLY_OPEN:      "CURLY_OPEN",
	CURLY_CLOSE:     "CURLY_CLOSE",
	ROUND_OPEN:      "ROUND_OPEN",
	ROUND_CLOSE:     "ROUND_CLOSE",
	SQUARE_OPEN:     "SQUARE_OPEN",
	SQUARE_CLOSE:    "SQUARE_CLOSE",
	COMMA:           "COMMA",
	PLUS:            "PLUS",
	DASH:            "DASH",
	NOT:             "NOT",
	HASH:            "HASH",
	AND:             "AND",
	OR:              "OR",
	MINUS:           "MINUS",
	REVERSED:        "REVERSED",
	ZERO:            "ZERO",
	DIGIT_NONZERO:   "DIGIT_NONZERO",
	LETTER:          "LETTER",
	OTHER_CHARACTER: "OTHER_CHARACTER",
	STRING:          "STRING",
	TERM:            "TERM",
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if tt >= 0 && int(tt) < len(tokenNames) && tokenNames[tt] != "" {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Describe returns how the token type reads in an error message.
func (tt TokenType) Describe() string {
	switch tt {
	case EOF:
		return "end of input"
	case ZERO, DIGIT_NONZERO:
		return "digit"
	case LETTER:
		return "letter"
	case STRING:
		return "string"
	case TERM:
		return "term"
	case OTHER_CHARACTER:
		return "character"
	}
	if lit, ok := literals[tt]; ok {
		return "'" + lit + "'"
	}
	return tt.String()
}

// literals maps fixed-spelling token types to their text.
var literals = map[TokenType]string{
	LT:           "<",
	DBL_LT:       "<<",
	LT_EM:        "<!",
	GT:           ">",
	DBL_GT:       ">>",
	GT_EM:        ">!",
	LTE:          "<=",
	GTE:          ">=",
	EQUAL:        "=",
	NOT_EQUAL:    "!=",
	COLON:        ":",
	DOT:          ".",
	TO:           "..",
	CARET:        "^",
	WILDCARD:     "*",
	PIPE:         "|",
	CURLY_OPEN:   "{",
	CURLY_CLOSE:  "}",
	ROUND_OPEN:   "(",
	ROUND_CLOSE:  ")",
	SQUARE_OPEN:  "[",
	SQUARE_CLOSE: "]",
	COMMA:        ",",
	PLUS:         "+",
	DASH:         "-",
	NOT:          "!",
	HASH:         "#",
	AND:          "AND",
	OR:           "OR",
	MINUS:        "MINUS",
	REVERSED:     "R",
}

// Literal returns the fixed spelling of a token type, or "" for types
// whose text varies.
func Literal(tt TokenType) string {
	return literals[tt]
}

// keywords are tried longest first so MINUS is never read as LETTER 'M'.
var keywords = []struct {
	word string
	typ  TokenType
}{
	{"MINUS", MINUS},
	{"AND", AND},
	{"OR", OR},
	{"R", REVERSED},
}
