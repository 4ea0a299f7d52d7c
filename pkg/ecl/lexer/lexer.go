// Package lexer turns ECL source text into tokens.
//
// Scanning is maximal munch: multi-character operators and the reserved
// words AND, OR, MINUS and R are tried before the single-character classes.
// Whitespace and comments are produced on the Hidden channel. Text between
// '|' delimiters is captured raw as one TERM token, so keywords and quotes
// inside a term are plain text. A comment inside a term is an error.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	eclerrors "github.com/sambeau/ecl/pkg/ecl/errors"
)

// termState tracks where the lexer is relative to a |term| literal.
type termState int

const (
	termNone    termState = iota
	termOpen              // opening '|' emitted, term text next
	termScanned           // term text emitted, closing '|' next
)

// Lexer represents the lexical analyzer
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current character (0 at end of input)
	chSize       int  // byte size of current character
	line         int  // current line number
	column       int  // current column number (runes)
	term         termState
	termStart    Token // opening pipe of the term being scanned
	err          *eclerrors.EclError
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Err returns the error that produced the last ILLEGAL token, if any.
func (l *Lexer) Err() *eclerrors.EclError {
	return l.err
}

// readChar reads the next character and advances position.
// ASCII takes the fast path; other bytes are decoded as UTF-8.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.chSize = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}

	b := l.input[l.readPosition]
	l.position = l.readPosition
	if b < utf8.RuneSelf {
		l.ch = rune(b)
		l.chSize = 1
	} else {
		l.ch, l.chSize = utf8.DecodeRuneInString(l.input[l.readPosition:])
	}
	l.readPosition += l.chSize
	l.column++
}

// atEOF reports whether the whole input has been consumed.
func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// peekChar returns the next byte without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// hasPrefix reports whether the input at the current position starts with s.
func (l *Lexer) hasPrefix(s string) bool {
	return !l.atEOF() && strings.HasPrefix(l.input[l.position:], s)
}

// NextToken scans the input and returns the next token on either channel.
// Errors are returned as an ILLEGAL token; Err describes them.
func (l *Lexer) NextToken() Token {
	switch l.term {
	case termOpen:
		if isWhitespace(l.ch) {
			return l.readWhitespace()
		}
		if l.atEOF() {
			return l.illegal(l.unterminatedTerm())
		}
		if l.ch != '|' {
			l.term = termScanned
			return l.readTerm()
		}
		// empty term; the parser reports it
		l.term = termNone
		return l.single(PIPE)
	case termScanned:
		if isWhitespace(l.ch) {
			return l.readWhitespace()
		}
		l.term = termNone
		return l.single(PIPE)
	}

	if l.atEOF() {
		return Token{Type: EOF, Offset: len(l.input), Line: l.line, Column: l.column}
	}

	switch l.ch {
	case ' ', '\t', '\n', '\r':
		return l.readWhitespace()
	case '/':
		if l.peekChar() == '/' {
			return l.readLineComment()
		}
		if l.peekChar() == '*' {
			return l.readBlockComment()
		}
		return l.single(OTHER_CHARACTER)
	case '<':
		switch l.peekChar() {
		case '<':
			return l.double(DBL_LT)
		case '!':
			return l.double(LT_EM)
		case '=':
			return l.double(LTE)
		}
		return l.single(LT)
	case '>':
		switch l.peekChar() {
		case '>':
			return l.double(DBL_GT)
		case '!':
			return l.double(GT_EM)
		case '=':
			return l.double(GTE)
		}
		return l.single(GT)
	case '!':
		if l.peekChar() == '=' {
			return l.double(NOT_EQUAL)
		}
		return l.single(NOT)
	case '.':
		if l.peekChar() == '.' {
			return l.double(TO)
		}
		return l.single(DOT)
	case '|':
		tok := l.single(PIPE)
		l.term = termOpen
		l.termStart = tok
		return tok
	case '"', '\'':
		return l.readString()
	case '=':
		return l.single(EQUAL)
	case ':':
		return l.single(COLON)
	case '^':
		return l.single(CARET)
	case '*':
		return l.single(WILDCARD)
	case '{':
		return l.single(CURLY_OPEN)
	case '}':
		return l.single(CURLY_CLOSE)
	case '(':
		return l.single(ROUND_OPEN)
	case ')':
		return l.single(ROUND_CLOSE)
	case '[':
		return l.single(SQUARE_OPEN)
	case ']':
		return l.single(SQUARE_CLOSE)
	case ',':
		return l.single(COMMA)
	case '+':
		return l.single(PLUS)
	case '-':
		return l.single(DASH)
	case '#':
		return l.single(HASH)
	case '0':
		return l.single(ZERO)
	}

	switch {
	case isDigit(l.ch):
		return l.single(DIGIT_NONZERO)
	case isLetter(l.ch):
		for _, kw := range keywords {
			if l.hasPrefix(kw.word) {
				return l.fixed(kw.typ, kw.word)
			}
		}
		return l.single(LETTER)
	case l.ch == utf8.RuneError && l.chSize == 1:
		return l.illegal(l.unexpected("\\x" + hexByte(l.input[l.position])))
	case unicode.IsControl(l.ch):
		return l.illegal(l.unexpected(controlName(l.ch)))
	}
	return l.single(OTHER_CHARACTER)
}

// single emits the current character as a token of the given type.
func (l *Lexer) single(tt TokenType) Token {
	tok := l.start(tt)
	tok.Literal = l.input[l.position : l.position+l.chSize]
	l.readChar()
	return tok
}

// double emits the current and next ASCII characters as one token.
func (l *Lexer) double(tt TokenType) Token {
	tok := l.start(tt)
	tok.Literal = l.input[l.position : l.position+2]
	l.readChar()
	l.readChar()
	return tok
}

// fixed emits a known ASCII word as one token.
func (l *Lexer) fixed(tt TokenType, word string) Token {
	tok := l.start(tt)
	tok.Literal = word
	for range word {
		l.readChar()
	}
	return tok
}

// start returns a token positioned at the current character.
func (l *Lexer) start(tt TokenType) Token {
	return Token{Type: tt, Offset: l.position, Line: l.line, Column: l.column}
}

// hidden marks a token as whitespace or comment.
func hidden(tok Token) Token {
	tok.Channel = Hidden
	return tok
}

func (l *Lexer) readWhitespace() Token {
	tok := l.start(WS)
	for isWhitespace(l.ch) {
		l.readChar()
	}
	tok.Literal = l.input[tok.Offset:l.position]
	return hidden(tok)
}

func (l *Lexer) readLineComment() Token {
	tok := l.start(SL_COMMENT)
	for !l.atEOF() && l.ch != '\n' {
		l.readChar()
	}
	if l.ch == '\n' {
		l.readChar()
	}
	tok.Literal = l.input[tok.Offset:l.position]
	return hidden(tok)
}

func (l *Lexer) readBlockComment() Token {
	tok := l.start(ML_COMMENT)
	l.readChar() // '/'
	l.readChar() // '*'
	for !l.hasPrefix("*/") {
		if l.atEOF() {
			return l.illegal(eclerrors.NewAt("LEX-0003", tok.Offset, 2, tok.Line, tok.Column, nil))
		}
		l.readChar()
	}
	l.readChar()
	l.readChar()
	tok.Literal = l.input[tok.Offset:l.position]
	return hidden(tok)
}

// readString reads a quoted string. The token literal keeps the quotes and
// escapes as written; Unquote decodes it.
func (l *Lexer) readString() Token {
	tok := l.start(STRING)
	quote := l.ch
	l.readChar()
	for l.ch != quote {
		if l.atEOF() {
			return l.illegal(eclerrors.NewAt("LEX-0002", tok.Offset, 1, tok.Line, tok.Column,
				map[string]any{"Quote": string(quote)}))
		}
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() {
				continue
			}
		}
		l.readChar()
	}
	l.readChar()
	tok.Literal = l.input[tok.Offset:l.position]
	return tok
}

// readTerm captures everything up to the closing '|' with whitespace and
// comment skipping switched off. Trailing whitespace is left for the
// closing pipe's hidden WS token. A term may not hold a comment; a lone
// '/' is ordinary text.
func (l *Lexer) readTerm() Token {
	tok := l.start(TERM)
	rest := l.input[l.position:]
	end := strings.IndexByte(rest, '|')
	if end < 0 {
		return l.illegal(l.unterminatedTerm())
	}
	text := strings.TrimRight(rest[:end], " \t\r\n")
	if at := commentMarker(text); at >= 0 {
		for l.position < tok.Offset+at {
			l.readChar()
		}
		l.term = termNone
		return l.illegal(eclerrors.NewAt("LEX-0005", l.position, 2, l.line, l.column,
			map[string]any{"Marker": text[at : at+2]}))
	}
	stop := l.position + len(text)
	for l.position < stop {
		l.readChar()
	}
	tok.Literal = text
	return tok
}

// commentMarker returns the offset of the first "//" or "/*" in text, or -1.
func commentMarker(text string) int {
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '/' && (text[i+1] == '/' || text[i+1] == '*') {
			return i
		}
	}
	return -1
}

func (l *Lexer) unterminatedTerm() *eclerrors.EclError {
	s := l.termStart
	l.term = termNone
	return eclerrors.NewAt("LEX-0004", s.Offset, 1, s.Line, s.Column, nil)
}

func (l *Lexer) unexpected(char string) *eclerrors.EclError {
	return eclerrors.NewAt("LEX-0001", l.position, l.chSize, l.line, l.column,
		map[string]any{"Char": char})
}

// illegal records err and returns an ILLEGAL token at its position.
// The lexer does not advance past an error.
func (l *Lexer) illegal(err *eclerrors.EclError) Token {
	l.err = err
	lit := ""
	if err.Offset < len(l.input) {
		end := err.Offset + err.Length
		if end > len(l.input) {
			end = len(l.input)
		}
		lit = l.input[err.Offset:end]
	}
	return Token{Type: ILLEGAL, Literal: lit, Offset: err.Offset, Line: err.Line, Column: err.Column}
}

// isLetter checks for the ASCII letters ECL reserves for keywords.
func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// isDigit checks if the character is a digit
func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// isWhitespace matches the WS terminal: space, tab, newline, carriage return.
func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}

func controlName(r rune) string {
	if r < 0x100 {
		return "\\x" + hexByte(byte(r))
	}
	return string(r)
}
