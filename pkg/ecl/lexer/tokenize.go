package lexer

import (
	"strconv"
	"strings"
)

// Tokenize scans input and returns the default-channel tokens followed by
// a final EOF token. Scanning stops at the first error, which is always an
// *errors.EclError.
func Tokenize(input string) ([]Token, error) {
	return scan(input, false)
}

// TokenizeAll is like Tokenize but keeps whitespace and comment tokens.
func TokenizeAll(input string) ([]Token, error) {
	return scan(input, true)
}

func scan(input string, all bool) ([]Token, error) {
	l := New(input)
	tokens := make([]Token, 0, len(input)/2+1)
	for {
		tok := l.NextToken()
		if tok.Type == ILLEGAL {
			return nil, l.Err()
		}
		if all || tok.Channel == Default {
			tokens = append(tokens, tok)
		}
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

// Unquote decodes a STRING token literal: it strips the surrounding quotes
// and resolves backslash escapes. Unknown escapes keep the escaped
// character, and a malformed \u escape is kept as written.
func Unquote(lit string) string {
	if len(lit) >= 2 && (lit[0] == '"' || lit[0] == '\'') && lit[len(lit)-1] == lit[0] {
		lit = lit[1 : len(lit)-1]
	}
	if !strings.Contains(lit, `\`) {
		return lit
	}

	var sb strings.Builder
	sb.Grow(len(lit))
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' || i+1 >= len(lit) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch lit[i] {
		case 'b':
			sb.WriteByte('\b')
		case 't':
			sb.WriteByte('\t')
		case 'n':
			sb.WriteByte('\n')
		case 'f':
			sb.WriteByte('\f')
		case 'r':
			sb.WriteByte('\r')
		case 'u':
			if i+5 <= len(lit) {
				if v, err := strconv.ParseUint(lit[i+1:i+5], 16, 32); err == nil {
					sb.WriteRune(rune(v))
					i += 4
					continue
				}
			}
			sb.WriteString(`\u`)
		default:
			sb.WriteByte(lit[i])
		}
	}
	return sb.String()
}

// Quote renders s as a double-quoted STRING literal that Unquote reverses.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString(`\u`)
				sb.WriteString(hex4(r))
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func hex4(r rune) string {
	s := strconv.FormatInt(int64(r), 16)
	return strings.Repeat("0", 4-len(s)) + s
}
