// Package ecl provides a public API for embedding the ECL front end.
//
// Parse turns ECL text into an expression tree, Check validates it, and
// Render, Pretty and Normalize produce canonical text. Every function is
// safe for concurrent use; settings travel in Options, never in package
// state.
package ecl

import (
	stderrors "errors"
	"fmt"

	"github.com/sambeau/ecl/config"
	"github.com/sambeau/ecl/pkg/ecl/ast"
	eclerrors "github.com/sambeau/ecl/pkg/ecl/errors"
	"github.com/sambeau/ecl/pkg/ecl/format"
	"github.com/sambeau/ecl/pkg/ecl/lexer"
	"github.com/sambeau/ecl/pkg/ecl/parser"
)

// DefaultMaxLength is the input size limit in bytes when none is set.
const DefaultMaxLength = config.DefaultMaxLength

type settings struct {
	logger           Logger
	maxLength        int
	maxDepth         int
	commaConjunction bool
	format           format.Options
}

func newSettings(opts []Option) *settings {
	s := &settings{
		logger:    NullLogger(),
		maxLength: DefaultMaxLength,
		maxDepth:  parser.DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *settings) parserOptions() []parser.Option {
	return []parser.Option{
		parser.WithMaxDepth(s.maxDepth),
		parser.WithCommaConjunction(s.commaConjunction),
	}
}

// Option configures a call.
type Option func(*settings)

// WithLogger traces token streams and rendered output to l.
func WithLogger(l Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxLength rejects input longer than n bytes. Zero removes the limit.
func WithMaxLength(n int) Option {
	return func(s *settings) { s.maxLength = n }
}

// WithMaxDepth limits nesting of parentheses and attribute groups. Zero
// removes the limit.
func WithMaxDepth(n int) Option {
	return func(s *settings) { s.maxDepth = n }
}

// WithCommaConjunction accepts ',' as AND between expression constraints.
func WithCommaConjunction(on bool) Option {
	return func(s *settings) { s.commaConjunction = on }
}

// WithFormat sets the layout used by Format.
func WithFormat(opts format.Options) Option {
	return func(s *settings) { s.format = opts }
}

// FromConfig applies the parser and format sections of cfg.
func FromConfig(cfg *config.Config) Option {
	return func(s *settings) {
		if cfg == nil {
			return
		}
		s.maxLength = cfg.Parser.MaxLength
		s.maxDepth = cfg.Parser.MaxDepth
		s.commaConjunction = cfg.Parser.CommaConjunction
		s.format = format.Options{Width: cfg.Format.Width, Indent: cfg.Format.Indent}
	}
}

// Tokens scans src. With all set, whitespace and comment tokens are kept.
func Tokens(src string, all bool, opts ...Option) ([]lexer.Token, error) {
	s := newSettings(opts)
	if err := s.checkLength(src); err != nil {
		return nil, err
	}
	if all {
		return lexer.TokenizeAll(src)
	}
	return lexer.Tokenize(src)
}

// Parse parses src as one expression constraint.
// The error, when not nil, is an *errors.EclError.
func Parse(src string, opts ...Option) (ast.ExpressionConstraint, error) {
	s := newSettings(opts)
	if err := s.checkLength(src); err != nil {
		return nil, err
	}

	tokens, err := lexer.Tokenize(src)
	if err != nil {
		s.logger.LogLine("lex:", err)
		return nil, err
	}
	for _, tok := range tokens {
		s.logger.LogLine(fmt.Sprintf("token %d:%d %s %q", tok.Line, tok.Column, tok.Type, tok.Literal))
	}

	expr, err := parser.Parse(tokens, s.parserOptions()...)
	if err != nil {
		s.logger.LogLine("parse:", err)
		return nil, err
	}
	s.logger.LogLine("parsed:", expr.String())
	return expr, nil
}

// MustParse is like Parse but panics on error. It is meant for tests and
// fixed expressions known to be valid.
func MustParse(src string, opts ...Option) ast.ExpressionConstraint {
	expr, err := Parse(src, opts...)
	if err != nil {
		panic(fmt.Sprintf("ecl: MustParse(%q): %v", src, err))
	}
	return expr
}

// Check reports the first error in src, or nil when it is a valid
// expression constraint.
func Check(src string, opts ...Option) *eclerrors.EclError {
	_, err := Parse(src, opts...)
	return AsEclError(err)
}

// Render returns the canonical single-line form of expr.
func Render(expr ast.ExpressionConstraint) string {
	return format.Render(expr)
}

// Pretty lays expr out within width columns.
func Pretty(expr ast.ExpressionConstraint, width int) string {
	return format.Pretty(expr, format.Options{Width: width})
}

// Normalize parses src and returns its canonical form.
func Normalize(src string, opts ...Option) (string, error) {
	expr, err := Parse(src, opts...)
	if err != nil {
		return "", err
	}
	return Render(expr), nil
}

// Format parses src and returns it laid out with the configured format
// options.
func Format(src string, opts ...Option) (string, error) {
	s := newSettings(opts)
	expr, err := Parse(src, opts...)
	if err != nil {
		return "", err
	}
	out := format.Pretty(expr, s.format)
	s.logger.LogLine("formatted:", len(out), "bytes")
	return out, nil
}

// AsEclError returns err as an *errors.EclError, wrapping errors of any
// other type. It returns nil for a nil error.
func AsEclError(err error) *eclerrors.EclError {
	if err == nil {
		return nil
	}
	var eclErr *eclerrors.EclError
	if stderrors.As(err, &eclErr) {
		return eclErr
	}
	return &eclerrors.EclError{
		Class:   eclerrors.ClassParse,
		Kind:    eclerrors.UnexpectedToken,
		Message: err.Error(),
	}
}

func (s *settings) checkLength(src string) error {
	if s.maxLength <= 0 || len(src) <= s.maxLength {
		return nil
	}
	line, column := eclerrors.Position(src, s.maxLength)
	err := eclerrors.NewAt("LIMIT-0001", s.maxLength, len(src)-s.maxLength, line, column, map[string]any{
		"Size": len(src),
		"Max":  s.maxLength,
	})
	s.logger.LogLine("limit:", err)
	return err
}
