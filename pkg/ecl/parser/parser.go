// Package parser builds an ECL expression tree from a token stream.
//
// The parser is hand-written recursive descent with one token of lookahead
// (two after '=' and '!=' to tell strings and numbers from expressions).
// Every binary layer is an iterative left fold. The first error stops the
// parse; no partial tree is returned.
package parser

import (
	"strconv"
	"strings"

	"github.com/sambeau/ecl/pkg/ecl/ast"
	eclerrors "github.com/sambeau/ecl/pkg/ecl/errors"
	"github.com/sambeau/ecl/pkg/ecl/lexer"
)

// DefaultMaxDepth is the nesting limit used when none is configured.
const DefaultMaxDepth = 256

// Parser represents the parser
type Parser struct {
	tokens []lexer.Token
	pos    int

	curToken lexer.Token

	err *eclerrors.EclError

	depth            int
	maxDepth         int
	commaConjunction bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithCommaConjunction makes ',' a synonym for AND between expression
// constraints as well as inside refinements.
func WithCommaConjunction(on bool) Option {
	return func(p *Parser) { p.commaConjunction = on }
}

// WithMaxDepth limits how deeply parentheses and attribute groups may
// nest. Zero or less removes the limit.
func WithMaxDepth(n int) Option {
	return func(p *Parser) { p.maxDepth = n }
}

// New creates a parser over tokens. Hidden-channel tokens are dropped, and
// a missing trailing EOF is supplied.
func New(tokens []lexer.Token, opts ...Option) *Parser {
	p := &Parser{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}

	p.tokens = make([]lexer.Token, 0, len(tokens)+1)
	for _, tok := range tokens {
		if tok.Channel == lexer.Hidden {
			continue
		}
		p.tokens = append(p.tokens, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}
	if n := len(p.tokens); n == 0 || p.tokens[n-1].Type != lexer.EOF {
		eof := lexer.Token{Type: lexer.EOF, Line: 1, Column: 1}
		if n > 0 {
			last := p.tokens[n-1]
			eof.Offset = last.End()
			eof.Line = last.Line
			eof.Column = last.Column + len([]rune(last.Literal))
		}
		p.tokens = append(p.tokens, eof)
	}

	p.curToken = p.tokens[0]
	return p
}

// Parse parses a complete expression constraint from tokens.
// The error, when not nil, is an *errors.EclError.
func Parse(tokens []lexer.Token, opts ...Option) (ast.ExpressionConstraint, error) {
	p := New(tokens, opts...)
	expr := p.ParseExpressionConstraint()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return expr, nil
}

// ParseString tokenizes and parses input.
func ParseString(input string, opts ...Option) (ast.ExpressionConstraint, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, opts...)
}

// Err returns the first error encountered, or nil.
func (p *Parser) Err() *eclerrors.EclError {
	return p.err
}

// ParseExpressionConstraint parses the whole token stream as one
// expression constraint. Trailing tokens are an error.
func (p *Parser) ParseExpressionConstraint() ast.ExpressionConstraint {
	expr := p.parseOr()
	if p.failed() {
		return nil
	}
	if !p.curTokenIs(lexer.EOF) {
		p.errorAt("PARSE-0003", p.curToken, map[string]any{"Found": p.curToken.Literal})
		return nil
	}
	return expr
}

// ---------------------------------------------------------------------------
// Token handling
// ---------------------------------------------------------------------------

// nextToken advances to the next token, staying on EOF at the end.
func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.curToken = p.tokens[p.pos]
}

func (p *Parser) peekToken() lexer.Token {
	if p.pos < len(p.tokens)-1 {
		return p.tokens[p.pos+1]
	}
	return p.curToken
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

// expect consumes the current token if it has type t and reports an error
// otherwise.
func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.unexpected(t.Describe())
	return false
}

func (p *Parser) failed() bool {
	return p.err != nil
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// errorAt records a catalog error at tok. Only the first error is kept.
func (p *Parser) errorAt(code string, tok lexer.Token, data map[string]any) {
	p.errorSpan(code, tok, tok.Len(), data)
}

func (p *Parser) errorSpan(code string, tok lexer.Token, length int, data map[string]any) {
	if p.err != nil {
		return
	}
	p.err = eclerrors.NewAt(code, tok.Offset, length, tok.Line, tok.Column, data)
}

// unexpected reports that the current token is not what the grammar needs.
func (p *Parser) unexpected(expected string) {
	if p.curTokenIs(lexer.EOF) {
		p.errorAt("PARSE-0002", p.curToken, map[string]any{"Expected": expected})
		return
	}
	p.errorAt("PARSE-0001", p.curToken, map[string]any{
		"Expected": expected,
		"Found":    p.curToken.Literal,
	})
}

// enter records one more level of nesting at tok.
func (p *Parser) enter(tok lexer.Token) bool {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		p.errorAt("LIMIT-0002", tok, map[string]any{"Max": p.maxDepth})
		return false
	}
	return true
}

func (p *Parser) leave() {
	p.depth--
}

// ---------------------------------------------------------------------------
// Expression constraints
// ---------------------------------------------------------------------------

// parseOr parses 'And (OR And)*'.
func (p *Parser) parseOr() ast.ExpressionConstraint {
	left := p.parseAnd()
	for !p.failed() && p.curTokenIs(lexer.OR) {
		p.nextToken()
		right := p.parseAnd()
		if p.failed() {
			return nil
		}
		left = &ast.OrExpression{Left: left, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

// parseAnd parses 'Exclusion (AND Exclusion)*'. A comma is only accepted
// here with WithCommaConjunction; otherwise it can never be valid after an
// expression constraint, so it gets a dedicated error.
func (p *Parser) parseAnd() ast.ExpressionConstraint {
	left := p.parseExclusion()
	for !p.failed() {
		if p.curTokenIs(lexer.COMMA) && !p.commaConjunction {
			p.errorAt("PARSE-0005", p.curToken, map[string]any{"Found": ","})
			break
		}
		if !p.curTokenIs(lexer.AND) && !p.curTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		right := p.parseExclusion()
		if p.failed() {
			return nil
		}
		left = &ast.AndExpression{Left: left, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

// parseExclusion parses 'Refined (MINUS Refined)?'.
func (p *Parser) parseExclusion() ast.ExpressionConstraint {
	left := p.parseRefined()
	if p.failed() || !p.curTokenIs(lexer.MINUS) {
		return left
	}
	p.nextToken()
	right := p.parseRefined()
	if p.failed() {
		return nil
	}
	expr := &ast.Exclusion{Left: left, Right: right}
	if p.curTokenIs(lexer.MINUS) {
		p.errorAt("PARSE-0004", p.curToken, map[string]any{
			"Found": p.curToken.Literal,
			"Left":  expr.String(),
			"Right": "...",
		})
		return nil
	}
	return expr
}

// parseRefined parses 'Dotted (':' Refinement)?'.
func (p *Parser) parseRefined() ast.ExpressionConstraint {
	constraint := p.parseDotted()
	if p.failed() || !p.curTokenIs(lexer.COLON) {
		return constraint
	}
	p.nextToken()
	refinement := p.parseRefinement()
	if p.failed() {
		return nil
	}
	return &ast.Refined{Constraint: constraint, Refinement: refinement}
}

// parseDotted parses 'Simple ('.' Attribute)*'.
func (p *Parser) parseDotted() ast.ExpressionConstraint {
	var expr ast.ExpressionConstraint = p.parseSimple()
	if p.failed() {
		return nil
	}
	for p.curTokenIs(lexer.DOT) {
		p.nextToken()
		attr := p.parseAttribute()
		if p.failed() {
			return nil
		}
		expr = &ast.Dotted{Constraint: expr, Attribute: attr}
	}
	return expr
}

// parseSimple parses an optional hierarchy operator and a focus concept.
func (p *Parser) parseSimple() ast.SimpleExpression {
	op := p.curToken.Type
	switch op {
	case lexer.LT_EM, lexer.LT, lexer.DBL_LT, lexer.GT_EM, lexer.GT, lexer.DBL_GT:
		p.nextToken()
	default:
		return p.parseFocusConcept()
	}

	focus := p.parseFocusConcept()
	if p.failed() {
		return nil
	}
	switch op {
	case lexer.LT_EM:
		return &ast.ChildOf{Focus: focus}
	case lexer.LT:
		return &ast.DescendantOf{Focus: focus}
	case lexer.DBL_LT:
		return &ast.DescendantOrSelfOf{Focus: focus}
	case lexer.GT_EM:
		return &ast.ParentOf{Focus: focus}
	case lexer.GT:
		return &ast.AncestorOf{Focus: focus}
	default:
		return &ast.AncestorOrSelfOf{Focus: focus}
	}
}

// parseFocusConcept parses member-of, a concept reference, the wildcard or
// a parenthesized expression.
func (p *Parser) parseFocusConcept() ast.FocusConcept {
	switch {
	case p.curTokenIs(lexer.CARET):
		p.nextToken()
		target := p.parseConceptTarget()
		if p.failed() {
			return nil
		}
		return &ast.MemberOf{Target: target}
	case p.curToken.IsDigit(), p.curTokenIs(lexer.WILDCARD):
		return p.parseConceptTarget()
	case p.curTokenIs(lexer.ROUND_OPEN):
		open := p.curToken
		if !p.enter(open) {
			return nil
		}
		defer p.leave()
		p.nextToken()
		inner := p.parseOr()
		if p.failed() || !p.expect(lexer.ROUND_CLOSE) {
			return nil
		}
		return &ast.NestedExpression{Inner: inner}
	}
	p.unexpected("concept reference, '*', '^' or '('")
	return nil
}

// parseConceptTarget parses a concept reference or '*'.
func (p *Parser) parseConceptTarget() ast.ConceptTarget {
	if p.curTokenIs(lexer.WILDCARD) {
		p.nextToken()
		return &ast.Any{}
	}
	if !p.curToken.IsDigit() {
		p.unexpected("concept reference or '*'")
		return nil
	}
	ref := p.parseConceptReference()
	if p.failed() {
		return nil
	}
	return ref
}

// parseConceptReference parses 'SnomedIdentifier ('|' Term '|')?'.
func (p *Parser) parseConceptReference() *ast.ConceptReference {
	id, ok := p.parseSnomedIdentifier()
	if !ok {
		return nil
	}
	ref := &ast.ConceptReference{ID: id}
	if !p.curTokenIs(lexer.PIPE) {
		return ref
	}

	p.nextToken()
	if !p.curTokenIs(lexer.TERM) {
		if p.curTokenIs(lexer.PIPE) {
			p.errorAt("PARSE-0006", p.curToken, map[string]any{"Found": "|"})
		} else {
			p.unexpected("term")
		}
		return nil
	}
	ref.Term = p.curToken.Literal
	p.nextToken()
	if !p.expect(lexer.PIPE) {
		return nil
	}
	return ref
}

// parseSnomedIdentifier joins a contiguous run of digit tokens into an
// identifier of at least six digits with no leading zero.
func (p *Parser) parseSnomedIdentifier() (string, bool) {
	first := p.curToken
	digits, last := p.readDigits()
	length := last.End() - first.Offset
	switch {
	case len(digits) < 6:
		p.errorSpan("ID-0001", first, length, map[string]any{"Found": digits})
		return "", false
	case digits[0] == '0':
		p.errorSpan("ID-0002", first, length, map[string]any{"Found": digits})
		return "", false
	}
	return digits, true
}

// readDigits consumes the current digit token and every digit token that
// touches it. It returns the digits and the last token read.
func (p *Parser) readDigits() (string, lexer.Token) {
	last := p.curToken
	var sb strings.Builder
	sb.WriteString(last.Literal)
	p.nextToken()
	for p.curToken.IsDigit() && last.Adjacent(p.curToken) {
		last = p.curToken
		sb.WriteString(last.Literal)
		p.nextToken()
	}
	return sb.String(), last
}

// ---------------------------------------------------------------------------
// Refinements
// ---------------------------------------------------------------------------

func (p *Parser) isAndOperator() bool {
	return p.curTokenIs(lexer.AND) || p.curTokenIs(lexer.COMMA)
}

// parseRefinement parses 'AndRefinement (OR AndRefinement)*'.
func (p *Parser) parseRefinement() ast.Refinement {
	left := p.parseAndRefinement()
	for !p.failed() && p.curTokenIs(lexer.OR) {
		p.nextToken()
		right := p.parseAndRefinement()
		if p.failed() {
			return nil
		}
		left = &ast.OrRefinement{Left: left, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

// parseAndRefinement parses 'SubRefinement (AndOperator SubRefinement)*'.
func (p *Parser) parseAndRefinement() ast.Refinement {
	left := p.parseSubRefinement()
	for !p.failed() && p.isAndOperator() {
		p.nextToken()
		right := p.parseSubRefinement()
		if p.failed() {
			return nil
		}
		left = &ast.AndRefinement{Left: left, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

// parseSubRefinement parses an attribute constraint, an attribute group or
// a parenthesized refinement. A leading cardinality belongs to whichever
// of the first two follows it.
func (p *Parser) parseSubRefinement() ast.Refinement {
	switch {
	case p.curTokenIs(lexer.ROUND_OPEN):
		open := p.curToken
		if !p.enter(open) {
			return nil
		}
		defer p.leave()
		p.nextToken()
		inner := p.parseRefinement()
		if p.failed() || !p.expect(lexer.ROUND_CLOSE) {
			return nil
		}
		return &ast.NestedRefinement{Inner: inner}
	case p.curTokenIs(lexer.CURLY_OPEN):
		return p.parseAttributeGroup(nil)
	}

	var card *ast.Cardinality
	if p.curTokenIs(lexer.SQUARE_OPEN) {
		card = p.parseCardinality()
		if p.failed() {
			return nil
		}
		if p.curTokenIs(lexer.CURLY_OPEN) {
			return p.parseAttributeGroup(card)
		}
	}
	constraint := p.parseAttributeConstraint(card)
	if p.failed() {
		return nil
	}
	return constraint
}

// parseAttributeGroup parses '{ AttributeSet }' after an optional
// cardinality.
func (p *Parser) parseAttributeGroup(card *ast.Cardinality) ast.Refinement {
	open := p.curToken
	if !p.enter(open) {
		return nil
	}
	defer p.leave()
	p.nextToken()
	members := p.parseAttributeSet()
	if p.failed() || !p.expect(lexer.CURLY_CLOSE) {
		return nil
	}
	return &ast.AttributeGroup{Cardinality: card, Members: members}
}

// ---------------------------------------------------------------------------
// Attribute sets
// ---------------------------------------------------------------------------

func (p *Parser) parseAttributeSet() ast.AttributeSet {
	left := p.parseAndAttributeSet()
	for !p.failed() && p.curTokenIs(lexer.OR) {
		p.nextToken()
		right := p.parseAndAttributeSet()
		if p.failed() {
			return nil
		}
		left = &ast.OrAttributeSet{Left: left, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

func (p *Parser) parseAndAttributeSet() ast.AttributeSet {
	left := p.parseSubAttributeSet()
	for !p.failed() && p.isAndOperator() {
		p.nextToken()
		right := p.parseSubAttributeSet()
		if p.failed() {
			return nil
		}
		left = &ast.AndAttributeSet{Left: left, Right: right}
	}
	if p.failed() {
		return nil
	}
	return left
}

func (p *Parser) parseSubAttributeSet() ast.AttributeSet {
	if p.curTokenIs(lexer.ROUND_OPEN) {
		open := p.curToken
		if !p.enter(open) {
			return nil
		}
		defer p.leave()
		p.nextToken()
		inner := p.parseAttributeSet()
		if p.failed() || !p.expect(lexer.ROUND_CLOSE) {
			return nil
		}
		return &ast.NestedAttributeSet{Inner: inner}
	}

	var card *ast.Cardinality
	if p.curTokenIs(lexer.SQUARE_OPEN) {
		card = p.parseCardinality()
		if p.failed() {
			return nil
		}
	}
	constraint := p.parseAttributeConstraint(card)
	if p.failed() {
		return nil
	}
	return constraint
}

// ---------------------------------------------------------------------------
// Attribute constraints
// ---------------------------------------------------------------------------

// parseAttributeConstraint parses 'R? Attribute Comparison' after an
// optional, already parsed cardinality.
func (p *Parser) parseAttributeConstraint(card *ast.Cardinality) *ast.AttributeConstraint {
	constraint := &ast.AttributeConstraint{Cardinality: card}
	if p.curTokenIs(lexer.REVERSED) {
		constraint.Reversed = true
		p.nextToken()
	}
	constraint.Attribute = p.parseAttribute()
	if p.failed() {
		return nil
	}
	constraint.Comparison = p.parseComparison()
	if p.failed() {
		return nil
	}
	return constraint
}

// parseAttribute parses '<' target, '<<' target, a concept reference or '*'.
func (p *Parser) parseAttribute() ast.Attribute {
	switch {
	case p.curTokenIs(lexer.LT):
		p.nextToken()
		target := p.parseConceptTarget()
		if p.failed() {
			return nil
		}
		return &ast.AttributeDescendantOf{Target: target}
	case p.curTokenIs(lexer.DBL_LT):
		p.nextToken()
		target := p.parseConceptTarget()
		if p.failed() {
			return nil
		}
		return &ast.AttributeDescendantOrSelfOf{Target: target}
	case p.curToken.IsDigit(), p.curTokenIs(lexer.WILDCARD):
		target := p.parseConceptTarget()
		if p.failed() {
			return nil
		}
		return target
	}
	p.unexpected("attribute")
	return nil
}

// parseCardinality parses '[' min '..' (max | '*') ']'.
func (p *Parser) parseCardinality() *ast.Cardinality {
	p.nextToken() // '['
	low, ok := p.parseNonNegativeInteger("cardinality")
	if !ok || !p.expect(lexer.TO) {
		return nil
	}

	card := &ast.Cardinality{Min: low}
	if p.curTokenIs(lexer.WILDCARD) {
		card.Max = ast.Unbounded()
		p.nextToken()
	} else {
		high, ok := p.parseNonNegativeInteger("cardinality")
		if !ok {
			return nil
		}
		card.Max = ast.Fixed(high)
	}
	if !p.expect(lexer.SQUARE_CLOSE) {
		return nil
	}
	return card
}

// parseNonNegativeInteger parses '0' or a contiguous run of digits with no
// leading zero that fits in 32 bits.
func (p *Parser) parseNonNegativeInteger(what string) (uint32, bool) {
	if !p.curToken.IsDigit() {
		p.unexpected("digit")
		return 0, false
	}
	first := p.curToken
	digits, last := p.readDigits()
	length := last.End() - first.Offset
	if len(digits) > 1 && digits[0] == '0' {
		p.errorSpan("VALUE-0002", first, length, map[string]any{"Found": digits})
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		p.errorSpan("VALUE-0001", first, length, map[string]any{"What": what, "Found": digits})
		return 0, false
	}
	return uint32(n), true
}

// ---------------------------------------------------------------------------
// Comparisons
// ---------------------------------------------------------------------------

var numericOperators = map[lexer.TokenType]ast.Operator{
	lexer.EQUAL:     ast.OpEquals,
	lexer.NOT_EQUAL: ast.OpNotEquals,
	lexer.LT:        ast.OpLess,
	lexer.LTE:       ast.OpLessOrEqual,
	lexer.GT:        ast.OpGreater,
	lexer.GTE:       ast.OpGreaterOrEqual,
}

// parseComparison dispatches on the operator and, for '=' and '!=', on the
// token after it.
func (p *Parser) parseComparison() ast.Comparison {
	op, ok := numericOperators[p.curToken.Type]
	if !ok {
		p.unexpected("'=', '!=', '<', '<=', '>' or '>='")
		return nil
	}
	equality := op == ast.OpEquals || op == ast.OpNotEquals
	next := p.peekToken()

	switch {
	case next.Type == lexer.HASH:
		p.nextToken()
		p.nextToken()
		return p.parseNumericValue(op)
	case !equality:
		p.nextToken()
		p.unexpected("'#'")
		return nil
	case next.Type == lexer.STRING:
		p.nextToken()
		value := lexer.Unquote(p.curToken.Literal)
		p.nextToken()
		if op == ast.OpEquals {
			return &ast.StringEquals{Value: value}
		}
		return &ast.StringNotEquals{Value: value}
	}

	p.nextToken()
	value := p.parseSimple()
	if p.failed() {
		return nil
	}
	if op == ast.OpEquals {
		return &ast.ValueEquals{Value: value}
	}
	return &ast.ValueNotEquals{Value: value}
}

// parseNumericValue parses the Integer or Decimal after '#'. The sign, the
// digits and the decimal point must be written without spaces.
func (p *Parser) parseNumericValue(op ast.Operator) ast.Comparison {
	first := p.curToken
	var sb strings.Builder
	negative := false
	if p.curTokenIs(lexer.PLUS) || p.curTokenIs(lexer.DASH) {
		negative = p.curTokenIs(lexer.DASH)
		sign := p.curToken
		p.nextToken()
		if !p.curToken.IsDigit() || !sign.Adjacent(p.curToken) {
			p.unexpected("digit")
			return nil
		}
	}
	if !p.curToken.IsDigit() {
		p.unexpected("number")
		return nil
	}
	if negative {
		sb.WriteByte('-')
	}

	intStart := p.curToken
	digits, last := p.readDigits()
	if len(digits) > 1 && digits[0] == '0' {
		p.errorSpan("VALUE-0002", intStart, last.End()-intStart.Offset, map[string]any{"Found": digits})
		return nil
	}
	sb.WriteString(digits)

	if p.curTokenIs(lexer.DOT) && last.Adjacent(p.curToken) {
		dot := p.curToken
		sb.WriteByte('.')
		p.nextToken()
		if p.curToken.IsDigit() && dot.Adjacent(p.curToken) {
			fraction, _ := p.readDigits()
			sb.WriteString(fraction)
		}
		return &ast.DecimalComparison{Op: op, Value: sb.String()}
	}

	value, err := strconv.ParseInt(sb.String(), 10, 64)
	if err != nil {
		p.errorSpan("VALUE-0001", first, last.End()-first.Offset, map[string]any{"What": "integer", "Found": sb.String()})
		return nil
	}
	return &ast.IntegerComparison{Op: op, Value: value}
}
