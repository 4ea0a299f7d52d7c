package format

import (
	"github.com/sambeau/ecl/pkg/ecl/ast"
)

// Options controls Pretty.
type Options struct {
	Width  int    // target line width; 0 means MaxLineWidth
	Indent string // one indentation level; "" means IndentString
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = MaxLineWidth
	}
	if o.Width < MinLineWidth {
		o.Width = MinLineWidth
	}
	if o.Indent == "" {
		o.Indent = IndentString
	}
	return o
}

// Render returns the canonical single-line form of expr: single spaces
// between tokens and explicit AND, OR and MINUS keywords. Parsing the
// result yields a tree equal to expr.
func Render(expr ast.ExpressionConstraint) string {
	if expr == nil {
		return ""
	}
	return expr.String()
}

// Pretty lays expr out over several lines when its canonical form does
// not fit in opts.Width. Chains of OR and AND put one operand per line,
// refinements and attribute groups are indented under their focus, and
// parenthesized parts that do not fit are opened onto their own lines.
// The result parses to the same tree as Render.
func Pretty(expr ast.ExpressionConstraint, opts Options) string {
	if expr == nil {
		return ""
	}
	p := NewPrinter(opts)
	p.expression(expr)
	return p.String()
}

// operand is one member of a flattened OR or AND chain.
type operand struct {
	node   ast.Node
	parens bool
}

// ---------------------------------------------------------------------------
// Expression constraints
// ---------------------------------------------------------------------------

func (p *Printer) expression(e ast.ExpressionConstraint) {
	if s := e.String(); p.fitsOnLine(s) {
		p.write(s)
		return
	}

	switch n := e.(type) {
	case *ast.OrExpression:
		p.chain("OR", flattenOr(n))
	case *ast.AndExpression:
		p.chain("AND", flattenAnd(n))
	case *ast.Exclusion:
		p.expressionOperand(n.Left, ast.Precedence(n.Left) < ast.PrecRefined)
		p.breakLine()
		p.write("MINUS ")
		p.expressionOperand(n.Right, ast.Precedence(n.Right) < ast.PrecRefined)
	case *ast.Refined:
		p.expressionOperand(n.Constraint, ast.Precedence(n.Constraint) < ast.PrecDotted)
		p.write(" :")
		p.indentInc()
		p.breakLine()
		p.refinement(n.Refinement)
		p.indentDec()
	case *ast.Dotted:
		p.expressionOperand(n.Constraint, ast.Precedence(n.Constraint) < ast.PrecDotted)
		p.write(" . " + n.Attribute.String())
	case *ast.ChildOf:
		p.prefixed("<! ", n.Focus)
	case *ast.DescendantOf:
		p.prefixed("< ", n.Focus)
	case *ast.DescendantOrSelfOf:
		p.prefixed("<< ", n.Focus)
	case *ast.ParentOf:
		p.prefixed(">! ", n.Focus)
	case *ast.AncestorOf:
		p.prefixed("> ", n.Focus)
	case *ast.AncestorOrSelfOf:
		p.prefixed(">> ", n.Focus)
	case *ast.NestedExpression:
		p.parenthesized(func() { p.expression(n.Inner) })
	default:
		p.write(e.String())
	}
}

func (p *Printer) prefixed(op string, focus ast.FocusConcept) {
	p.write(op)
	p.expression(focus)
}

func (p *Printer) expressionOperand(e ast.ExpressionConstraint, parens bool) {
	if !parens {
		p.expression(e)
		return
	}
	if s := "(" + e.String() + ")"; p.fitsOnLine(s) {
		p.write(s)
		return
	}
	p.parenthesized(func() { p.expression(e) })
}

// parenthesized writes '(' body ')' with the body indented on its own
// lines.
func (p *Printer) parenthesized(body func()) {
	p.write("(")
	p.indentInc()
	p.breakLine()
	body()
	p.indentDec()
	p.breakLine()
	p.write(")")
}

// chain writes operands one per line, each after the first prefixed by op.
func (p *Printer) chain(op string, items []operand) {
	for i, item := range items {
		if i > 0 {
			p.breakLine()
			p.write(op + " ")
		}
		switch n := item.node.(type) {
		case ast.ExpressionConstraint:
			p.expressionOperand(n, item.parens)
		case ast.Refinement:
			p.refinementOperand(n, item.parens)
		case ast.AttributeSet:
			p.attributeSetOperand(n, item.parens)
		}
	}
}

// needsParens mirrors the rules ast uses for String.
func needsParens(e ast.ExpressionConstraint, min int, left bool) bool {
	if ast.Precedence(e) < min {
		return true
	}
	return left && ast.OpensRefinement(e)
}

func flattenOr(e *ast.OrExpression) []operand {
	var items []operand
	if inner, ok := e.Left.(*ast.OrExpression); ok && !ast.OpensRefinement(inner) {
		items = flattenOr(inner)
	} else {
		items = []operand{{e.Left, needsParens(e.Left, ast.PrecOr, true)}}
	}
	return append(items, operand{e.Right, needsParens(e.Right, ast.PrecAnd, false)})
}

func flattenAnd(e *ast.AndExpression) []operand {
	var items []operand
	if inner, ok := e.Left.(*ast.AndExpression); ok && !ast.OpensRefinement(inner) {
		items = flattenAnd(inner)
	} else {
		items = []operand{{e.Left, needsParens(e.Left, ast.PrecAnd, true)}}
	}
	return append(items, operand{e.Right, needsParens(e.Right, ast.PrecExclusion, false)})
}

// ---------------------------------------------------------------------------
// Refinements
// ---------------------------------------------------------------------------

func (p *Printer) refinement(r ast.Refinement) {
	if s := r.String(); p.fitsOnLine(s) {
		p.write(s)
		return
	}

	switch n := r.(type) {
	case *ast.OrRefinement:
		p.chain("OR", flattenOrRefinement(n))
	case *ast.AndRefinement:
		p.chain("AND", flattenAndRefinement(n))
	case *ast.AttributeGroup:
		p.group(n)
	case *ast.NestedRefinement:
		p.parenthesized(func() { p.refinement(n.Inner) })
	case *ast.AttributeConstraint:
		p.attributeConstraint(n)
	default:
		p.write(r.String())
	}
}

func (p *Printer) refinementOperand(r ast.Refinement, parens bool) {
	if !parens {
		p.refinement(r)
		return
	}
	if s := "(" + r.String() + ")"; p.fitsOnLine(s) {
		p.write(s)
		return
	}
	p.parenthesized(func() { p.refinement(r) })
}

func flattenOrRefinement(r *ast.OrRefinement) []operand {
	var items []operand
	if inner, ok := r.Left.(*ast.OrRefinement); ok {
		items = flattenOrRefinement(inner)
	} else {
		items = []operand{{r.Left, ast.RefinementPrecedence(r.Left) < ast.PrecOr}}
	}
	return append(items, operand{r.Right, ast.RefinementPrecedence(r.Right) < ast.PrecAnd})
}

func flattenAndRefinement(r *ast.AndRefinement) []operand {
	var items []operand
	if inner, ok := r.Left.(*ast.AndRefinement); ok {
		items = flattenAndRefinement(inner)
	} else {
		items = []operand{{r.Left, ast.RefinementPrecedence(r.Left) < ast.PrecAnd}}
	}
	return append(items, operand{r.Right, ast.RefinementPrecedence(r.Right) < ast.PrecSub})
}

// group writes '[card] {' and the members indented below it.
func (p *Printer) group(g *ast.AttributeGroup) {
	if g.Cardinality != nil {
		p.write(g.Cardinality.String() + " ")
	}
	p.write("{")
	p.indentInc()
	p.breakLine()
	p.attributeSet(g.Members)
	p.indentDec()
	p.breakLine()
	p.write("}")
}

// attributeConstraint keeps the attribute on the current line and lets an
// expression value break.
func (p *Printer) attributeConstraint(a *ast.AttributeConstraint) {
	if a.Cardinality != nil {
		p.write(a.Cardinality.String() + " ")
	}
	if a.Reversed {
		p.write("R ")
	}
	p.write(a.Attribute.String() + " ")
	switch c := a.Comparison.(type) {
	case *ast.ValueEquals:
		p.write("= ")
		p.expression(c.Value)
	case *ast.ValueNotEquals:
		p.write("!= ")
		p.expression(c.Value)
	default:
		p.write(c.String())
	}
}

// ---------------------------------------------------------------------------
// Attribute sets
// ---------------------------------------------------------------------------

func (p *Printer) attributeSet(s ast.AttributeSet) {
	if text := s.String(); p.fitsOnLine(text) {
		p.write(text)
		return
	}

	switch n := s.(type) {
	case *ast.OrAttributeSet:
		p.chain("OR", flattenOrAttributeSet(n))
	case *ast.AndAttributeSet:
		p.chain("AND", flattenAndAttributeSet(n))
	case *ast.NestedAttributeSet:
		p.parenthesized(func() { p.attributeSet(n.Inner) })
	case *ast.AttributeConstraint:
		p.attributeConstraint(n)
	default:
		p.write(s.String())
	}
}

func (p *Printer) attributeSetOperand(s ast.AttributeSet, parens bool) {
	if !parens {
		p.attributeSet(s)
		return
	}
	if text := "(" + s.String() + ")"; p.fitsOnLine(text) {
		p.write(text)
		return
	}
	p.parenthesized(func() { p.attributeSet(s) })
}

func flattenOrAttributeSet(s *ast.OrAttributeSet) []operand {
	var items []operand
	if inner, ok := s.Left.(*ast.OrAttributeSet); ok {
		items = flattenOrAttributeSet(inner)
	} else {
		items = []operand{{s.Left, ast.AttributeSetPrecedence(s.Left) < ast.PrecOr}}
	}
	return append(items, operand{s.Right, ast.AttributeSetPrecedence(s.Right) < ast.PrecAnd})
}

func flattenAndAttributeSet(s *ast.AndAttributeSet) []operand {
	var items []operand
	if inner, ok := s.Left.(*ast.AndAttributeSet); ok {
		items = flattenAndAttributeSet(inner)
	} else {
		items = []operand{{s.Left, ast.AttributeSetPrecedence(s.Left) < ast.PrecAnd}}
	}
	return append(items, operand{s.Right, ast.AttributeSetPrecedence(s.Right) < ast.PrecSub})
}
