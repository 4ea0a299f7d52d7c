package ast

import "github.com/sambeau/ecl/pkg/ecl/lexer"

// Binding strength of each grammar layer, loosest first. A child that binds
// more loosely than its position allows is printed in parentheses, so trees
// built by hand still render as text that parses back to the same shape.
const (
	PrecOr = iota + 1
	PrecAnd
	PrecExclusion
	PrecRefined
	PrecDotted
	PrecSimple
)

// Refinement and attribute set layers.
const (
	PrecSub = PrecAnd + 1
)

// Precedence returns the binding strength of an expression constraint.
func Precedence(e ExpressionConstraint) int {
	switch e.(type) {
	case *OrExpression:
		return PrecOr
	case *AndExpression:
		return PrecAnd
	case *Exclusion:
		return PrecExclusion
	case *Refined:
		return PrecRefined
	case *Dotted:
		return PrecDotted
	}
	return PrecSimple
}

// OpensRefinement reports whether the rendered text of e ends inside a
// refinement, where a following AND, OR or ',' would be read as part of
// that refinement.
func OpensRefinement(e ExpressionConstraint) bool {
	switch n := e.(type) {
	case *Refined:
		return true
	case *Exclusion:
		return Precedence(n.Right) >= PrecRefined && OpensRefinement(n.Right)
	case *AndExpression:
		return Precedence(n.Right) >= PrecExclusion && OpensRefinement(n.Right)
	case *OrExpression:
		return Precedence(n.Right) >= PrecAnd && OpensRefinement(n.Right)
	}
	return false
}

func operand(e ExpressionConstraint, min int) string {
	if Precedence(e) < min {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// leftOperand renders the left side of AND or OR.
func leftOperand(e ExpressionConstraint, min int) string {
	if Precedence(e) >= min && OpensRefinement(e) {
		return "(" + e.String() + ")"
	}
	return operand(e, min)
}

// RefinementPrecedence is Precedence for the refinement layer.
func RefinementPrecedence(r Refinement) int {
	switch r.(type) {
	case *OrRefinement:
		return PrecOr
	case *AndRefinement:
		return PrecAnd
	}
	return PrecSub
}

func subRefinement(r Refinement, min int) string {
	if RefinementPrecedence(r) < min {
		return "(" + r.String() + ")"
	}
	return r.String()
}

// AttributeSetPrecedence is Precedence inside attribute groups.
func AttributeSetPrecedence(s AttributeSet) int {
	switch s.(type) {
	case *OrAttributeSet:
		return PrecOr
	case *AndAttributeSet:
		return PrecAnd
	}
	return PrecSub
}

func subAttributeSet(s AttributeSet, min int) string {
	if AttributeSetPrecedence(s) < min {
		return "(" + s.String() + ")"
	}
	return s.String()
}

func quote(s string) string {
	return lexer.Quote(s)
}
