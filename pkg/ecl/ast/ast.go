// Package ast defines the expression tree produced by the ECL parser.
//
// Each grammar layer is a sealed interface; the concrete node types are
// pointers to plain structs without source positions, so two trees parsed
// from differently spaced text compare equal. String on any node returns
// canonical single-line ECL.
package ast

import (
	"bytes"
	"strconv"
)

// Node represents any node in the AST
type Node interface {
	String() string
	node()
}

// ExpressionConstraint is the root of every parsed expression.
type ExpressionConstraint interface {
	Node
	expressionNode()
}

// SimpleExpression is a hierarchy operator applied to a focus concept, or a
// bare focus concept. It is the only form allowed as an attribute value.
type SimpleExpression interface {
	ExpressionConstraint
	simpleNode()
}

// FocusConcept is what the hierarchy operators apply to.
type FocusConcept interface {
	SimpleExpression
	focusNode()
}

// ConceptTarget is a concept reference or the wildcard; it is the operand
// of member-of and of the attribute hierarchy operators.
type ConceptTarget interface {
	FocusConcept
	Attribute
	targetNode()
}

// Refinement is the attribute filter after ':'.
type Refinement interface {
	Node
	refinementNode()
}

// AttributeSet is the content of an attribute group.
type AttributeSet interface {
	Node
	attributeSetNode()
}

// Attribute names the relationship type an attribute constraint tests.
type Attribute interface {
	Node
	attributeNode()
}

// Comparison is the operator and value of an attribute constraint.
type Comparison interface {
	Node
	comparisonNode()
}

// ---------------------------------------------------------------------------
// Expression constraints
// ---------------------------------------------------------------------------

// OrExpression is the union of two constraints: 'A OR B'.
type OrExpression struct {
	Left  ExpressionConstraint
	Right ExpressionConstraint
}

func (e *OrExpression) node()           {}
func (e *OrExpression) expressionNode() {}
func (e *OrExpression) String() string {
	return leftOperand(e.Left, PrecOr) + " OR " + operand(e.Right, PrecAnd)
}

// AndExpression is the intersection of two constraints: 'A AND B'.
type AndExpression struct {
	Left  ExpressionConstraint
	Right ExpressionConstraint
}

func (e *AndExpression) node()           {}
func (e *AndExpression) expressionNode() {}
func (e *AndExpression) String() string {
	return leftOperand(e.Left, PrecAnd) + " AND " + operand(e.Right, PrecExclusion)
}

// Exclusion is the set difference 'A MINUS B'. It never chains.
type Exclusion struct {
	Left  ExpressionConstraint
	Right ExpressionConstraint
}

func (e *Exclusion) node()           {}
func (e *Exclusion) expressionNode() {}
func (e *Exclusion) String() string {
	return operand(e.Left, PrecRefined) + " MINUS " + operand(e.Right, PrecRefined)
}

// Refined narrows a constraint with attribute filters: 'A : refinement'.
type Refined struct {
	Constraint ExpressionConstraint
	Refinement Refinement
}

func (e *Refined) node()           {}
func (e *Refined) expressionNode() {}
func (e *Refined) String() string {
	return operand(e.Constraint, PrecDotted) + " : " + e.Refinement.String()
}

// Dotted selects the values of an attribute: 'A . attribute'.
type Dotted struct {
	Constraint ExpressionConstraint
	Attribute  Attribute
}

func (e *Dotted) node()           {}
func (e *Dotted) expressionNode() {}
func (e *Dotted) String() string {
	return operand(e.Constraint, PrecDotted) + " . " + e.Attribute.String()
}

// ChildOf is '<! focus'.
type ChildOf struct {
	Focus FocusConcept
}

func (e *ChildOf) node()           {}
func (e *ChildOf) expressionNode() {}
func (e *ChildOf) simpleNode()     {}
func (e *ChildOf) String() string  { return "<! " + e.Focus.String() }

// DescendantOf is '< focus'.
type DescendantOf struct {
	Focus FocusConcept
}

func (e *DescendantOf) node()           {}
func (e *DescendantOf) expressionNode() {}
func (e *DescendantOf) simpleNode()     {}
func (e *DescendantOf) String() string  { return "< " + e.Focus.String() }

// DescendantOrSelfOf is '<< focus'.
type DescendantOrSelfOf struct {
	Focus FocusConcept
}

func (e *DescendantOrSelfOf) node()           {}
func (e *DescendantOrSelfOf) expressionNode() {}
func (e *DescendantOrSelfOf) simpleNode()     {}
func (e *DescendantOrSelfOf) String() string  { return "<< " + e.Focus.String() }

// ParentOf is '>! focus'.
type ParentOf struct {
	Focus FocusConcept
}

func (e *ParentOf) node()           {}
func (e *ParentOf) expressionNode() {}
func (e *ParentOf) simpleNode()     {}
func (e *ParentOf) String() string  { return ">! " + e.Focus.String() }

// AncestorOf is '> focus'.
type AncestorOf struct {
	Focus FocusConcept
}

func (e *AncestorOf) node()           {}
func (e *AncestorOf) expressionNode() {}
func (e *AncestorOf) simpleNode()     {}
func (e *AncestorOf) String() string  { return "> " + e.Focus.String() }

// AncestorOrSelfOf is '>> focus'.
type AncestorOrSelfOf struct {
	Focus FocusConcept
}

func (e *AncestorOrSelfOf) node()           {}
func (e *AncestorOrSelfOf) expressionNode() {}
func (e *AncestorOrSelfOf) simpleNode()     {}
func (e *AncestorOrSelfOf) String() string  { return ">> " + e.Focus.String() }

// ---------------------------------------------------------------------------
// Focus concepts
// ---------------------------------------------------------------------------

// MemberOf selects the members of a reference set: '^ target'.
type MemberOf struct {
	Target ConceptTarget
}

func (f *MemberOf) node()           {}
func (f *MemberOf) expressionNode() {}
func (f *MemberOf) simpleNode()     {}
func (f *MemberOf) focusNode()      {}
func (f *MemberOf) String() string  { return "^ " + f.Target.String() }

// ConceptReference is a SNOMED CT identifier with an optional term.
// An empty Term means none was written; the grammar never allows an empty
// term between pipes.
type ConceptReference struct {
	ID   string
	Term string
}

func (c *ConceptReference) node()           {}
func (c *ConceptReference) expressionNode() {}
func (c *ConceptReference) simpleNode()     {}
func (c *ConceptReference) focusNode()      {}
func (c *ConceptReference) targetNode()     {}
func (c *ConceptReference) attributeNode()  {}
func (c *ConceptReference) String() string {
	if c.Term == "" {
		return c.ID
	}
	return c.ID + " |" + c.Term + "|"
}

// Any is the wildcard '*'.
type Any struct{}

func (a *Any) node()           {}
func (a *Any) expressionNode() {}
func (a *Any) simpleNode()     {}
func (a *Any) focusNode()      {}
func (a *Any) targetNode()     {}
func (a *Any) attributeNode()  {}
func (a *Any) String() string  { return "*" }

// NestedExpression is a parenthesized expression constraint.
type NestedExpression struct {
	Inner ExpressionConstraint
}

func (n *NestedExpression) node()           {}
func (n *NestedExpression) expressionNode() {}
func (n *NestedExpression) simpleNode()     {}
func (n *NestedExpression) focusNode()      {}
func (n *NestedExpression) String() string  { return "(" + n.Inner.String() + ")" }

// ---------------------------------------------------------------------------
// Refinements
// ---------------------------------------------------------------------------

// OrRefinement is 'r1 OR r2'.
type OrRefinement struct {
	Left  Refinement
	Right Refinement
}

func (r *OrRefinement) node()           {}
func (r *OrRefinement) refinementNode() {}
func (r *OrRefinement) String() string {
	return subRefinement(r.Left, PrecOr) + " OR " + subRefinement(r.Right, PrecAnd)
}

// AndRefinement is 'r1 AND r2' (or 'r1, r2' as written).
type AndRefinement struct {
	Left  Refinement
	Right Refinement
}

func (r *AndRefinement) node()           {}
func (r *AndRefinement) refinementNode() {}
func (r *AndRefinement) String() string {
	return subRefinement(r.Left, PrecAnd) + " AND " + subRefinement(r.Right, PrecSub)
}

// AttributeGroup requires its members to hold within one relationship
// group: '[card] { set }'.
type AttributeGroup struct {
	Cardinality *Cardinality
	Members     AttributeSet
}

func (g *AttributeGroup) node()           {}
func (g *AttributeGroup) refinementNode() {}
func (g *AttributeGroup) String() string {
	var out bytes.Buffer
	if g.Cardinality != nil {
		out.WriteString(g.Cardinality.String())
		out.WriteString(" ")
	}
	out.WriteString("{ ")
	out.WriteString(g.Members.String())
	out.WriteString(" }")
	return out.String()
}

// NestedRefinement is a parenthesized refinement.
type NestedRefinement struct {
	Inner Refinement
}

func (r *NestedRefinement) node()           {}
func (r *NestedRefinement) refinementNode() {}
func (r *NestedRefinement) String() string  { return "(" + r.Inner.String() + ")" }

// ---------------------------------------------------------------------------
// Attribute sets
// ---------------------------------------------------------------------------

// OrAttributeSet is 's1 OR s2' inside a group.
type OrAttributeSet struct {
	Left  AttributeSet
	Right AttributeSet
}

func (s *OrAttributeSet) node()             {}
func (s *OrAttributeSet) attributeSetNode() {}
func (s *OrAttributeSet) String() string {
	return subAttributeSet(s.Left, PrecOr) + " OR " + subAttributeSet(s.Right, PrecAnd)
}

// AndAttributeSet is 's1 AND s2' inside a group.
type AndAttributeSet struct {
	Left  AttributeSet
	Right AttributeSet
}

func (s *AndAttributeSet) node()             {}
func (s *AndAttributeSet) attributeSetNode() {}
func (s *AndAttributeSet) String() string {
	return subAttributeSet(s.Left, PrecAnd) + " AND " + subAttributeSet(s.Right, PrecSub)
}

// NestedAttributeSet is a parenthesized attribute set.
type NestedAttributeSet struct {
	Inner AttributeSet
}

func (s *NestedAttributeSet) node()             {}
func (s *NestedAttributeSet) attributeSetNode() {}
func (s *NestedAttributeSet) String() string    { return "(" + s.Inner.String() + ")" }

// ---------------------------------------------------------------------------
// Attribute constraints
// ---------------------------------------------------------------------------

// AttributeConstraint is '[card] R attribute comparison'. It is both a
// refinement and an attribute set member.
type AttributeConstraint struct {
	Cardinality *Cardinality
	Reversed    bool
	Attribute   Attribute
	Comparison  Comparison
}

func (a *AttributeConstraint) node()             {}
func (a *AttributeConstraint) refinementNode()   {}
func (a *AttributeConstraint) attributeSetNode() {}
func (a *AttributeConstraint) String() string {
	var out bytes.Buffer
	if a.Cardinality != nil {
		out.WriteString(a.Cardinality.String())
		out.WriteString(" ")
	}
	if a.Reversed {
		out.WriteString("R ")
	}
	out.WriteString(a.Attribute.String())
	out.WriteString(" ")
	out.WriteString(a.Comparison.String())
	return out.String()
}

// AttributeDescendantOf is an attribute written '< target'.
type AttributeDescendantOf struct {
	Target ConceptTarget
}

func (a *AttributeDescendantOf) node()          {}
func (a *AttributeDescendantOf) attributeNode() {}
func (a *AttributeDescendantOf) String() string { return "< " + a.Target.String() }

// AttributeDescendantOrSelfOf is an attribute written '<< target'.
type AttributeDescendantOrSelfOf struct {
	Target ConceptTarget
}

func (a *AttributeDescendantOrSelfOf) node()          {}
func (a *AttributeDescendantOrSelfOf) attributeNode() {}
func (a *AttributeDescendantOrSelfOf) String() string { return "<< " + a.Target.String() }

// Cardinality bounds how often a constraint or group must match.
type Cardinality struct {
	Min uint32
	Max Bound
}

func (c *Cardinality) String() string {
	return "[" + strconv.FormatUint(uint64(c.Min), 10) + ".." + c.Max.String() + "]"
}

// Bound is the upper end of a cardinality.
type Bound struct {
	Value     uint32
	Unbounded bool
}

// Fixed returns a bound of exactly n.
func Fixed(n uint32) Bound { return Bound{Value: n} }

// Unbounded returns the '*' bound.
func Unbounded() Bound { return Bound{Unbounded: true} }

func (b Bound) String() string {
	if b.Unbounded {
		return "*"
	}
	return strconv.FormatUint(uint64(b.Value), 10)
}

// ---------------------------------------------------------------------------
// Comparisons
// ---------------------------------------------------------------------------

// ValueEquals is '= value'.
type ValueEquals struct {
	Value SimpleExpression
}

func (c *ValueEquals) node()           {}
func (c *ValueEquals) comparisonNode() {}
func (c *ValueEquals) String() string  { return "= " + c.Value.String() }

// ValueNotEquals is '!= value'.
type ValueNotEquals struct {
	Value SimpleExpression
}

func (c *ValueNotEquals) node()           {}
func (c *ValueNotEquals) comparisonNode() {}
func (c *ValueNotEquals) String() string  { return "!= " + c.Value.String() }

// StringEquals is '= "text"'. Value is the decoded string.
type StringEquals struct {
	Value string
}

func (c *StringEquals) node()           {}
func (c *StringEquals) comparisonNode() {}
func (c *StringEquals) String() string  { return "= " + quote(c.Value) }

// StringNotEquals is '!= "text"'.
type StringNotEquals struct {
	Value string
}

func (c *StringNotEquals) node()           {}
func (c *StringNotEquals) comparisonNode() {}
func (c *StringNotEquals) String() string  { return "!= " + quote(c.Value) }

// Operator is the relational operator of a numeric comparison.
type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpLess
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
)

var operatorSymbols = [...]string{
	OpEquals:         "=",
	OpNotEquals:      "!=",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
}

func (op Operator) String() string {
	if op >= 0 && int(op) < len(operatorSymbols) {
		return operatorSymbols[op]
	}
	return "Operator(" + strconv.Itoa(int(op)) + ")"
}

// IntegerComparison is 'op #n'.
type IntegerComparison struct {
	Op    Operator
	Value int64
}

func (c *IntegerComparison) node()           {}
func (c *IntegerComparison) comparisonNode() {}
func (c *IntegerComparison) String() string {
	return c.Op.String() + " #" + strconv.FormatInt(c.Value, 10)
}

// DecimalComparison is 'op #d.d'. Value keeps the digits as written, minus
// any leading '+', so no precision is lost.
type DecimalComparison struct {
	Op    Operator
	Value string
}

func (c *DecimalComparison) node()           {}
func (c *DecimalComparison) comparisonNode() {}
func (c *DecimalComparison) String() string  { return c.Op.String() + " #" + c.Value }
