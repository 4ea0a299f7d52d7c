package ast

// A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with the visitor w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order, children in source order.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	for _, child := range Children(node) {
		if child != nil {
			Walk(v, child)
		}
	}

	v.Visit(nil)
}

// Children returns the direct child nodes of node in source order.
func Children(node Node) []Node {
	switch n := node.(type) {
	case *OrExpression:
		return []Node{n.Left, n.Right}
	case *AndExpression:
		return []Node{n.Left, n.Right}
	case *Exclusion:
		return []Node{n.Left, n.Right}
	case *Refined:
		return []Node{n.Constraint, n.Refinement}
	case *Dotted:
		return []Node{n.Constraint, n.Attribute}
	case *ChildOf:
		return []Node{n.Focus}
	case *DescendantOf:
		return []Node{n.Focus}
	case *DescendantOrSelfOf:
		return []Node{n.Focus}
	case *ParentOf:
		return []Node{n.Focus}
	case *AncestorOf:
		return []Node{n.Focus}
	case *AncestorOrSelfOf:
		return []Node{n.Focus}
	case *MemberOf:
		return []Node{n.Target}
	case *NestedExpression:
		return []Node{n.Inner}
	case *OrRefinement:
		return []Node{n.Left, n.Right}
	case *AndRefinement:
		return []Node{n.Left, n.Right}
	case *AttributeGroup:
		return []Node{n.Members}
	case *NestedRefinement:
		return []Node{n.Inner}
	case *OrAttributeSet:
		return []Node{n.Left, n.Right}
	case *AndAttributeSet:
		return []Node{n.Left, n.Right}
	case *NestedAttributeSet:
		return []Node{n.Inner}
	case *AttributeConstraint:
		return []Node{n.Attribute, n.Comparison}
	case *AttributeDescendantOf:
		return []Node{n.Target}
	case *AttributeDescendantOrSelfOf:
		return []Node{n.Target}
	case *ValueEquals:
		return []Node{n.Value}
	case *ValueNotEquals:
		return []Node{n.Value}
	}
	return nil
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order: It starts by calling
// f(node); node must not be nil. If f returns true, Inspect invokes f
// recursively for each of the non-nil children of node, followed by a
// call of f(nil).
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// ConceptIDs returns every SNOMED CT identifier referenced by node, in
// order of first appearance.
func ConceptIDs(node Node) []string {
	var ids []string
	seen := make(map[string]bool)
	Inspect(node, func(n Node) bool {
		if c, ok := n.(*ConceptReference); ok && !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
		return true
	})
	return ids
}
