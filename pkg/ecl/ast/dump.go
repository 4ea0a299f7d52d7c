package ast

import (
	"fmt"
	"strings"
)

// Dump returns an indented outline of the tree, one node per line.
func Dump(node Node) string {
	var sb strings.Builder
	dump(&sb, node, 0)
	return sb.String()
}

func dump(sb *strings.Builder, node Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(label(node))
	sb.WriteByte('\n')
	for _, child := range Children(node) {
		if child != nil {
			dump(sb, child, depth+1)
		}
	}
}

// label names a node and its leaf payload.
func label(node Node) string {
	switch n := node.(type) {
	case *ConceptReference:
		if n.Term != "" {
			return fmt.Sprintf("ConceptReference %s %q", n.ID, n.Term)
		}
		return "ConceptReference " + n.ID
	case *AttributeGroup:
		if n.Cardinality != nil {
			return "AttributeGroup " + n.Cardinality.String()
		}
	case *AttributeConstraint:
		var parts []string
		parts = append(parts, "AttributeConstraint")
		if n.Cardinality != nil {
			parts = append(parts, n.Cardinality.String())
		}
		if n.Reversed {
			parts = append(parts, "reversed")
		}
		return strings.Join(parts, " ")
	case *StringEquals:
		return fmt.Sprintf("StringEquals %q", n.Value)
	case *StringNotEquals:
		return fmt.Sprintf("StringNotEquals %q", n.Value)
	case *IntegerComparison:
		return fmt.Sprintf("IntegerComparison %s %d", n.Op, n.Value)
	case *DecimalComparison:
		return fmt.Sprintf("DecimalComparison %s %s", n.Op, n.Value)
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", node), "*ast.")
}
