package help

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// FormatText formats a TopicResult for terminal output with the given width
func FormatText(result *TopicResult, width int) string {
	if width <= 0 {
		width = 80
	}

	var sb strings.Builder

	switch result.Kind {
	case "operator":
		formatOperatorText(&sb, result)
	case "operator-list":
		formatOperatorListText(&sb, result)
	case "rule":
		formatRuleText(&sb, result)
	case "grammar":
		formatGrammarText(&sb, result, width)
	case "error":
		formatErrorText(&sb, result)
	case "error-list":
		formatErrorListText(&sb, result, width)
	default:
		sb.WriteString(fmt.Sprintf("Unknown result kind: %s\n", result.Kind))
	}

	return sb.String()
}

// FormatJSON formats a TopicResult as JSON
func FormatJSON(result *TopicResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

func formatOperatorText(sb *strings.Builder, result *TopicResult) {
	fmt.Fprintf(sb, "Operator: %s (%s)\n", result.Symbol, result.Name)
	fmt.Fprintf(sb, "Category: %s\n", result.Category)
	if result.Description != "" {
		fmt.Fprintf(sb, "\n%s\n", result.Description)
	}
	if result.Example != "" {
		fmt.Fprintf(sb, "\nExample:\n  %s\n", result.Example)
	}
}

// formatOperatorListText formats the operators list output
func formatOperatorListText(sb *strings.Builder, result *TopicResult) {
	sb.WriteString("Operators\n")
	sb.WriteString("=========\n\n")

	byCategory := make(map[string][]OperatorInfo)
	for _, op := range result.Operators {
		byCategory[op.Category] = append(byCategory[op.Category], op)
	}

	categoryOrder := []string{
		"hierarchy",
		"membership",
		"logical",
		"refinement",
		"comparison",
		"lexical",
	}

	categoryNames := map[string]string{
		"hierarchy":  "Hierarchy",
		"membership": "Membership",
		"logical":    "Logical",
		"refinement": "Refinement",
		"comparison": "Comparison",
		"lexical":    "Lexical",
	}

	writeCategory := func(name string, ops []OperatorInfo) {
		fmt.Fprintf(sb, "%s:\n", name)

		maxLen := 6
		for _, op := range ops {
			maxLen = max(maxLen, len(op.Symbol))
		}
		for _, op := range ops {
			padding := strings.Repeat(" ", maxLen-len(op.Symbol)+2)
			fmt.Fprintf(sb, "  %s%s%s\n", op.Symbol, padding, op.Description)
		}
		sb.WriteString("\n")
	}

	for _, cat := range categoryOrder {
		if ops := byCategory[cat]; len(ops) > 0 {
			writeCategory(categoryNames[cat], ops)
		}
	}

	// Any categories not in the predefined order
	var rest []string
	for cat := range byCategory {
		if !slices.Contains(categoryOrder, cat) {
			rest = append(rest, cat)
		}
	}
	slices.Sort(rest)
	for _, cat := range rest {
		writeCategory(strings.ToUpper(cat[:1])+cat[1:], byCategory[cat])
	}
}

func formatRuleText(sb *strings.Builder, result *TopicResult) {
	fmt.Fprintf(sb, "Rule: %s\n\n", result.Name)
	fmt.Fprintf(sb, "  %s = %s\n", result.Name, result.Production)
	if result.Description != "" {
		fmt.Fprintf(sb, "\n%s\n", result.Description)
	}
}

// formatGrammarText aligns productions on '=' and wraps long ones under
// their first column.
func formatGrammarText(sb *strings.Builder, result *TopicResult, width int) {
	sb.WriteString("Grammar\n")
	sb.WriteString("=======\n\n")

	maxLen := 0
	for _, r := range result.Rules {
		maxLen = max(maxLen, len(r.Name))
	}

	for _, r := range result.Rules {
		prefix := fmt.Sprintf("  %s%s = ", r.Name, strings.Repeat(" ", maxLen-len(r.Name)))
		writeWrapped(sb, prefix, r.Production, width)
	}
}

func formatErrorText(sb *strings.Builder, result *TopicResult) {
	for _, e := range result.Errors {
		fmt.Fprintf(sb, "Error: %s\n", e.Code)
		fmt.Fprintf(sb, "Class: %s\n", e.Class)
		fmt.Fprintf(sb, "Kind:  %s\n", e.Kind)
		fmt.Fprintf(sb, "\n%s\n", e.Template)
		for _, h := range e.Hints {
			fmt.Fprintf(sb, "  Hint: %s\n", h)
		}
	}
}

func formatErrorListText(sb *strings.Builder, result *TopicResult, width int) {
	sb.WriteString("Errors\n")
	sb.WriteString("======\n\n")
	for _, e := range result.Errors {
		prefix := fmt.Sprintf("  %-10s  %-20s  ", e.Code, e.Kind)
		writeWrapped(sb, prefix, e.Template, width)
	}
}

// writeWrapped writes prefix then text, breaking text at spaces so lines
// stay within width. Continuation lines are indented to the prefix.
func writeWrapped(sb *strings.Builder, prefix, text string, width int) {
	indent := strings.Repeat(" ", len(prefix))
	avail := max(width-len(prefix), 20)

	sb.WriteString(prefix)
	lineLen := 0
	for i, word := range strings.Fields(text) {
		if i > 0 {
			if lineLen+1+len(word) > avail {
				sb.WriteString("\n")
				sb.WriteString(indent)
				lineLen = 0
			} else {
				sb.WriteString(" ")
				lineLen++
			}
		}
		sb.WriteString(word)
		lineLen += len(word)
	}
	sb.WriteString("\n")
}
