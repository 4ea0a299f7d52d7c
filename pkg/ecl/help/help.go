// Package help provides topic-based documentation for ECL operators,
// grammar rules and error codes, accessible via CLI (`ecl describe`) and
// REPL (`:describe`).
package help

import (
	"fmt"
	"sort"
	"strings"

	eclerrors "github.com/sambeau/ecl/pkg/ecl/errors"
)

// TopicResult represents the help output for a topic
type TopicResult struct {
	Kind        string         `json:"kind"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Symbol      string         `json:"symbol,omitempty"`
	Category    string         `json:"category,omitempty"`
	Example     string         `json:"example,omitempty"`
	Aliases     []string       `json:"aliases,omitempty"`
	Production  string         `json:"production,omitempty"`
	Operators   []OperatorInfo `json:"operators,omitempty"`
	Rules       []RuleInfo     `json:"rules,omitempty"`
	Errors      []ErrorEntry   `json:"errors,omitempty"`
}

// ErrorEntry represents a catalog error for help output
type ErrorEntry struct {
	Code     string   `json:"code"`
	Class    string   `json:"class"`
	Kind     string   `json:"kind"`
	Template string   `json:"template"`
	Hints    []string `json:"hints,omitempty"`
}

// DescribeTopic returns help information for the given topic.
// Topics can be: special keywords (operators, grammar, errors), an operator
// symbol or name (<<, MINUS, descendantOf), a grammar rule (refinement) or
// an error code (PARSE-0004).
func DescribeTopic(topic string) (*TopicResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("no topic specified (try: operators, grammar, errors, <<, MINUS, refinement)")
	}

	switch strings.ToLower(topic) {
	case "operators":
		return describeOperators(), nil
	case "grammar":
		return describeGrammar(), nil
	case "errors":
		return describeErrors(), nil
	}

	if result := describeOperator(topic); result != nil {
		return result, nil
	}
	if result := describeRule(topic); result != nil {
		return result, nil
	}
	if result := describeError(topic); result != nil {
		return result, nil
	}

	return nil, unknownTopicError(topic)
}

// describeOperators returns a list of all operators grouped by category
func describeOperators() *TopicResult {
	operators := make([]OperatorInfo, 0, len(OperatorMetadata))
	for _, info := range OperatorMetadata {
		operators = append(operators, info)
	}

	// Sort by category, then by symbol
	sort.Slice(operators, func(i, j int) bool {
		if operators[i].Category != operators[j].Category {
			return operators[i].Category < operators[j].Category
		}
		return operators[i].Symbol < operators[j].Symbol
	})

	return &TopicResult{
		Kind:      "operator-list",
		Name:      "operators",
		Operators: operators,
	}
}

func describeGrammar() *TopicResult {
	rules := make([]RuleInfo, len(Grammar))
	copy(rules, Grammar)
	return &TopicResult{
		Kind:  "grammar",
		Name:  "grammar",
		Rules: rules,
	}
}

func describeErrors() *TopicResult {
	codes := make([]string, 0, len(eclerrors.ErrorCatalog))
	for code := range eclerrors.ErrorCatalog {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	entries := make([]ErrorEntry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, errorEntry(code))
	}
	return &TopicResult{
		Kind:   "error-list",
		Name:   "errors",
		Errors: entries,
	}
}

// lookupOperator finds an operator by symbol, alias or name. Keywords and
// names match case-insensitively.
func lookupOperator(topic string) (OperatorInfo, bool) {
	if info, ok := OperatorMetadata[topic]; ok {
		return info, true
	}
	if info, ok := OperatorMetadata[strings.ToUpper(topic)]; ok {
		return info, true
	}
	for _, info := range OperatorMetadata {
		if strings.EqualFold(info.Name, topic) || info.Symbol == topic {
			return info, true
		}
		for _, alias := range info.Aliases {
			if alias == topic {
				return info, true
			}
		}
	}
	return OperatorInfo{}, false
}

func describeOperator(topic string) *TopicResult {
	info, ok := lookupOperator(topic)
	if !ok {
		return nil
	}
	return &TopicResult{
		Kind:        "operator",
		Name:        info.Name,
		Symbol:      info.Symbol,
		Description: info.Description,
		Category:    info.Category,
		Example:     info.Example,
		Aliases:     info.Aliases,
	}
}

func describeRule(topic string) *TopicResult {
	for _, rule := range Grammar {
		if strings.EqualFold(rule.Name, topic) {
			return &TopicResult{
				Kind:        "rule",
				Name:        rule.Name,
				Production:  rule.Production,
				Description: rule.Description,
			}
		}
	}
	return nil
}

func describeError(topic string) *TopicResult {
	code := strings.ToUpper(topic)
	if _, ok := eclerrors.ErrorCatalog[code]; !ok {
		return nil
	}
	return &TopicResult{
		Kind:   "error",
		Name:   code,
		Errors: []ErrorEntry{errorEntry(code)},
	}
}

func errorEntry(code string) ErrorEntry {
	def := eclerrors.ErrorCatalog[code]
	return ErrorEntry{
		Code:     code,
		Class:    string(def.Class),
		Kind:     string(def.Kind),
		Template: def.Template,
		Hints:    def.Hints,
	}
}

// unknownTopicError generates a helpful error for unknown topics
func unknownTopicError(topic string) error {
	suggestions := findSuggestions(topic)

	if len(suggestions) > 0 {
		return fmt.Errorf("unknown topic: %s\nDid you mean: %s?", topic, strings.Join(suggestions, ", "))
	}

	return fmt.Errorf("unknown topic: %s\nTry: operators, grammar, errors, <<, MINUS, refinement, PARSE-0001", topic)
}

// findSuggestions finds topics similar to the given unknown topic
func findSuggestions(topic string) []string {
	topic = strings.ToLower(topic)
	var suggestions []string

	// Operator names
	names := make([]string, 0, len(OperatorMetadata))
	for _, info := range OperatorMetadata {
		names = append(names, info.Name)
	}
	sort.Strings(names)
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.Contains(lower, topic) || strings.Contains(topic, lower) {
			suggestions = append(suggestions, name)
		}
	}

	// Grammar rules
	for _, rule := range Grammar {
		lower := strings.ToLower(rule.Name)
		if strings.Contains(lower, topic) || strings.Contains(topic, lower) {
			suggestions = append(suggestions, rule.Name)
		}
	}

	// Limit to 3 suggestions
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}

	return suggestions
}
