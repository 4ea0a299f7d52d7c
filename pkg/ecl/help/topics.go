package help

// OperatorInfo describes one ECL operator or punctuation mark.
type OperatorInfo struct {
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Example     string   `json:"example,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// RuleInfo is one production of the grammar.
type RuleInfo struct {
	Name        string `json:"name"`
	Production  string `json:"production"`
	Description string `json:"description,omitempty"`
}

// OperatorMetadata lists every operator the parser accepts, keyed by symbol.
var OperatorMetadata = map[string]OperatorInfo{
	"<": {
		Symbol: "<", Name: "descendantOf", Category: "hierarchy",
		Description: "descendants of the focus concept, excluding itself",
		Example:     "< 404684003 |Clinical finding|",
	},
	"<<": {
		Symbol: "<<", Name: "descendantOrSelfOf", Category: "hierarchy",
		Description: "the focus concept and all its descendants",
		Example:     "<< 73211009 |Diabetes mellitus|",
	},
	"<!": {
		Symbol: "<!", Name: "childOf", Category: "hierarchy",
		Description: "immediate children of the focus concept",
		Example:     "<! 404684003",
	},
	">": {
		Symbol: ">", Name: "ancestorOf", Category: "hierarchy",
		Description: "ancestors of the focus concept, excluding itself",
		Example:     "> 40541001 |Acute pulmonary edema|",
	},
	">>": {
		Symbol: ">>", Name: "ancestorOrSelfOf", Category: "hierarchy",
		Description: "the focus concept and all its ancestors",
		Example:     ">> 40541001",
	},
	">!": {
		Symbol: ">!", Name: "parentOf", Category: "hierarchy",
		Description: "immediate parents of the focus concept",
		Example:     ">! 40541001",
	},
	"^": {
		Symbol: "^", Name: "memberOf", Category: "membership",
		Description: "members of a reference set",
		Example:     "^ 700043003 |Example problem list concepts reference set|",
	},
	"*": {
		Symbol: "*", Name: "any", Category: "membership",
		Description: "any concept",
		Example:     "<< *",
	},
	"AND": {
		Symbol: "AND", Name: "conjunction", Category: "logical",
		Description: "concepts in both operands; ',' is a synonym inside refinements",
		Example:     "<< 19829001 AND << 301867009",
		Aliases:     []string{","},
	},
	"OR": {
		Symbol: "OR", Name: "disjunction", Category: "logical",
		Description: "concepts in either operand",
		Example:     "<< 19829001 OR << 301867009",
	},
	"MINUS": {
		Symbol: "MINUS", Name: "exclusion", Category: "logical",
		Description: "concepts in the left operand but not the right; cannot be chained without parentheses",
		Example:     "<< 19829001 MINUS << 301867009",
	},
	":": {
		Symbol: ":", Name: "refinement", Category: "refinement",
		Description: "restricts the constraint on its left by attribute values",
		Example:     "<< 404684003 : 363698007 = << 39057004",
	},
	".": {
		Symbol: ".", Name: "dotted", Category: "refinement",
		Description: "the values of an attribute for the concepts on its left",
		Example:     "< 91723000 . 272741003",
	},
	"{": {
		Symbol: "{ }", Name: "attributeGroup", Category: "refinement",
		Description: "attributes that must hold within one relationship group",
		Example:     "* : { 363698007 = *, 116676008 = * }",
		Aliases:     []string{"}", "{ }"},
	},
	"R": {
		Symbol: "R", Name: "reverse", Category: "refinement",
		Description: "reverses the attribute: matches concepts that are the value of the attribute",
		Example:     "* : R 363698007 = << 39057004",
	},
	"[": {
		Symbol: "[n..m]", Name: "cardinality", Category: "refinement",
		Description: "how many times an attribute or group may occur; '*' is unbounded",
		Example:     "* : [1..3] 363698007 = *",
		Aliases:     []string{"]", "[n..m]", ".."},
	},
	"=": {
		Symbol: "=", Name: "equals", Category: "comparison",
		Description: "attribute value is in the expression, or equals a string or #number",
		Example:     "* : 363698007 = << 39057004",
	},
	"!=": {
		Symbol: "!=", Name: "notEquals", Category: "comparison",
		Description: "attribute value is not in the expression, or differs from a string or #number",
		Example:     "* : 363698007 != << 39057004",
	},
	"<=": {
		Symbol: "<=", Name: "lessOrEqual", Category: "comparison",
		Description: "numeric attribute value at most #n",
		Example:     "* : 1142135004 <= #10",
	},
	">=": {
		Symbol: ">=", Name: "greaterOrEqual", Category: "comparison",
		Description: "numeric attribute value at least #n",
		Example:     "* : 1142135004 >= #2.5",
	},
	"#": {
		Symbol: "#", Name: "number", Category: "comparison",
		Description: "marks a concrete integer or decimal value; '<' and '>' after an attribute need it",
		Example:     "* : 1142135004 > #-5",
	},
	"|": {
		Symbol: "| |", Name: "term", Category: "lexical",
		Description: "descriptive term after a concept identifier, ignored for matching",
		Example:     "404684003 |Clinical finding|",
		Aliases:     []string{"| |"},
	},
	"( )": {
		Symbol: "( )", Name: "nesting", Category: "lexical",
		Description: "groups an expression, refinement or attribute set",
		Example:     "<< (404684003 OR 64572001)",
		Aliases:     []string{"(", ")"},
	},
	"//": {
		Symbol: "//", Name: "comment", Category: "lexical",
		Description: "comment to end of line; '/* */' spans lines. Not allowed inside a |term|",
		Example:     "<< 404684003 // findings",
		Aliases:     []string{"/*", "*/"},
	},
}

// Grammar lists the productions the parser implements, loosest first.
var Grammar = []RuleInfo{
	{"expressionConstraint", "or", "a complete expression"},
	{"or", "and ( OR and )*", "left-associative"},
	{"and", "exclusion ( AND exclusion )*", "',' is also accepted when comma conjunction is enabled"},
	{"exclusion", "refined ( MINUS refined )?", "at most one MINUS without parentheses"},
	{"refined", "dotted ( ':' refinement )?", ""},
	{"dotted", "simple ( '.' attribute )*", ""},
	{"simple", "hierarchyOperator? focusConcept", ""},
	{"focusConcept", "'^' conceptTarget | conceptReference | '*' | '(' expressionConstraint ')'", ""},
	{"conceptReference", "sctId ( '|' term '|' )?", ""},
	{"sctId", "digitNonZero digit{5,}", "at least 6 digits, no leading zero, no gaps"},
	{"refinement", "subRefinement ( ( AND | ',' | OR ) subRefinement )*", "AND binds tighter than OR"},
	{"subRefinement", "attributeConstraint | attributeGroup | '(' refinement ')'", ""},
	{"attributeGroup", "cardinality? '{' attributeSet '}'", ""},
	{"attributeSet", "subAttributeSet ( ( AND | ',' | OR ) subAttributeSet )*", ""},
	{"subAttributeSet", "attributeConstraint | '(' attributeSet ')'", ""},
	{"attributeConstraint", "cardinality? R? attribute comparison", ""},
	{"attribute", "( '<' | '<<' )? conceptTarget", ""},
	{"cardinality", "'[' integer '..' ( integer | '*' ) ']'", ""},
	{"comparison", "( '=' | '!=' ) ( simple | string | '#' number ) | ( '<' | '<=' | '>' | '>=' ) '#' number", ""},
}
