package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sambeau/ecl/pkg/ecl/ast"
	eclerrors "github.com/sambeau/ecl/pkg/ecl/errors"
	"github.com/sambeau/ecl/pkg/ecl/lexer"
)

func ref(id string) *ast.ConceptReference { return &ast.ConceptReference{ID: id} }

func mustParse(t *testing.T, input string, opts ...Option) ast.ExpressionConstraint {
	t.Helper()
	expr, err := ParseString(input, opts...)
	if err != nil {
		t.Fatalf("ParseString(%q) error: %v", input, err)
	}
	return expr
}

func TestParseTrees(t *testing.T) {
	tests := []struct {
		input    string
		expected ast.ExpressionConstraint
	}{
		{"404684003", ref("404684003")},
		{"404684003 |Clinical finding|", &ast.ConceptReference{ID: "404684003", Term: "Clinical finding"}},
		{"404684003|  Clinical   finding  |", &ast.ConceptReference{ID: "404684003", Term: "Clinical   finding"}},
		{"<404684003", &ast.DescendantOf{Focus: ref("404684003")}},
		{"<<404684003", &ast.DescendantOrSelfOf{Focus: ref("404684003")}},
		{"<!404684003", &ast.ChildOf{Focus: ref("404684003")}},
		{">404684003", &ast.AncestorOf{Focus: ref("404684003")}},
		{">>404684003", &ast.AncestorOrSelfOf{Focus: ref("404684003")}},
		{">!404684003", &ast.ParentOf{Focus: ref("404684003")}},
		{"*", &ast.Any{}},
		{"<< *", &ast.DescendantOrSelfOf{Focus: &ast.Any{}}},
		{"^ 700043003", &ast.MemberOf{Target: ref("700043003")}},
		{"^*", &ast.MemberOf{Target: &ast.Any{}}},
		{"< ^ 700043003", &ast.DescendantOf{Focus: &ast.MemberOf{Target: ref("700043003")}}},
		{"<< (404684003 OR 64572001)", &ast.DescendantOrSelfOf{Focus: &ast.NestedExpression{
			Inner: &ast.OrExpression{Left: ref("404684003"), Right: ref("64572001")},
		}}},
		{"404684003 MINUS 64572001", &ast.Exclusion{Left: ref("404684003"), Right: ref("64572001")}},
		{"404684003 OR 64572001 OR 19829001", &ast.OrExpression{
			Left:  &ast.OrExpression{Left: ref("404684003"), Right: ref("64572001")},
			Right: ref("19829001"),
		}},
		{"404684003 AND 64572001 AND 19829001", &ast.AndExpression{
			Left:  &ast.AndExpression{Left: ref("404684003"), Right: ref("64572001")},
			Right: ref("19829001"),
		}},
		{"404684003 OR 64572001 AND 19829001", &ast.OrExpression{
			Left:  ref("404684003"),
			Right: &ast.AndExpression{Left: ref("64572001"), Right: ref("19829001")},
		}},
		{"404684003 AND 64572001 MINUS 19829001", &ast.AndExpression{
			Left:  ref("404684003"),
			Right: &ast.Exclusion{Left: ref("64572001"), Right: ref("19829001")},
		}},
		{"*: [1..1] 116680003 = <<64572001", &ast.Refined{
			Constraint: &ast.Any{},
			Refinement: &ast.AttributeConstraint{
				Cardinality: &ast.Cardinality{Min: 1, Max: ast.Fixed(1)},
				Attribute:   ref("116680003"),
				Comparison:  &ast.ValueEquals{Value: &ast.DescendantOrSelfOf{Focus: ref("64572001")}},
			},
		}},
		{"404684003: [0..*] 116680003 = *", &ast.Refined{
			Constraint: ref("404684003"),
			Refinement: &ast.AttributeConstraint{
				Cardinality: &ast.Cardinality{Min: 0, Max: ast.Unbounded()},
				Attribute:   ref("116680003"),
				Comparison:  &ast.ValueEquals{Value: &ast.Any{}},
			},
		}},
		{"< 404684003 . 363698007", &ast.Dotted{
			Constraint: &ast.DescendantOf{Focus: ref("404684003")},
			Attribute:  ref("363698007"),
		}},
		{"404684003 . < 363698007 . << *", &ast.Dotted{
			Constraint: &ast.Dotted{
				Constraint: ref("404684003"),
				Attribute:  &ast.AttributeDescendantOf{Target: ref("363698007")},
			},
			Attribute: &ast.AttributeDescendantOrSelfOf{Target: &ast.Any{}},
		}},
		{"< 404684003 : R 363698007 != << 39057004", &ast.Refined{
			Constraint: &ast.DescendantOf{Focus: ref("404684003")},
			Refinement: &ast.AttributeConstraint{
				Reversed:   true,
				Attribute:  ref("363698007"),
				Comparison: &ast.ValueNotEquals{Value: &ast.DescendantOrSelfOf{Focus: ref("39057004")}},
			},
		}},
		{"* : [1..3] { 363698007 = *, << 116676008 = 79654002 }", &ast.Refined{
			Constraint: &ast.Any{},
			Refinement: &ast.AttributeGroup{
				Cardinality: &ast.Cardinality{Min: 1, Max: ast.Fixed(3)},
				Members: &ast.AndAttributeSet{
					Left: &ast.AttributeConstraint{Attribute: ref("363698007"), Comparison: &ast.ValueEquals{Value: &ast.Any{}}},
					Right: &ast.AttributeConstraint{
						Attribute:  &ast.AttributeDescendantOrSelfOf{Target: ref("116676008")},
						Comparison: &ast.ValueEquals{Value: ref("79654002")},
					},
				},
			},
		}},
		{"* : { [0..1] 363698007 = * OR (116676008 = * AND 246075003 = *) }", &ast.Refined{
			Constraint: &ast.Any{},
			Refinement: &ast.AttributeGroup{
				Members: &ast.OrAttributeSet{
					Left: &ast.AttributeConstraint{
						Cardinality: &ast.Cardinality{Min: 0, Max: ast.Fixed(1)},
						Attribute:   ref("363698007"),
						Comparison:  &ast.ValueEquals{Value: &ast.Any{}},
					},
					Right: &ast.NestedAttributeSet{Inner: &ast.AndAttributeSet{
						Left:  &ast.AttributeConstraint{Attribute: ref("116676008"), Comparison: &ast.ValueEquals{Value: &ast.Any{}}},
						Right: &ast.AttributeConstraint{Attribute: ref("246075003"), Comparison: &ast.ValueEquals{Value: &ast.Any{}}},
					}},
				},
			},
		}},
		{"* : (363698007 = * OR 116676008 = *) AND { 246075003 = * }", &ast.Refined{
			Constraint: &ast.Any{},
			Refinement: &ast.AndRefinement{
				Left: &ast.NestedRefinement{Inner: &ast.OrRefinement{
					Left:  &ast.AttributeConstraint{Attribute: ref("363698007"), Comparison: &ast.ValueEquals{Value: &ast.Any{}}},
					Right: &ast.AttributeConstraint{Attribute: ref("116676008"), Comparison: &ast.ValueEquals{Value: &ast.Any{}}},
				}},
				Right: &ast.AttributeGroup{Members: &ast.AttributeConstraint{Attribute: ref("246075003"), Comparison: &ast.ValueEquals{Value: &ast.Any{}}}},
			},
		}},
		{`* : 363698007 = "lung", 116676008 != 'it\'s'`, &ast.Refined{
			Constraint: &ast.Any{},
			Refinement: &ast.AndRefinement{
				Left:  &ast.AttributeConstraint{Attribute: ref("363698007"), Comparison: &ast.StringEquals{Value: "lung"}},
				Right: &ast.AttributeConstraint{Attribute: ref("116676008"), Comparison: &ast.StringNotEquals{Value: "it's"}},
			},
		}},
		{"(404684003 : 363698007 = *) AND 64572001", &ast.AndExpression{
			Left: &ast.NestedExpression{Inner: &ast.Refined{
				Constraint: ref("404684003"),
				Refinement: &ast.AttributeConstraint{Attribute: ref("363698007"), Comparison: &ast.ValueEquals{Value: &ast.Any{}}},
			}},
			Right: ref("64572001"),
		}},
		{"404684003 : 363698007 = * MINUS 64572001", &ast.Exclusion{
			Left: &ast.Refined{
				Constraint: ref("404684003"),
				Refinement: &ast.AttributeConstraint{Attribute: ref("363698007"), Comparison: &ast.ValueEquals{Value: &ast.Any{}}},
			},
			Right: ref("64572001"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := mustParse(t, tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("ParseString(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestDataTypeComparisons(t *testing.T) {
	tests := []struct {
		input    string
		expected ast.Comparison
	}{
		{"* : 1142135004 = #250", &ast.IntegerComparison{Op: ast.OpEquals, Value: 250}},
		{"* : 1142135004 != #0", &ast.IntegerComparison{Op: ast.OpNotEquals, Value: 0}},
		{"* : 1142135004 > #-5", &ast.IntegerComparison{Op: ast.OpGreater, Value: -5}},
		{"* : 1142135004 < #+5", &ast.IntegerComparison{Op: ast.OpLess, Value: 5}},
		{"* : 1142135004 >= # 10", &ast.IntegerComparison{Op: ast.OpGreaterOrEqual, Value: 10}},
		{"* : 1142135004 <= #10", &ast.IntegerComparison{Op: ast.OpLessOrEqual, Value: 10}},
		{"* : 1142135004 = #2.50", &ast.DecimalComparison{Op: ast.OpEquals, Value: "2.50"}},
		{"* : 1142135004 >= #-0.5", &ast.DecimalComparison{Op: ast.OpGreaterOrEqual, Value: "-0.5"}},
		{"* : 1142135004 < #+10.25", &ast.DecimalComparison{Op: ast.OpLess, Value: "10.25"}},
		{"* : 1142135004 = #3.", &ast.DecimalComparison{Op: ast.OpEquals, Value: "3."}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr := mustParse(t, tt.input)
			refined, ok := expr.(*ast.Refined)
			if !ok {
				t.Fatalf("got %T, want *ast.Refined", expr)
			}
			constraint, ok := refined.Refinement.(*ast.AttributeConstraint)
			if !ok {
				t.Fatalf("refinement is %T, want *ast.AttributeConstraint", refined.Refinement)
			}
			if diff := cmp.Diff(tt.expected, constraint.Comparison); diff != "" {
				t.Errorf("comparison mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommaConjunction(t *testing.T) {
	withComma := mustParse(t, "404684003 AND 19829001 : 363698007 = *, 116676008 = *")
	withAnd := mustParse(t, "404684003 AND 19829001 : 363698007 = * AND 116676008 = *")
	if diff := cmp.Diff(withAnd, withComma); diff != "" {
		t.Errorf("comma and AND refinements differ (-and +comma):\n%s", diff)
	}

	_, err := ParseString("404684003, 19829001")
	if err == nil {
		t.Fatal("top-level comma should be an error")
	}
	var ee *eclerrors.EclError
	if !errors.As(err, &ee) || ee.Code != "PARSE-0005" || ee.Offset != 9 {
		t.Errorf("got %#v, want PARSE-0005 at offset 9", err)
	}

	_, err = ParseString("(404684003, 19829001)")
	if err == nil {
		t.Error("comma inside nested expression should be an error")
	}

	got := mustParse(t, "404684003, 19829001", WithCommaConjunction(true))
	want := &ast.AndExpression{Left: ref("404684003"), Right: ref("19829001")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WithCommaConjunction mismatch (-want +got):\n%s", diff)
	}
}

func TestHiddenTokensIgnored(t *testing.T) {
	input := "/* findings */ << 404684003 |Clinical finding| // all of them\n MINUS 64572001"
	tokens, err := lexer.TokenizeAll(input)
	if err != nil {
		t.Fatalf("TokenizeAll error: %v", err)
	}
	got, err := Parse(tokens)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := &ast.Exclusion{
		Left:  &ast.DescendantOrSelfOf{Focus: &ast.ConceptReference{ID: "404684003", Term: "Clinical finding"}},
		Right: ref("64572001"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   eclerrors.Kind
		code   string
		offset int
	}{
		{"short identifier", "12345", eclerrors.InvalidIdentifier, "ID-0001", 0},
		{"leading zero identifier", "0123456", eclerrors.InvalidIdentifier, "ID-0002", 0},
		{"identifier split by space", "404 684003", eclerrors.InvalidIdentifier, "ID-0001", 0},
		{"identifier split by comment", "404684/**/003", eclerrors.UnexpectedToken, "PARSE-0003", 10},
		{"chained minus", "404684003 MINUS 64572001 MINUS 19829001", eclerrors.UnexpectedToken, "PARSE-0004", 25},
		{"trailing token", "404684003 )", eclerrors.UnexpectedToken, "PARSE-0003", 10},
		{"empty input", "", eclerrors.UnexpectedEndOfInput, "PARSE-0002", 0},
		{"missing operand", "404684003 OR", eclerrors.UnexpectedEndOfInput, "PARSE-0002", 12},
		{"unclosed paren", "(404684003", eclerrors.UnexpectedEndOfInput, "PARSE-0002", 10},
		{"unclosed group", "* : { 363698007 = *", eclerrors.UnexpectedEndOfInput, "PARSE-0002", 19},
		{"missing comparison", "* : 363698007", eclerrors.UnexpectedEndOfInput, "PARSE-0002", 13},
		{"bad comparison", "* : 363698007 : *", eclerrors.UnexpectedToken, "PARSE-0001", 14},
		{"relational needs hash", "* : 363698007 < 64572001", eclerrors.UnexpectedToken, "PARSE-0001", 16},
		{"or after refinement", "404684003 : 363698007 = 64572001 OR 19829001", eclerrors.UnexpectedEndOfInput, "PARSE-0002", 44},
		{"hierarchy operator on attribute value refinement", "* : 363698007 = << 64572001 : *", eclerrors.UnexpectedToken, "PARSE-0003", 28},
		{"empty term", "404684003 ||", eclerrors.UnexpectedToken, "PARSE-0006", 11},
		{"cardinality overflow", "* : [0..4294967296] 363698007 = *", eclerrors.ValueOutOfRange, "VALUE-0001", 8},
		{"cardinality leading zero", "* : [01..2] 363698007 = *", eclerrors.UnexpectedToken, "VALUE-0002", 5},
		{"integer overflow", "* : 363698007 = #99999999999999999999", eclerrors.ValueOutOfRange, "VALUE-0001", 17},
		{"spaced sign", "* : 363698007 = #- 5", eclerrors.UnexpectedToken, "PARSE-0001", 19},
		{"lex error passes through", "404684003 \"open", eclerrors.UnterminatedLiteral, "LEX-0002", 10},
		{"nested hierarchy needs parens", "<< < 404684003", eclerrors.UnexpectedToken, "PARSE-0001", 3},
		{"letters are not concepts", "abc", eclerrors.UnexpectedToken, "PARSE-0001", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseString(tt.input)
			if err == nil {
				t.Fatalf("ParseString(%q) = %v, want error", tt.input, expr)
			}
			if expr != nil {
				t.Errorf("partial tree returned with error: %v", expr)
			}
			var ee *eclerrors.EclError
			if !errors.As(err, &ee) {
				t.Fatalf("error %T is not *EclError", err)
			}
			if ee.Kind != tt.kind || ee.Code != tt.code {
				t.Errorf("got %s/%s (%s), want %s/%s", ee.Kind, ee.Code, ee.Message, tt.kind, tt.code)
			}
			if ee.Offset != tt.offset {
				t.Errorf("offset = %d, want %d (%s)", ee.Offset, tt.offset, ee.Message)
			}
		})
	}
}

func TestErrorsIsKind(t *testing.T) {
	_, err := ParseString("12345")
	if !errors.Is(err, eclerrors.ErrInvalidIdentifier) {
		t.Errorf("errors.Is(%v, ErrInvalidIdentifier) = false", err)
	}
	if errors.Is(err, eclerrors.ErrUnexpectedToken) {
		t.Errorf("errors.Is(%v, ErrUnexpectedToken) = true", err)
	}
}

func TestIdentifierErrorClass(t *testing.T) {
	for _, input := range []string{"12345", "0123456", "< 404684003 : 12345 = *"} {
		_, err := ParseString(input)
		var ee *eclerrors.EclError
		if !errors.As(err, &ee) {
			t.Fatalf("ParseString(%q) error %v is not *EclError", input, err)
		}
		if ee.Kind != eclerrors.InvalidIdentifier {
			t.Errorf("%q: kind = %s, want InvalidIdentifier", input, ee.Kind)
		}
		if !ee.IsParseError() || ee.IsLexError() {
			t.Errorf("%q: class = %s, want parse", input, ee.Class)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"12345", "line 1, column 1: invalid SNOMED CT identifier '12345': must have at least 6 digits"},
		{"404684003 OR", "line 1, column 13: unexpected end of input, expected concept reference, '*', '^' or '('"},
		{"(404684003 ]", "line 1, column 12: expected ')', got ']'"},
	}
	for _, tt := range tests {
		_, err := ParseString(tt.input)
		if err == nil {
			t.Fatalf("ParseString(%q) expected error", tt.input)
		}
		if got := strings.SplitN(err.Error(), "\n", 2)[0]; got != tt.want {
			t.Errorf("ParseString(%q) error = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMaxDepth(t *testing.T) {
	deep := strings.Repeat("(", 10) + "404684003" + strings.Repeat(")", 10)

	if _, err := ParseString(deep, WithMaxDepth(10)); err != nil {
		t.Fatalf("depth 10 with limit 10: %v", err)
	}

	_, err := ParseString(deep, WithMaxDepth(9))
	if !errors.Is(err, eclerrors.ErrLimitExceeded) {
		t.Fatalf("depth 10 with limit 9: got %v, want LimitExceeded", err)
	}
	var ee *eclerrors.EclError
	errors.As(err, &ee)
	if ee.Offset != 9 {
		t.Errorf("offset = %d, want 9", ee.Offset)
	}

	groups := "* : { 363698007 = (" + strings.Repeat("(", 300) + "404684003" + strings.Repeat(")", 301) + " }"
	if _, err := ParseString(groups); !errors.Is(err, eclerrors.ErrLimitExceeded) {
		t.Errorf("default depth: got %v, want LimitExceeded", err)
	}
	if _, err := ParseString(groups, WithMaxDepth(0)); err != nil {
		t.Errorf("unlimited depth: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"404684003",
		"404684003 |Clinical finding|",
		"<404684003",
		"<<404684003 |Clinical  finding|",
		"<!404684003",
		">404684003 OR >>64572001 OR >!19829001",
		"404684003 MINUS 64572001",
		"^ 700043003 AND << 404684003",
		"(404684003 OR 64572001) AND 19829001",
		"404684003 OR (64572001 OR 19829001)",
		"(404684003 MINUS 64572001) MINUS 19829001",
		"*: [1..1] 116680003 = <<64572001",
		"404684003: [0..*] 116680003 = *",
		"< 404684003 . < 363698007 . 116680003",
		"(< 404684003 : 363698007 = *) . 116680003",
		"<< 404684003: [1..3] R 363698007 != <<39057004, { 116676008 = *, 246075003 = (* MINUS 64572001) }",
		"* : [0..1] { 363698007 = * OR (116676008 = * AND 246075003 = *) } OR (246075003 = 64572001)",
		`* : 363698007 = "a \"quoted\" value", 1142135004 >= #-3, 1142135004 < #2.50`,
		"(404684003 : 363698007 = *) AND 64572001",
		"404684003 : 363698007 = * MINUS 64572001",
		"<< (^ 700043003 OR *)",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := mustParse(t, input)
			rendered := first.String()
			second, err := ParseString(rendered)
			if err != nil {
				t.Fatalf("re-parse of %q failed: %v", rendered, err)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("round trip via %q changed the tree (-first +second):\n%s", rendered, diff)
			}
			if again := second.String(); again != rendered {
				t.Errorf("render not stable: %q then %q", rendered, again)
			}
		})
	}
}

func TestParseTokensWithoutEOF(t *testing.T) {
	tokens, err := lexer.Tokenize("<< 404684003")
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(tokens[:len(tokens)-1])
	if err != nil {
		t.Fatalf("Parse without EOF: %v", err)
	}
	if diff := cmp.Diff(&ast.DescendantOrSelfOf{Focus: ref("404684003")}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	_, err = Parse(tokens[:1])
	var ee *eclerrors.EclError
	if !errors.As(err, &ee) || ee.Kind != eclerrors.UnexpectedEndOfInput || ee.Offset != 2 {
		t.Errorf("got %v, want UnexpectedEndOfInput at offset 2", err)
	}
}
