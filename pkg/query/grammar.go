package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Condition grammar: comparisons over dotted attribute paths combined with
// AND/OR and parentheses. AND binds tighter than OR.

type astCondition struct {
	Or []*astAnd `parser:"@@ ('OR' @@)*"`
}

type astAnd struct {
	Terms []*astTerm `parser:"@@ ('AND' @@)*"`
}

type astTerm struct {
	Grouped    *astCondition  `parser:"  '(' @@ ')'"`
	Comparison *astComparison `parser:"| @@"`
}

type astComparison struct {
	Parts []string    `parser:"@Ident ('.' @Ident)*"`
	Op    string      `parser:"@('>=' | '<=' | '!=' | '~=' | '=' | '>' | '<' | 'CONTAINS')"`
	Value *astLiteral `parser:"@@"`
}

type astLiteral struct {
	Number *float64 `parser:"  @Number"`
	Str    *string  `parser:"| @String"`
	True   bool     `parser:"| @'TRUE'"`
	False  bool     `parser:"| @'FALSE'"`
	Null   bool     `parser:"| @'NULL'"`
}

var (
	condLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Keyword", Pattern: `(?i)\b(AND|OR|TRUE|FALSE|NULL|CONTAINS)\b`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Number", Pattern: `[-+]?\d*\.?\d+`},
		{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
		{Name: "Operator", Pattern: `>=|<=|!=|~=|[=<>]`},
		{Name: "Punct", Pattern: `[.()]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	condParser = participle.MustBuild[astCondition](
		participle.Lexer(condLexer),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
		participle.Elide("Whitespace"),
	)
)

// ParseCondition parses a condition string into an Expression tree.
func ParseCondition(input string) (Expression, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty condition")
	}

	ast, err := condParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return ast.toExpression(), nil
}

func (c *astCondition) toExpression() Expression {
	operands := make([]Expression, len(c.Or))
	for i, a := range c.Or {
		operands[i] = a.toExpression()
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return &OrExpression{Operands: operands}
}

func (a *astAnd) toExpression() Expression {
	operands := make([]Expression, len(a.Terms))
	for i, t := range a.Terms {
		operands[i] = t.toExpression()
	}
	if len(operands) == 1 {
		return operands[0]
	}
	return &AndExpression{Operands: operands}
}

func (t *astTerm) toExpression() Expression {
	if t.Grouped != nil {
		return t.Grouped.toExpression()
	}
	return t.Comparison.toExpression()
}

func (c *astComparison) toExpression() Expression {
	op := strings.ToLower(c.Op)
	if op == "~=" || op == "contains" {
		op = "contains"
	}
	return &Comparison{
		Field:    strings.Join(c.Parts, "."),
		Operator: op,
		Value:    c.Value.value(),
	}
}

func (l *astLiteral) value() interface{} {
	switch {
	case l.Number != nil:
		return *l.Number
	case l.Str != nil:
		return *l.Str
	case l.True:
		return true
	case l.False:
		return false
	default:
		return nil
	}
}
