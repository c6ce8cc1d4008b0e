package query

// Expression is a boolean condition evaluated against a raw row.
type Expression interface {
	Evaluate(row map[string]interface{}) bool
}

// Comparison is a leaf condition: attribute path, operator, literal.
type Comparison struct {
	Field    string
	Operator string
	Value    interface{}
}

func (c *Comparison) Evaluate(row map[string]interface{}) bool {
	value, ok := lookupPath(row, c.Field)
	if !ok {
		// Missing attributes satisfy only an explicit "= NULL" check.
		return c.Operator == "=" && c.Value == nil
	}
	return c.matchValue(value)
}

func (c *Comparison) matchValue(value interface{}) bool {
	// Collection values match when any element matches.
	if slice, ok := value.([]interface{}); ok {
		for _, item := range slice {
			if c.matchValue(item) {
				return true
			}
		}
		return false
	}

	if c.Value == nil {
		switch c.Operator {
		case "=":
			return value == nil
		case "!=":
			return value != nil
		default:
			return false
		}
	}

	switch c.Operator {
	case "=":
		return compareEqual(value, c.Value)
	case "!=":
		return !compareEqual(value, c.Value)
	case ">":
		return compareGreater(value, c.Value)
	case ">=":
		return !compareLess(value, c.Value)
	case "<":
		return compareLess(value, c.Value)
	case "<=":
		return !compareGreater(value, c.Value)
	case "contains":
		return containsValue(value, c.Value)
	default:
		return false
	}
}

// AndExpression is a logical AND over its operands.
type AndExpression struct {
	Operands []Expression
}

func (a *AndExpression) Evaluate(row map[string]interface{}) bool {
	for _, op := range a.Operands {
		if !op.Evaluate(row) {
			return false
		}
	}
	return true
}

// OrExpression is a logical OR over its operands.
type OrExpression struct {
	Operands []Expression
}

func (o *OrExpression) Evaluate(row map[string]interface{}) bool {
	for _, op := range o.Operands {
		if op.Evaluate(row) {
			return true
		}
	}
	return len(o.Operands) == 0
}
