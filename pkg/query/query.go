package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Query describes a store lookup: a map of equality constraints, an
// optional parsed condition expression, and paging. The zero value matches
// every row.
type Query struct {
	Filter    map[string]interface{}
	Condition Expression
	LimitN    int // 0 means no limit
	OffsetN   int
}

// New creates an empty query.
func New() *Query {
	return &Query{Filter: map[string]interface{}{}}
}

// Eq adds an equality constraint, overwriting any previous value for the
// same attribute.
func (q *Query) Eq(attr string, value interface{}) *Query {
	q.Filter[attr] = value
	return q
}

// Where parses a condition string (e.g. "age >= 18 AND status = 'active'")
// and attaches it to the query.
func (q *Query) Where(condition string) (*Query, error) {
	expr, err := ParseCondition(condition)
	if err != nil {
		return nil, err
	}
	q.Condition = expr
	return q, nil
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.LimitN = n
	return q
}

// Offset skips the first n matching rows.
func (q *Query) Offset(n int) *Query {
	q.OffsetN = n
	return q
}

// DefaultFilter merges constraints into the query for every attribute not
// already constrained. Existing constraints win on key collision.
func (q *Query) DefaultFilter(defaults map[string]interface{}) *Query {
	for k, v := range defaults {
		if _, ok := q.Filter[k]; !ok {
			q.Filter[k] = v
		}
	}
	return q
}

// Clone returns an independent copy. The condition tree is immutable after
// parsing and is shared.
func (q *Query) Clone() *Query {
	c := &Query{
		Filter:    make(map[string]interface{}, len(q.Filter)),
		Condition: q.Condition,
		LimitN:    q.LimitN,
		OffsetN:   q.OffsetN,
	}
	for k, v := range q.Filter {
		c.Filter[k] = v
	}
	return c
}

// Match reports whether a raw row satisfies the filter map and the
// condition expression.
func (q *Query) Match(row map[string]interface{}) bool {
	for attr, want := range q.Filter {
		got, ok := lookupPath(row, attr)
		if !ok || !compareEqual(got, want) {
			return false
		}
	}
	if q.Condition != nil {
		return q.Condition.Evaluate(row)
	}
	return true
}

// lookupPath resolves a dot-separated attribute path against nested maps.
func lookupPath(row map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = row
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func compareEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
	}
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareGreater(a, b interface{}) bool {
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		return af > bf
	}
	return fmt.Sprintf("%v", a) > fmt.Sprintf("%v", b)
}

func compareLess(a, b interface{}) bool {
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

func containsValue(a, b interface{}) bool {
	aStr, ok := a.(string)
	if !ok {
		aStr = fmt.Sprintf("%v", a)
	}
	bStr, ok := b.(string)
	if !ok {
		bStr = fmt.Sprintf("%v", b)
	}
	return strings.Contains(aStr, bStr)
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
