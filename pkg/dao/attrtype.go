package dao

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the closed set of attribute types a store can declare.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindEnum
)

// AttrType describes the declared type of a store attribute. Import and
// Export are symmetric: Import coerces a raw source value into its typed
// form, Export turns the typed form back into a raw value for persistence.
type AttrType struct {
	Kind Kind
	Enum []string // allowed values when Kind is KindEnum
}

// ParseAttrType parses a type declaration such as "string", "int" or
// "enum(draft|published|archived)".
func ParseAttrType(attr, decl string) (AttrType, error) {
	decl = strings.TrimSpace(decl)
	if open := strings.Index(decl, "("); open > 0 && strings.HasSuffix(decl, ")") {
		name := decl[:open]
		if name != "enum" {
			return AttrType{}, &UnsupportedAttributeTypeError{Attribute: attr, Type: decl}
		}
		values := strings.Split(decl[open+1:len(decl)-1], "|")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		return AttrType{Kind: KindEnum, Enum: values}, nil
	}

	switch decl {
	case "", "any", "json":
		return AttrType{Kind: KindAny}, nil
	case "string":
		return AttrType{Kind: KindString}, nil
	case "int":
		return AttrType{Kind: KindInt}, nil
	case "float":
		return AttrType{Kind: KindFloat}, nil
	case "bool":
		return AttrType{Kind: KindBool}, nil
	case "time":
		return AttrType{Kind: KindTime}, nil
	default:
		return AttrType{}, &UnsupportedAttributeTypeError{Attribute: attr, Type: decl}
	}
}

// Import coerces a raw value into the typed form. A CoercionError carries a
// fallback (the zero value of the target type) so the caller can continue.
func (t AttrType) Import(attr string, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}

	switch t.Kind {
	case KindAny:
		return raw, nil

	case KindString:
		switch v := raw.(type) {
		case string:
			return v, nil
		case float64, float32, int, int32, int64, bool:
			return fmt.Sprintf("%v", v), nil
		default:
			return nil, &CoercionError{Attribute: attr, Value: raw, Target: "string", Fallback: ""}
		}

	case KindInt:
		switch v := raw.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, nil
			}
		}
		return nil, &CoercionError{Attribute: attr, Value: raw, Target: "int", Fallback: int64(0)}

	case KindFloat:
		if f, ok := toFloat(raw); ok {
			return f, nil
		}
		return nil, &CoercionError{Attribute: attr, Value: raw, Target: "float", Fallback: float64(0)}

	case KindBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(v) {
			case "true", "1":
				return true, nil
			case "false", "0":
				return false, nil
			}
		case float64:
			if v == 0 || v == 1 {
				return v == 1, nil
			}
		}
		return nil, &CoercionError{Attribute: attr, Value: raw, Target: "bool", Fallback: false}

	case KindTime:
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case string:
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				return ts, nil
			}
		}
		return nil, &CoercionError{Attribute: attr, Value: raw, Target: "time", Fallback: time.Time{}}

	case KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, &InvalidEnumValueError{Attribute: attr, Value: raw, Allowed: t.Enum}
		}
		for _, allowed := range t.Enum {
			if s == allowed {
				return s, nil
			}
		}
		return nil, &InvalidEnumValueError{Attribute: attr, Value: raw, Allowed: t.Enum}

	default:
		return nil, &UnsupportedAttributeTypeError{Attribute: attr, Type: fmt.Sprintf("kind(%d)", t.Kind)}
	}
}

// Export turns a typed value back into its raw persisted form.
func (t AttrType) Export(attr string, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	switch t.Kind {
	case KindTime:
		if ts, ok := value.(time.Time); ok {
			return ts.Format(time.RFC3339), nil
		}
		// Already serialized, validate by importing.
		if _, err := t.Import(attr, value); err != nil {
			return nil, err
		}
		return value, nil
	default:
		// Import and Export share the same normalization for scalar kinds.
		return t.Import(attr, value)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
