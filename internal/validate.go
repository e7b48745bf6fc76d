package internal

import (
	"fmt"
	"math"
	"strconv"
)

/* ===================== REQUEST VALIDATOR ===================== */

type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindBool
	KindStringList
	KindIntList
)

type Rule struct {
	Kind      FieldKind
	Required  bool
	AllowNull bool // explicit null clears the field on partial updates
	MinLen    int  // strings: min length, lists: min entries
	MaxLen    int
	Min       *int
	Max       *int
	Enum      []string
}

type Shape map[string]Rule

type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func intp(v int) *int { return &v }

// Validate narrows body against the shape. Absent fields stay absent (partial
// update semantics); fields present as null pass through as nil only when the
// rule allows it. Numeric strings destined for int fields are parsed, never
// stored raw.
func (s Shape) Validate(body map[string]any) (map[string]any, []Violation) {
	out := map[string]any{}
	var violations []Violation

	for field := range body {
		if _, ok := s[field]; !ok {
			violations = append(violations, Violation{field, "unknown field"})
		}
	}

	for field, rule := range s {
		raw, present := body[field]
		if !present {
			if rule.Required {
				violations = append(violations, Violation{field, "required"})
			}
			continue
		}
		if raw == nil {
			if rule.Required || !rule.AllowNull {
				violations = append(violations, Violation{field, "must not be null"})
				continue
			}
			out[field] = nil
			continue
		}

		val, reason := coerce(raw, rule)
		if reason != "" {
			violations = append(violations, Violation{field, reason})
			continue
		}
		out[field] = val
	}

	return out, violations
}

func coerce(raw any, rule Rule) (any, string) {
	switch rule.Kind {
	case KindString:
		str, ok := raw.(string)
		if !ok {
			return nil, "must be a string"
		}
		if len(str) < rule.MinLen {
			return nil, fmt.Sprintf("must be at least %d characters", rule.MinLen)
		}
		if rule.MaxLen > 0 && len(str) > rule.MaxLen {
			return nil, fmt.Sprintf("must be at most %d characters", rule.MaxLen)
		}
		if len(rule.Enum) > 0 && !enumHas(rule.Enum, str) {
			return nil, "not an allowed value"
		}
		return str, ""

	case KindInt:
		n, ok := asInt(raw)
		if !ok {
			return nil, "must be an integer"
		}
		if rule.Min != nil && n < *rule.Min {
			return nil, fmt.Sprintf("must be >= %d", *rule.Min)
		}
		if rule.Max != nil && n > *rule.Max {
			return nil, fmt.Sprintf("must be <= %d", *rule.Max)
		}
		return n, ""

	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, "must be a boolean"
		}
		return b, ""

	case KindStringList:
		items, ok := raw.([]any)
		if !ok {
			return nil, "must be a list of strings"
		}
		list := make([]string, 0, len(items))
		for _, it := range items {
			str, ok := it.(string)
			if !ok || str == "" {
				return nil, "must be a list of non-empty strings"
			}
			list = append(list, str)
		}
		if len(list) < rule.MinLen {
			return nil, fmt.Sprintf("must have at least %d entries", rule.MinLen)
		}
		return list, ""

	case KindIntList:
		items, ok := raw.([]any)
		if !ok {
			return nil, "must be a list of integers"
		}
		list := make([]int, 0, len(items))
		for _, it := range items {
			n, ok := asInt(it)
			if !ok {
				return nil, "must be a list of integers"
			}
			list = append(list, n)
		}
		if len(list) < rule.MinLen {
			return nil, fmt.Sprintf("must have at least %d entries", rule.MinLen)
		}
		return list, ""
	}
	return nil, "unsupported kind"
}

// asInt accepts JSON numbers and numeric strings ("183"), rejecting
// fractions and garbage instead of truncating.
func asInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func enumHas(enum []string, s string) bool {
	for _, e := range enum {
		if e == s {
			return true
		}
	}
	return false
}
