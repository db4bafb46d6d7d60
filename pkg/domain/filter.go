package domain

import (
	"fmt"
	"strings"
)

// Operator is a comparison used in a filter condition.
type Operator string

// Supported filter operators.
const (
	OpEquals    Operator = "="
	OpNotEquals Operator = "!="
	OpIn        Operator = "in"
)

// Condition restricts a field. Field may be a dotted path such as
// "chain_root.top_level_menu_id"; resolving the path is left to the caller's
// lookup function.
type Condition struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    string   `json:"value,omitempty" yaml:"value,omitempty"`
	Values   []string `json:"values,omitempty" yaml:"values,omitempty"`
}

// Eq builds an equality condition.
func Eq(field, value string) Condition {
	return Condition{Field: field, Operator: OpEquals, Value: value}
}

// Filter is a conjunction of conditions. The empty filter matches everything.
type Filter []Condition

// And returns a new filter holding the receiver's conditions followed by extra.
func (f Filter) And(extra ...Condition) Filter {
	out := make(Filter, 0, len(f)+len(extra))
	out = append(out, f...)
	return append(out, extra...)
}

// Clone copies the filter.
func (f Filter) Clone() Filter {
	if f == nil {
		return nil
	}
	out := make(Filter, len(f))
	for i, c := range f {
		out[i] = c
		if c.Values != nil {
			out[i].Values = append([]string(nil), c.Values...)
		}
	}
	return out
}

// Match evaluates the filter against lookup. Unknown fields never match.
func (f Filter) Match(lookup func(field string) (string, bool)) bool {
	for _, c := range f {
		got, ok := lookup(c.Field)
		if !ok {
			return false
		}
		switch c.Operator {
		case OpEquals:
			if got != c.Value {
				return false
			}
		case OpNotEquals:
			if got == c.Value {
				return false
			}
		case OpIn:
			found := false
			for _, v := range c.Values {
				if v == got {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	parts := make([]string, 0, len(f))
	for _, c := range f {
		if c.Operator == OpIn {
			parts = append(parts, fmt.Sprintf("(%q, %q, [%s])", c.Field, c.Operator, strings.Join(c.Values, ", ")))
			continue
		}
		parts = append(parts, fmt.Sprintf("(%q, %q, %q)", c.Field, c.Operator, c.Value))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
