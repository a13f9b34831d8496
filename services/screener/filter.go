package screener

import (
	"fmt"
	"strings"

	"nse_screener_backend/services/indicator"
)

// Field identifies a value on a snapshot row: either a raw bar column
// (open, high, low, close, volume) or a derived indicator addressed by
// kind and period.
type Field struct {
	Column string         `json:"column,omitempty"`
	Kind   indicator.Kind `json:"kind,omitempty"`
	Period int            `json:"period,omitempty"`
}

// Column builds a Field for a raw bar column.
func Column(name string) Field {
	return Field{Column: name}
}

// Derived builds a Field for an indicator column.
func Derived(kind indicator.Kind, period int) Field {
	return Field{Kind: kind, Period: period}
}

// resolve returns the field's value on row, and whether it is defined.
func (f Field) resolve(row indicator.Row) (float64, bool) {
	if f.Column != "" {
		switch strings.ToLower(f.Column) {
		case "open":
			return row.Open, true
		case "high":
			return row.High, true
		case "low":
			return row.Low, true
		case "close":
			return row.Close, true
		case "volume":
			return row.Volume, true
		}
		return 0, false
	}
	return row.Value(indicator.Key{Kind: f.Kind, Period: f.Period})
}

func (f Field) valid() bool {
	if f.Column != "" {
		switch strings.ToLower(f.Column) {
		case "open", "high", "low", "close", "volume":
			return f.Kind == ""
		}
		return false
	}
	return f.Kind != ""
}

// Op is a comparison operator.
type Op string

const (
	OpGT      Op = "gt"
	OpGTE     Op = "gte"
	OpLT      Op = "lt"
	OpLTE     Op = "lte"
	OpBetween Op = "between"
)

// Predicate compares a field against either a literal threshold, a
// literal range (between), or another field scaled by a multiplier
// (e.g. volume > 1.5 x vol_avg20). A predicate over an undefined field
// value evaluates to false, never to an error.
type Predicate struct {
	Field Field   `json:"field"`
	Op    Op      `json:"op"`
	Value float64 `json:"value"`
	Upper float64 `json:"upper,omitempty"` // upper bound when Op is between
	Ref   *Field  `json:"ref,omitempty"`   // compare against this field instead of Value
	Scale float64 `json:"scale,omitempty"` // multiplier on Ref, 0 means 1
}

// Matches reports whether row satisfies the predicate.
func (p Predicate) Matches(row indicator.Row) bool {
	lhs, ok := p.Field.resolve(row)
	if !ok {
		return false
	}

	if p.Op == OpBetween {
		return lhs >= p.Value && lhs <= p.Upper
	}

	rhs := p.Value
	if p.Ref != nil {
		ref, ok := p.Ref.resolve(row)
		if !ok {
			return false
		}
		scale := p.Scale
		if scale == 0 {
			scale = 1
		}
		rhs = scale * ref
	}

	switch p.Op {
	case OpGT:
		return lhs > rhs
	case OpGTE:
		return lhs >= rhs
	case OpLT:
		return lhs < rhs
	case OpLTE:
		return lhs <= rhs
	}
	return false
}

// FilterSpec is a named conjunction of predicates. An empty predicate
// list is the identity filter.
type FilterSpec struct {
	Label      string      `json:"label"`
	Predicates []Predicate `json:"predicates"`
}

// Validate rejects malformed fields and operators before evaluation.
func (s FilterSpec) Validate() error {
	for i, p := range s.Predicates {
		if !p.Field.valid() {
			return fmt.Errorf("filter %q predicate %d: unknown field", s.Label, i)
		}
		switch p.Op {
		case OpGT, OpGTE, OpLT, OpLTE:
		case OpBetween:
			if p.Ref != nil {
				return fmt.Errorf("filter %q predicate %d: between does not take a reference field", s.Label, i)
			}
			if p.Upper < p.Value {
				return fmt.Errorf("filter %q predicate %d: between bounds inverted", s.Label, i)
			}
		default:
			return fmt.Errorf("filter %q predicate %d: unknown operator %q", s.Label, i, p.Op)
		}
		if p.Ref != nil && !p.Ref.valid() {
			return fmt.Errorf("filter %q predicate %d: unknown reference field", s.Label, i)
		}
	}
	return nil
}

// Apply returns the snapshot rows passing every predicate of spec,
// preserving the snapshot's symbol ordering.
func Apply(snapshot []indicator.Row, spec FilterSpec) []indicator.Row {
	var matched []indicator.Row
	for _, row := range snapshot {
		pass := true
		for _, p := range spec.Predicates {
			if !p.Matches(row) {
				pass = false
				break
			}
		}
		if pass {
			matched = append(matched, row)
		}
	}
	return matched
}

// Evaluate runs every spec independently against the full snapshot.
// Buckets are non-exclusive: a symbol may land in zero, one, or several
// of them.
func Evaluate(snapshot []indicator.Row, specs []FilterSpec) map[string][]indicator.Row {
	buckets := make(map[string][]indicator.Row, len(specs))
	for _, spec := range specs {
		buckets[spec.Label] = Apply(snapshot, spec)
	}
	return buckets
}
