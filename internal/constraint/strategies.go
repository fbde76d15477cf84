package constraint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NotContains holds when no value contains Substr.
type NotContains struct {
	Substr string
}

func (p NotContains) Test(values Tuple) (bool, error) {
	for _, v := range values {
		if strings.Contains(v, p.Substr) {
			return false, nil
		}
	}
	return true, nil
}

// NotEmpty holds when every value has non-whitespace content.
type NotEmpty struct{}

func (NotEmpty) Test(values Tuple) (bool, error) {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false, nil
		}
	}
	return true, nil
}

// OneOf holds when every value is in the allowed set.
type OneOf struct {
	allowed map[string]struct{}
}

// NewOneOf creates a OneOf over the allowed values.
func NewOneOf(values ...string) OneOf {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return OneOf{allowed: allowed}
}

func (p OneOf) Test(values Tuple) (bool, error) {
	for _, v := range values {
		if _, ok := p.allowed[v]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// Matches holds when every value matches the pattern.
type Matches struct {
	Pattern *regexp.Regexp
}

func (p Matches) Test(values Tuple) (bool, error) {
	for _, v := range values {
		if !p.Pattern.MatchString(v) {
			return false, nil
		}
	}
	return true, nil
}

// Numeric holds when every value parses as a number.
type Numeric struct{}

func (Numeric) Test(values Tuple) (bool, error) {
	for _, v := range values {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return false, nil
		}
	}
	return true, nil
}

// InRange holds when every value is a number within [Min, Max].
// A value that is not a number fails the rule rather than the evaluation.
type InRange struct {
	Min, Max float64
}

func (p InRange) Test(values Tuple) (bool, error) {
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f < p.Min || f > p.Max {
			return false, nil
		}
	}
	return true, nil
}

// Ascending holds when the values, read as numbers, never decrease from left to right.
// Non-numeric values are a predicate error.
type Ascending struct{}

func (Ascending) Test(values Tuple) (bool, error) {
	prev := 0.0
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return false, fmt.Errorf("value %d %q is not numeric: %w", i, v, err)
		}
		if i > 0 && f < prev {
			return false, nil
		}
		prev = f
	}
	return true, nil
}

// ColumnEquals holds when the value at position Index equals Value.
// It is meant for applicability predicates, which receive the full row.
type ColumnEquals struct {
	Index int
	Value string
}

func (p ColumnEquals) Test(values Tuple) (bool, error) {
	if p.Index < 0 || p.Index >= len(values) {
		return false, fmt.Errorf("column %d out of range for row of %d values", p.Index, len(values))
	}
	return values[p.Index] == p.Value, nil
}

// Project applies Inner to the values at Indexes, turning a projection predicate into one
// over the full row.
type Project struct {
	Indexes []int
	Inner   Predicate
}

func (p Project) Test(values Tuple) (bool, error) {
	sub := make(Tuple, len(p.Indexes))
	for i, idx := range p.Indexes {
		if idx < 0 || idx >= len(values) {
			return false, fmt.Errorf("column %d out of range for row of %d values", idx, len(values))
		}
		sub[i] = values[idx]
	}
	return p.Inner.Test(sub)
}

// Not negates a predicate.
type Not struct {
	Inner Predicate
}

func (p Not) Test(values Tuple) (bool, error) {
	ok, err := p.Inner.Test(values)
	return !ok, err
}

// All holds when every predicate holds. An empty All always holds.
type All []Predicate

func (ps All) Test(values Tuple) (bool, error) {
	for _, p := range ps {
		ok, err := p.Test(values)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
