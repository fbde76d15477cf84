package constraint

import (
	"strconv"
	"strings"
)

// Tuple is an ordered sequence of cell values, either a projection of a row or the full row.
type Tuple []string

// Compare orders tuples lexicographically, element by element, shorter tuples first on a common prefix.
func (t Tuple) Compare(other Tuple) int {
	for i := 0; i < len(t) && i < len(other); i++ {
		if c := strings.Compare(t[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(t) < len(other):
		return -1
	case len(t) > len(other):
		return 1
	}
	return 0
}

// key encodes the tuple into a collision-free map key. Each element is length-prefixed so
// ("a,b") and ("a", "b") never share a key.
func (t Tuple) key() string {
	var sb strings.Builder
	for _, v := range t {
		sb.WriteString(strconv.Itoa(len(v)))
		sb.WriteByte(':')
		sb.WriteString(v)
	}
	return sb.String()
}

// Predicate is a boolean rule over a tuple of values.
// A returned error is a bug in the predicate, not a data-quality finding.
type Predicate interface {
	Test(values Tuple) (bool, error)
}

// PredicateFunc adapts an infallible function to a Predicate.
type PredicateFunc func(values Tuple) bool

// Test calls f(values).
func (f PredicateFunc) Test(values Tuple) (bool, error) {
	return f(values), nil
}

// CheckedPredicateFunc adapts a function that may fail to a Predicate.
type CheckedPredicateFunc func(values Tuple) (bool, error)

// Test calls f(values).
func (f CheckedPredicateFunc) Test(values Tuple) (bool, error) {
	return f(values)
}

// Always is the applicability predicate that admits every row.
var Always Predicate = PredicateFunc(func(Tuple) bool { return true })
