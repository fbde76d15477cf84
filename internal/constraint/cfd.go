package constraint

import (
	"fmt"
	"sort"
	"strings"

	dcerrors "github.com/vitebski/dc4ds/internal/errors"
	"github.com/vitebski/dc4ds/pkg/models"
)

// ConditionalFunctionalDependency requires that, among the rows accepted by the
// applicability predicate, equal determinant values imply equal dependent values.
//
// With IgnoreMax set, the dependent value held by the most rows of an inconsistent
// group is presumed correct and only the other rows of the group are flagged. Ties on
// the largest count exempt the lexicographically greatest dependent value.
type ConditionalFunctionalDependency struct {
	Label       string
	determinant []string
	dependent   []string
	applies     Predicate
	ignoreMax   bool
}

// NewConditionalFunctionalDependency creates a CFD determinant -> dependent, restricted to
// the rows for which applies holds over the full row. A nil applies admits every row.
func NewConditionalFunctionalDependency(determinant, dependent []string, applies Predicate, ignoreMax bool) (*ConditionalFunctionalDependency, error) {
	if len(determinant) == 0 || len(dependent) == 0 {
		return nil, dcerrors.NewConfigurationError(dcerrors.CodeEmptyProjection, "determinant and dependent projections must not be empty")
	}

	seen := make(map[string]bool, len(determinant))
	for _, col := range determinant {
		seen[col] = true
	}
	for _, col := range dependent {
		if seen[col] {
			return nil, dcerrors.NewConfigurationError(dcerrors.CodeOverlappingColumns,
				fmt.Sprintf("column %q is both determinant and dependent", col)).WithDetail("column", col)
		}
	}

	if applies == nil {
		applies = Always
	}

	return &ConditionalFunctionalDependency{
		determinant: append([]string(nil), determinant...),
		dependent:   append([]string(nil), dependent...),
		applies:     applies,
		ignoreMax:   ignoreMax,
	}, nil
}

// Name returns the label, or a description built from the projections.
func (cfd *ConditionalFunctionalDependency) Name() string {
	if cfd.Label != "" {
		return cfd.Label
	}
	return fmt.Sprintf("cfd(%s -> %s)", strings.Join(cfd.determinant, ", "), strings.Join(cfd.dependent, ", "))
}

// Columns returns the determinant columns followed by the dependent columns.
func (cfd *ConditionalFunctionalDependency) Columns() []string {
	cols := make([]string, 0, len(cfd.determinant)+len(cfd.dependent))
	cols = append(cols, cfd.determinant...)
	return append(cols, cfd.dependent...)
}

// Determinant returns the determinant projection.
func (cfd *ConditionalFunctionalDependency) Determinant() []string {
	return append([]string(nil), cfd.determinant...)
}

// Dependent returns the dependent projection.
func (cfd *ConditionalFunctionalDependency) Dependent() []string {
	return append([]string(nil), cfd.dependent...)
}

// IgnoreMax reports whether the majority dependent value of a group is exempt.
func (cfd *ConditionalFunctionalDependency) IgnoreMax() bool {
	return cfd.ignoreMax
}

// bucket holds the rows of one determinant group that share a dependent value
type bucket struct {
	value Tuple
	rows  []int
}

// group holds the buckets of one determinant value, keyed by encoded dependent tuple
type group struct {
	buckets map[string]*bucket
}

// Evaluate returns the rows that take part in an inconsistent determinant group.
func (cfd *ConditionalFunctionalDependency) Evaluate(t Table) (models.RowSet, error) {
	detIdx, err := resolve(t, cfd.determinant)
	if err != nil {
		return nil, err
	}
	depIdx, err := resolve(t, cfd.dependent)
	if err != nil {
		return nil, err
	}
	for _, d := range detIdx {
		for _, p := range depIdx {
			if d == p {
				return nil, dcerrors.NewConfigurationError(dcerrors.CodeOverlappingColumns,
					fmt.Sprintf("%s: determinant and dependent resolve to the same column %d", cfd.Name(), d))
			}
		}
	}

	groups := make(map[string]*group)
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		ok, err := cfd.applies.Test(Tuple(row))
		if err != nil {
			return nil, dcerrors.NewPredicateError(i, err)
		}
		if !ok {
			continue
		}

		detKey := project(row, detIdx).key()
		g, exists := groups[detKey]
		if !exists {
			g = &group{buckets: make(map[string]*bucket)}
			groups[detKey] = g
		}

		dep := project(row, depIdx)
		depKey := dep.key()
		b, exists := g.buckets[depKey]
		if !exists {
			b = &bucket{value: dep}
			g.buckets[depKey] = b
		}
		b.rows = append(b.rows, i)
	}

	inconsistent := make(models.RowSet)
	for _, g := range groups {
		if len(g.buckets) == 1 {
			continue
		}

		buckets := make([]*bucket, 0, len(g.buckets))
		for _, b := range g.buckets {
			buckets = append(buckets, b)
		}

		if cfd.ignoreMax {
			// Ascending by (count, value): the last bucket is the presumed-correct majority.
			sort.Slice(buckets, func(i, j int) bool {
				if len(buckets[i].rows) != len(buckets[j].rows) {
					return len(buckets[i].rows) < len(buckets[j].rows)
				}
				return buckets[i].value.Compare(buckets[j].value) < 0
			})
			buckets = buckets[:len(buckets)-1]
		}

		for _, b := range buckets {
			for _, r := range b.rows {
				inconsistent.Add(r)
			}
		}
	}
	return inconsistent, nil
}
