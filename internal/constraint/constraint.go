// Package constraint implements declarative consistency rules over tabular data.
//
// Two kinds of rules are supported. A DomainConstraint checks every row on its own
// through a predicate over a projection of the row. A ConditionalFunctionalDependency
// groups the rows it applies to by a determinant projection and flags groups that map
// to more than one dependent value.
//
// Constraints never mutate the table they are evaluated against and keep no state
// besides their configuration, so evaluation is always a fresh scan.
package constraint

import (
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
	"github.com/vitebski/dc4ds/pkg/models"
)

// Table is the read-only view of a dataset that constraints are evaluated against.
type Table interface {
	// NumRows returns the number of rows; row identifiers are 0..NumRows()-1.
	NumRows() int
	// Row returns the cells of row i in column order. Callers must not modify it.
	Row(i int) []string
	// ColumnIndex resolves a column reference, either a declared name or a positional index.
	ColumnIndex(ref string) (int, bool)
}

// Constraint is a rule that reports the rows of a table that violate it.
type Constraint interface {
	// Name identifies the constraint in reports.
	Name() string
	// Columns returns the column references the constraint is active over.
	Columns() []string
	// Evaluate returns the identifiers of the rows that violate the rule.
	Evaluate(t Table) (models.RowSet, error)
}

// IsConsistent reports whether t has no rows violating c.
func IsConsistent(c Constraint, t Table) (bool, error) {
	violations, err := c.Evaluate(t)
	if err != nil {
		return false, err
	}
	return len(violations) == 0, nil
}

// ValidateColumns checks that every column c is active over resolves in t.
func ValidateColumns(c Constraint, t Table) error {
	_, err := resolve(t, c.Columns())
	return err
}

func resolve(t Table, refs []string) ([]int, error) {
	idx := make([]int, len(refs))
	for i, ref := range refs {
		pos, ok := t.ColumnIndex(ref)
		if !ok {
			return nil, dcerrors.UnknownColumn(ref)
		}
		idx[i] = pos
	}
	return idx, nil
}

func project(row []string, idx []int) Tuple {
	values := make(Tuple, len(idx))
	for i, pos := range idx {
		values[i] = row[pos]
	}
	return values
}
