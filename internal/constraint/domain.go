package constraint

import (
	"fmt"
	"strings"

	dcerrors "github.com/vitebski/dc4ds/internal/errors"
	"github.com/vitebski/dc4ds/pkg/models"
)

// DomainConstraint is a per-row integrity rule: the predicate must hold for the
// projection of every row onto the constraint's columns.
type DomainConstraint struct {
	Label     string
	columns   []string
	predicate Predicate
}

// NewDomainConstraint creates a domain constraint over the given column projection.
func NewDomainConstraint(columns []string, predicate Predicate) (*DomainConstraint, error) {
	if len(columns) == 0 {
		return nil, dcerrors.NewConfigurationError(dcerrors.CodeEmptyProjection, "domain constraint needs at least one column")
	}
	if predicate == nil {
		return nil, dcerrors.NewConfigurationError(dcerrors.CodeInvalidRule, "domain constraint needs a predicate")
	}
	return &DomainConstraint{
		columns:   append([]string(nil), columns...),
		predicate: predicate,
	}, nil
}

// Name returns the label, or a description built from the columns.
func (dc *DomainConstraint) Name() string {
	if dc.Label != "" {
		return dc.Label
	}
	return fmt.Sprintf("domain(%s)", strings.Join(dc.columns, ", "))
}

// Columns returns the projection the predicate is applied to.
func (dc *DomainConstraint) Columns() []string {
	return append([]string(nil), dc.columns...)
}

// Evaluate returns the rows for which the predicate is false.
func (dc *DomainConstraint) Evaluate(t Table) (models.RowSet, error) {
	idx, err := resolve(t, dc.columns)
	if err != nil {
		return nil, err
	}

	inconsistent := make(models.RowSet)
	for i := 0; i < t.NumRows(); i++ {
		ok, err := dc.predicate.Test(project(t.Row(i), idx))
		if err != nil {
			return nil, dcerrors.NewPredicateError(i, err)
		}
		if !ok {
			inconsistent.Add(i)
		}
	}
	return inconsistent, nil
}
