// Package dataset wraps a loaded table together with the constraints asserted about it.
//
// A Dataset is built once from a loader.Source and is read-only afterwards. Constraints
// are appended with AddConstraint and never removed; every check evaluates them afresh
// against the rows, aggregating the violating rows of each constraint into (row, column)
// cells over that constraint's columns.
package dataset

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/dc4ds/internal/constraint"
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
	"github.com/vitebski/dc4ds/internal/inference"
	"github.com/vitebski/dc4ds/internal/loader"
	"github.com/vitebski/dc4ds/pkg/models"
)

// DiagNoConstraints is raised when a dataset with no constraints is checked.
const DiagNoConstraints = "NO_CONSTRAINTS"

// Dataset is an immutable table plus its active constraints
type Dataset struct {
	names       []string
	index       map[string]int
	rows        [][]string
	types       []models.ColumnType
	constraints []constraint.Constraint
	Logger      *logrus.Logger
}

// New loads src and builds a dataset from its rows. Column names come from the source when
// it provides them, otherwise columns are named by position ("0", "1", ...).
func New(src loader.Source, logger *logrus.Logger) (*Dataset, error) {
	rows, err := src.Load()
	if err != nil {
		return nil, err
	}

	var names []string
	if ns, ok := src.(loader.NamedSource); ok {
		names = ns.ColumnNames()
	}
	return FromRows(names, rows, logger)
}

// FromRows builds a dataset from rows held in memory. Every row must have one value per column.
func FromRows(names []string, rows [][]string, logger *logrus.Logger) (*Dataset, error) {
	if names == nil {
		width := 0
		if len(rows) > 0 {
			width = len(rows[0])
		}
		names = make([]string, width)
		for i := range names {
			names[i] = strconv.Itoa(i)
		}
	}

	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := index[n]; dup {
			return nil, dcerrors.NewConfigurationError(dcerrors.CodeInvalidRule, fmt.Sprintf("duplicate column name %q", n))
		}
		index[n] = i
	}

	for i, row := range rows {
		if len(row) != len(names) {
			return nil, dcerrors.NewRaggedRowError(i, len(row), len(names))
		}
	}

	ds := &Dataset{
		names:  append([]string(nil), names...),
		index:  index,
		rows:   rows,
		types:  inference.InferTypes(rows, len(names)),
		Logger: logger,
	}
	logger.Debugf("Dataset built with %d rows and %d columns", len(rows), len(names))
	return ds, nil
}

// NumRows returns the number of rows.
func (ds *Dataset) NumRows() int {
	return len(ds.rows)
}

// Row returns row i. The slice is shared with the dataset and must not be modified.
func (ds *Dataset) Row(i int) []string {
	return ds.rows[i]
}

// ColumnIndex resolves a declared column name, or failing that a positional index.
func (ds *Dataset) ColumnIndex(ref string) (int, bool) {
	if pos, ok := ds.index[ref]; ok {
		return pos, true
	}
	pos, err := strconv.Atoi(ref)
	if err != nil || pos < 0 || pos >= len(ds.names) {
		return 0, false
	}
	return pos, true
}

// ColumnNames returns the column names in order.
func (ds *Dataset) ColumnNames() []string {
	return append([]string(nil), ds.names...)
}

// Types returns the inferred type tag of every column.
func (ds *Dataset) Types() []models.ColumnType {
	return append([]models.ColumnType(nil), ds.types...)
}

// AddConstraint attaches c after checking that all its columns exist in the dataset.
func (ds *Dataset) AddConstraint(c constraint.Constraint) error {
	if err := constraint.ValidateColumns(c, ds); err != nil {
		return fmt.Errorf("adding %s: %w", c.Name(), err)
	}
	ds.constraints = append(ds.constraints, c)
	ds.Logger.Debugf("Constraint added: %s", c.Name())
	return nil
}

// Constraints returns the attached constraints in the order they were added.
func (ds *Dataset) Constraints() []constraint.Constraint {
	return append([]constraint.Constraint(nil), ds.constraints...)
}

// Check evaluates every attached constraint and aggregates the flagged cells.
// Checking a dataset without constraints succeeds with a NO_CONSTRAINTS diagnostic.
func (ds *Dataset) Check() (*models.CheckReport, error) {
	report := &models.CheckReport{
		RunID:   uuid.NewString(),
		Rows:    len(ds.rows),
		Columns: ds.ColumnNames(),
		Errors:  make(models.ErrorSet),
	}

	if len(ds.constraints) == 0 {
		ds.Logger.Warning("Dataset has no constraints, consistency is vacuous")
		report.Diagnostics = append(report.Diagnostics, models.Diagnostic{
			Code:    DiagNoConstraints,
			Message: "no constraints attached; the dataset is trivially consistent",
		})
		return report, nil
	}

	for _, c := range ds.constraints {
		violations, err := c.Evaluate(ds)
		if err != nil {
			return nil, fmt.Errorf("evaluating %s: %w", c.Name(), err)
		}

		columns := c.Columns()
		for r := range violations {
			for _, ref := range columns {
				pos, _ := ds.ColumnIndex(ref)
				report.Errors.Add(r, ds.names[pos])
			}
		}

		report.Results = append(report.Results, models.ConstraintResult{
			Name:       c.Name(),
			Columns:    columns,
			Violations: violations,
		})
		ds.Logger.Infof("Constraint %s: %d violating rows", c.Name(), len(violations))
	}

	return report, nil
}

// ErrorIndices returns the flagged (row, column) cells of all attached constraints.
func (ds *Dataset) ErrorIndices() (models.ErrorSet, error) {
	report, err := ds.Check()
	if err != nil {
		return nil, err
	}
	return report.Errors, nil
}

// IsConsistent reports whether no attached constraint flags any row.
func (ds *Dataset) IsConsistent() (bool, error) {
	report, err := ds.Check()
	if err != nil {
		return false, err
	}
	return report.Consistent(), nil
}
