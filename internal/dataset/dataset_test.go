package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/dc4ds/internal/constraint"
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
	"github.com/vitebski/dc4ds/internal/loader"
	"github.com/vitebski/dc4ds/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return logger
}

func noQuestionMark(v constraint.Tuple) bool {
	return !strings.Contains(v[0], "?")
}

func TestMissingValuesEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing_values.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,x,a\n2,y,?\n3,z,c\n"), 0o644))

	cl, err := loader.NewCSVLoader(path, 0, 0, testLogger())
	require.NoError(t, err)
	ds, err := New(cl, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, ds.ColumnNames())

	dc, err := constraint.NewDomainConstraint([]string{"2"}, constraint.PredicateFunc(noQuestionMark))
	require.NoError(t, err)
	require.NoError(t, ds.AddConstraint(dc))

	errs, err := ds.ErrorIndices()
	require.NoError(t, err)
	assert.Equal(t, []models.Cell{{Row: 1, Column: "2"}}, errs.Sorted())

	consistent, err := ds.IsConsistent()
	require.NoError(t, err)
	assert.False(t, consistent)
}

func TestCFDEndToEnd(t *testing.T) {
	ds, err := FromRows(nil, [][]string{{"a", "x"}, {"a", "y"}, {"b", "x"}}, testLogger())
	require.NoError(t, err)

	cfd, err := constraint.NewConditionalFunctionalDependency([]string{"0"}, []string{"1"}, constraint.Always, false)
	require.NoError(t, err)
	require.NoError(t, ds.AddConstraint(cfd))

	report, err := ds.Check()
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Results, 1)
	assert.Equal(t, []int{0, 1}, report.Results[0].Violations.Sorted())
	assert.Equal(t, []models.Cell{
		{Row: 0, Column: "0"}, {Row: 0, Column: "1"},
		{Row: 1, Column: "0"}, {Row: 1, Column: "1"},
	}, report.Errors.Sorted())
}

func TestNamedColumnsResolveBothWays(t *testing.T) {
	ds, err := FromRows([]string{"zip", "city"}, [][]string{
		{"10001", "New York"},
		{"10001", "NYC"},
		{"94105", "San Francisco"},
	}, testLogger())
	require.NoError(t, err)

	pos, ok := ds.ColumnIndex("city")
	assert.True(t, ok)
	assert.Equal(t, 1, pos)
	pos, ok = ds.ColumnIndex("0")
	assert.True(t, ok)
	assert.Equal(t, 0, pos)
	_, ok = ds.ColumnIndex("2")
	assert.False(t, ok)

	byName, err := constraint.NewConditionalFunctionalDependency([]string{"zip"}, []string{"city"}, nil, false)
	require.NoError(t, err)
	byPosition, err := constraint.NewConditionalFunctionalDependency([]string{"0"}, []string{"1"}, nil, false)
	require.NoError(t, err)
	require.NoError(t, ds.AddConstraint(byName))
	require.NoError(t, ds.AddConstraint(byPosition))

	errs, err := ds.ErrorIndices()
	require.NoError(t, err)
	// Both constraints flag the same cells, reported once under the declared names.
	assert.Len(t, errs, 4)
	assert.True(t, errs.Contains(0, "zip"))
	assert.True(t, errs.Contains(1, "city"))
	assert.Equal(t, []int{0, 1}, errs.Rows().Sorted())
}

func TestAddConstraintRejectsUnknownColumn(t *testing.T) {
	ds, err := FromRows(nil, [][]string{{"a", "b"}}, testLogger())
	require.NoError(t, err)

	dc, err := constraint.NewDomainConstraint([]string{"5"}, constraint.Always)
	require.NoError(t, err)

	err = ds.AddConstraint(dc)
	assert.ErrorIs(t, err, dcerrors.ErrConfiguration)
	assert.Empty(t, ds.Constraints())
}

func TestNoConstraintsDiagnostic(t *testing.T) {
	ds, err := FromRows(nil, [][]string{{"a"}}, testLogger())
	require.NoError(t, err)

	report, err := ds.Check()
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, DiagNoConstraints, report.Diagnostics[0].Code)
}

func TestConstructionErrors(t *testing.T) {
	_, err := FromRows(nil, [][]string{{"a", "b"}, {"c"}}, testLogger())
	assert.ErrorIs(t, err, dcerrors.ErrShape)

	_, err = FromRows([]string{"a", "b"}, [][]string{{"1", "2", "3"}}, testLogger())
	assert.ErrorIs(t, err, dcerrors.ErrShape)

	_, err = FromRows([]string{"a", "a"}, nil, testLogger())
	assert.ErrorIs(t, err, dcerrors.ErrConfiguration)
}

func TestNewPropagatesSourceErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
	cl, err := loader.NewCSVLoader(path, 0, 0, testLogger())
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = New(cl, testLogger())
	assert.ErrorIs(t, err, dcerrors.ErrSourceNotFound)
}

func TestDatasetUsesSourceColumnNamesAndTypes(t *testing.T) {
	src := loader.NewMemorySource([]string{"age", "color"}, [][]string{
		{"31", "red"}, {"40", "red"}, {"22", "blue"}, {"?", "blue"},
	})
	ds, err := New(src, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "color"}, ds.ColumnNames())
	assert.Equal(t, []models.ColumnType{models.Numeric, models.Categorical}, ds.Types())
	assert.Equal(t, 4, ds.NumRows())
	assert.Equal(t, []string{"22", "blue"}, ds.Row(2))
}

func TestPredicateErrorsAbortCheck(t *testing.T) {
	ds, err := FromRows(nil, [][]string{{"a"}}, testLogger())
	require.NoError(t, err)

	dc, err := constraint.NewDomainConstraint([]string{"0"}, constraint.CheckedPredicateFunc(func(constraint.Tuple) (bool, error) {
		return false, assert.AnError
	}))
	require.NoError(t, err)
	require.NoError(t, ds.AddConstraint(dc))

	_, err = ds.Check()
	assert.ErrorIs(t, err, dcerrors.ErrPredicateEvaluation)
	assert.ErrorIs(t, err, assert.AnError)
}
