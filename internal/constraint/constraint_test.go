package constraint

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
)

// memTable is a minimal Table used to test constraints without a dataset
type memTable struct {
	names []string
	rows  [][]string
}

func (m *memTable) NumRows() int       { return len(m.rows) }
func (m *memTable) Row(i int) []string { return m.rows[i] }

func (m *memTable) ColumnIndex(ref string) (int, bool) {
	for i, n := range m.names {
		if n == ref {
			return i, true
		}
	}
	pos, err := strconv.Atoi(ref)
	if err != nil || pos < 0 || pos >= len(m.names) {
		return 0, false
	}
	return pos, true
}

func newMemTable(rows ...[]string) *memTable {
	names := make([]string, len(rows[0]))
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return &memTable{names: names, rows: rows}
}

func TestDomainConstraintMissingValues(t *testing.T) {
	table := newMemTable(
		[]string{"1", "x", "a"},
		[]string{"2", "y", "?"},
		[]string{"3", "z", "c"},
	)

	dc, err := NewDomainConstraint([]string{"2"}, PredicateFunc(func(v Tuple) bool {
		return !strings.Contains(v[0], "?")
	}))
	require.NoError(t, err)

	violations, err := dc.Evaluate(table)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, violations.Sorted())

	consistent, err := IsConsistent(dc, table)
	require.NoError(t, err)
	assert.False(t, consistent)
	assert.Equal(t, []string{"2"}, dc.Columns())
}

func TestDomainConstraintMultiColumnProjection(t *testing.T) {
	table := &memTable{
		names: []string{"low", "high"},
		rows: [][]string{
			{"1", "5"},
			{"7", "3"},
			{"2", "2"},
		},
	}

	dc, err := NewDomainConstraint([]string{"low", "high"}, PredicateFunc(func(v Tuple) bool {
		lo, _ := strconv.Atoi(v[0])
		hi, _ := strconv.Atoi(v[1])
		return lo <= hi
	}))
	require.NoError(t, err)

	violations, err := dc.Evaluate(table)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, violations.Sorted())
}

func TestDomainConstraintPredicateErrorPropagates(t *testing.T) {
	table := newMemTable([]string{"1"}, []string{"oops"})
	boom := errors.New("not a number")

	dc, err := NewDomainConstraint([]string{"0"}, CheckedPredicateFunc(func(v Tuple) (bool, error) {
		if _, err := strconv.Atoi(v[0]); err != nil {
			return false, boom
		}
		return true, nil
	}))
	require.NoError(t, err)

	_, err = dc.Evaluate(table)
	require.Error(t, err)
	assert.ErrorIs(t, err, dcerrors.ErrPredicateEvaluation)
	assert.ErrorIs(t, err, boom)
}

func TestDomainConstraintUnknownColumn(t *testing.T) {
	table := newMemTable([]string{"a"})
	dc, err := NewDomainConstraint([]string{"missing"}, Always)
	require.NoError(t, err)

	_, err = dc.Evaluate(table)
	assert.ErrorIs(t, err, dcerrors.ErrConfiguration)
	assert.ErrorIs(t, ValidateColumns(dc, table), dcerrors.ErrConfiguration)
}

func TestNewDomainConstraintRejectsEmptyProjection(t *testing.T) {
	_, err := NewDomainConstraint(nil, Always)
	assert.ErrorIs(t, err, dcerrors.ErrConfiguration)
}

func TestCFDEndToEnd(t *testing.T) {
	table := newMemTable(
		[]string{"a", "x"},
		[]string{"a", "y"},
		[]string{"b", "x"},
	)

	cfd, err := NewConditionalFunctionalDependency([]string{"0"}, []string{"1"}, Always, false)
	require.NoError(t, err)

	violations, err := cfd.Evaluate(table)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, violations.Sorted())
	assert.Equal(t, []string{"0", "1"}, cfd.Columns())
	assert.Equal(t, "cfd(0 -> 1)", cfd.Name())
}

func TestCFDConsistentTable(t *testing.T) {
	table := newMemTable(
		[]string{"a", "x"},
		[]string{"a", "x"},
		[]string{"b", "y"},
		[]string{"b", "y"},
	)

	cfd, err := NewConditionalFunctionalDependency([]string{"0"}, []string{"1"}, nil, false)
	require.NoError(t, err)

	consistent, err := IsConsistent(cfd, table)
	require.NoError(t, err)
	assert.True(t, consistent)
}

func TestCFDIgnoreMaxExemptsMajority(t *testing.T) {
	var rows [][]string
	for i := 0; i < 5; i++ {
		rows = append(rows, []string{"A", "x"})
	}
	rows = append(rows, []string{"A", "y"}, []string{"A", "y"})
	table := newMemTable(rows...)

	cfd, err := NewConditionalFunctionalDependency([]string{"0"}, []string{"1"}, Always, true)
	require.NoError(t, err)

	violations, err := cfd.Evaluate(table)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, violations.Sorted())
}

func TestCFDIgnoreMaxTieBreak(t *testing.T) {
	table := newMemTable(
		[]string{"k", "y"},
		[]string{"k", "x"},
		[]string{"k", "y"},
		[]string{"k", "x"},
		[]string{"k", "x"},
		[]string{"k", "y"},
	)

	cfd, err := NewConditionalFunctionalDependency([]string{"0"}, []string{"1"}, Always, true)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		violations, err := cfd.Evaluate(table)
		require.NoError(t, err)
		// "y" sorts after "x", so the "y" bucket is exempt.
		assert.Equal(t, []int{1, 3, 4}, violations.Sorted())
	}
}

func TestCFDApplicabilityFilter(t *testing.T) {
	table := newMemTable(
		[]string{"a", "x", "US"},
		[]string{"a", "y", "US"},
		[]string{"a", "z", "FR"},
		[]string{"b", "x", "FR"},
		[]string{"b", "y", "FR"},
	)

	onlyUS := PredicateFunc(func(row Tuple) bool { return row[2] == "US" })
	cfd, err := NewConditionalFunctionalDependency([]string{"0"}, []string{"1"}, onlyUS, false)
	require.NoError(t, err)

	violations, err := cfd.Evaluate(table)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, violations.Sorted())
}

func TestCFDEmptyFilteredSet(t *testing.T) {
	table := newMemTable([]string{"a", "x"}, []string{"a", "y"})
	never := PredicateFunc(func(Tuple) bool { return false })

	cfd, err := NewConditionalFunctionalDependency([]string{"0"}, []string{"1"}, never, false)
	require.NoError(t, err)

	violations, err := cfd.Evaluate(table)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestCFDMultiColumnTuplesDoNotCollide(t *testing.T) {
	table := newMemTable(
		[]string{"a,b", "", "v1"},
		[]string{"a", ",b", "v2"},
	)

	cfd, err := NewConditionalFunctionalDependency([]string{"0", "1"}, []string{"2"}, Always, false)
	require.NoError(t, err)

	violations, err := cfd.Evaluate(table)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestCFDConfigurationErrors(t *testing.T) {
	_, err := NewConditionalFunctionalDependency([]string{"0"}, []string{"0"}, Always, false)
	assert.ErrorIs(t, err, dcerrors.ErrConfiguration)

	_, err = NewConditionalFunctionalDependency(nil, []string{"1"}, Always, false)
	assert.ErrorIs(t, err, dcerrors.ErrConfiguration)

	table := &memTable{names: []string{"zip", "city"}, rows: [][]string{{"1", "a"}}}

	cfd, err := NewConditionalFunctionalDependency([]string{"zip"}, []string{"state"}, Always, false)
	require.NoError(t, err)
	_, err = cfd.Evaluate(table)
	var dcErr *dcerrors.DCError
	require.True(t, errors.As(err, &dcErr))
	assert.Equal(t, dcerrors.CodeUnknownColumn, dcErr.Code)

	// "zip" and "0" name the same column.
	cfd, err = NewConditionalFunctionalDependency([]string{"zip"}, []string{"0"}, Always, false)
	require.NoError(t, err)
	_, err = cfd.Evaluate(table)
	require.True(t, errors.As(err, &dcErr))
	assert.Equal(t, dcerrors.CodeOverlappingColumns, dcErr.Code)
}

func TestCFDPredicateErrorPropagates(t *testing.T) {
	table := newMemTable([]string{"a", "x"})
	boom := errors.New("bad row")
	cfd, err := NewConditionalFunctionalDependency([]string{"0"}, []string{"1"},
		CheckedPredicateFunc(func(Tuple) (bool, error) { return false, boom }), false)
	require.NoError(t, err)

	_, err = cfd.Evaluate(table)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, dcerrors.ErrPredicateEvaluation)
}

func TestTupleCompare(t *testing.T) {
	assert.Equal(t, 0, Tuple{"a", "b"}.Compare(Tuple{"a", "b"}))
	assert.Equal(t, -1, Tuple{"a"}.Compare(Tuple{"a", "b"}))
	assert.Equal(t, 1, Tuple{"b"}.Compare(Tuple{"a", "z"}))
	assert.NotEqual(t, Tuple{"a,b"}.key(), Tuple{"a", "b"}.key())
}
