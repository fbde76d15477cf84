package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/dc4ds/internal/constraint"
	"github.com/vitebski/dc4ds/internal/dataset"
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
)

const addressRules = `
constraints:
  - name: city-present
    type: domain
    columns: [city]
    predicate:
      not_contains: "?"
      not_empty: true
  - name: zip-format
    type: domain
    columns: [zip]
    predicate:
      matches: '^\d{5}$'
  - name: zip-determines-city
    type: cfd
    determinant: [zip]
    dependent: [city]
    ignore_max: true
    when:
      - column: country
        equals: US
`

func testDataset(t *testing.T) *dataset.Dataset {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests

	ds, err := dataset.FromRows([]string{"zip", "city", "country"}, [][]string{
		{"10001", "New York", "US"},
		{"10001", "New York", "US"},
		{"10001", "NYC", "US"},
		{"10001", "?", "FR"},
		{"1000", "Paris", "FR"},
	}, logger)
	require.NoError(t, err)
	return ds
}

func TestCompileAndCheck(t *testing.T) {
	f, err := Parse([]byte(addressRules))
	require.NoError(t, err)
	require.Len(t, f.Constraints, 3)

	ds := testDataset(t)
	constraints, err := f.Compile(ds)
	require.NoError(t, err)
	for _, c := range constraints {
		require.NoError(t, ds.AddConstraint(c))
	}

	report, err := ds.Check()
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.Equal(t, "city-present", report.Results[0].Name)
	assert.Equal(t, []int{3}, report.Results[0].Violations.Sorted())
	assert.Equal(t, []int{4}, report.Results[1].Violations.Sorted())
	// Row 3 is outside the US and does not take part in the dependency.
	assert.Equal(t, []int{2}, report.Results[2].Violations.Sorted())

	cfd, ok := constraints[2].(*constraint.ConditionalFunctionalDependency)
	require.True(t, ok)
	assert.True(t, cfd.IgnoreMax())
}

func TestCompileConditionVariants(t *testing.T) {
	f, err := Parse([]byte(`
constraints:
  - type: cfd
    determinant: ["0"]
    dependent: ["1"]
    when:
      - column: country
        not_equals: FR
      - column: country
        one_of: [US, CA]
      - column: zip
        matches: '^1'
`))
	require.NoError(t, err)

	constraints, err := f.Compile(testDataset(t))
	require.NoError(t, err)
	require.Len(t, constraints, 1)
	assert.Equal(t, "rule-1", constraints[0].Name())
}

func TestCompileNegatedRange(t *testing.T) {
	f, err := Parse([]byte(`
constraints:
  - name: not-teen
    type: domain
    columns: ["0"]
    predicate:
      range: {min: 13, max: 19}
      negate: true
`))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	ds, err := dataset.FromRows(nil, [][]string{{"12"}, {"15"}, {"30"}}, logger)
	require.NoError(t, err)

	constraints, err := f.Compile(ds)
	require.NoError(t, err)
	violations, err := constraints[0].Evaluate(ds)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, violations.Sorted())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown type", "constraints:\n  - type: fuzzy\n"},
		{"missing predicate", "constraints:\n  - type: domain\n    columns: [zip]\n"},
		{"bad pattern", "constraints:\n  - type: domain\n    columns: [zip]\n    predicate:\n      matches: '('\n"},
		{"bad range", "constraints:\n  - type: domain\n    columns: [zip]\n    predicate:\n      range: {min: 5, max: 1}\n"},
		{"condition on domain", "constraints:\n  - type: domain\n    columns: [zip]\n    predicate: {numeric: true}\n    when:\n      - column: zip\n        equals: x\n"},
		{"unknown condition column", "constraints:\n  - type: cfd\n    determinant: [zip]\n    dependent: [city]\n    when:\n      - column: state\n        equals: NY\n"},
		{"empty condition", "constraints:\n  - type: cfd\n    determinant: [zip]\n    dependent: [city]\n    when:\n      - column: zip\n"},
		{"overlapping cfd", "constraints:\n  - type: cfd\n    determinant: [zip]\n    dependent: [zip]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			_, err = f.Compile(testDataset(t))
			assert.ErrorIs(t, err, dcerrors.ErrConfiguration)
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("constraints: [unclosed"))
	assert.ErrorIs(t, err, dcerrors.ErrConfiguration)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(addressRules), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, f.Constraints, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, dcerrors.ErrSourceNotFound)
}
