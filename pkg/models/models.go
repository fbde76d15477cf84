package models

import (
	"fmt"
	"sort"
)

// RowSet is a set of row identifiers (0-based row indices)
type RowSet map[int]struct{}

// NewRowSet creates a row set holding the given rows
func NewRowSet(rows ...int) RowSet {
	rs := make(RowSet, len(rows))
	for _, r := range rows {
		rs[r] = struct{}{}
	}
	return rs
}

// Add inserts a row identifier
func (rs RowSet) Add(row int) {
	rs[row] = struct{}{}
}

// Contains reports whether the row is in the set
func (rs RowSet) Contains(row int) bool {
	_, ok := rs[row]
	return ok
}

// Union adds every row of other to the set
func (rs RowSet) Union(other RowSet) {
	for r := range other {
		rs[r] = struct{}{}
	}
}

// IsSubsetOf reports whether every row of the set is also in other
func (rs RowSet) IsSubsetOf(other RowSet) bool {
	for r := range rs {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// Sorted returns the row identifiers in ascending order
func (rs RowSet) Sorted() []int {
	rows := make([]int, 0, len(rs))
	for r := range rs {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	return rows
}

// Cell identifies one (row, column) position flagged by a constraint
type Cell struct {
	Row    int
	Column string
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %s)", c.Row, c.Column)
}

// ErrorSet is a deduplicated, unordered set of flagged cells
type ErrorSet map[Cell]struct{}

// Add inserts a cell
func (es ErrorSet) Add(row int, column string) {
	es[Cell{Row: row, Column: column}] = struct{}{}
}

// Contains reports whether the cell is in the set
func (es ErrorSet) Contains(row int, column string) bool {
	_, ok := es[Cell{Row: row, Column: column}]
	return ok
}

// Rows returns the distinct rows that hold at least one flagged cell
func (es ErrorSet) Rows() RowSet {
	rows := make(RowSet)
	for c := range es {
		rows.Add(c.Row)
	}
	return rows
}

// Sorted returns the cells ordered by row, then column
func (es ErrorSet) Sorted() []Cell {
	cells := make([]Cell, 0, len(es))
	for c := range es {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Column < cells[j].Column
	})
	return cells
}

// Dialect describes how a delimited text file is tokenized
type Dialect struct {
	Delimiter rune
	QuoteChar rune
}

func (d Dialect) String() string {
	return fmt.Sprintf("delimiter=%q quotechar=%q", d.Delimiter, d.QuoteChar)
}

// DialectScore records the score of one candidate dialect during sniffing
type DialectScore struct {
	Dialect Dialect
	Score   float64
	Parsed  bool
	Rows    int
}

// ColumnType is the inferred type tag of a column
type ColumnType string

const (
	String      ColumnType = "string"
	Categorical ColumnType = "categorical"
	Address     ColumnType = "address"
	Numeric     ColumnType = "numeric"
)

// ConstraintResult holds the outcome of evaluating one attached constraint
type ConstraintResult struct {
	Name       string
	Columns    []string
	Violations RowSet
}

// Diagnostic is a non-fatal finding raised while checking a dataset
type Diagnostic struct {
	Code    string
	Message string
}

// CheckReport represents the result of checking a dataset against its constraints
type CheckReport struct {
	RunID       string
	Rows        int
	Columns     []string
	Results     []ConstraintResult
	Errors      ErrorSet
	Diagnostics []Diagnostic
}

// Consistent reports whether no constraint flagged any cell
func (r *CheckReport) Consistent() bool {
	return len(r.Errors) == 0
}
