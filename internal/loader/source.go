// Package loader provides the tabular sources a dataset can be built from: delimited text
// files with dialect sniffing, SQL tables, and rows held in memory.
package loader

// Source provides the rows of a table as raw text values.
type Source interface {
	Load() ([][]string, error)
}

// NamedSource is a Source that also knows its column names once loaded.
type NamedSource interface {
	Source
	ColumnNames() []string
}

// MemorySource serves rows already held in memory.
type MemorySource struct {
	Names []string
	Rows  [][]string
}

// NewMemorySource creates a source over rows; names may be nil for positional columns.
func NewMemorySource(names []string, rows [][]string) *MemorySource {
	return &MemorySource{Names: names, Rows: rows}
}

// Load returns a copy of the rows so later edits to the source do not reach a dataset.
func (ms *MemorySource) Load() ([][]string, error) {
	rows := make([][]string, len(ms.Rows))
	for i, r := range ms.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return rows, nil
}

// ColumnNames returns the declared names, if any.
func (ms *MemorySource) ColumnNames() []string {
	return ms.Names
}
