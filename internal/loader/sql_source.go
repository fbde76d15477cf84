package loader

import (
	"fmt"
	"strings"

	"github.com/vitebski/dc4ds/internal/connector"
)

// SQLSource loads the rows of a SQL table, or of an arbitrary query, through a connector.
type SQLSource struct {
	DB    *connector.DatabaseConnector
	Table string
	Query string

	names []string
}

// NewSQLTableSource reads every row of table.
func NewSQLTableSource(db *connector.DatabaseConnector, table string) *SQLSource {
	return &SQLSource{DB: db, Table: table}
}

// NewSQLQuerySource reads the result of query.
func NewSQLQuerySource(db *connector.DatabaseConnector, query string) *SQLSource {
	return &SQLSource{DB: db, Query: query}
}

// Load runs the query and returns its rows in textual form.
func (ss *SQLSource) Load() ([][]string, error) {
	query := ss.Query
	if query == "" {
		if ss.Table == "" {
			return nil, fmt.Errorf("sql source needs a table or a query")
		}
		query = fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(ss.DB.Driver, ss.Table))
	}

	names, rows, err := ss.DB.QueryRows(query)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", ss.describe(), err)
	}
	ss.names = names
	ss.DB.Logger.Infof("Loaded %d rows from %s", len(rows), ss.describe())
	return rows, nil
}

// ColumnNames returns the result set's column names after Load.
func (ss *SQLSource) ColumnNames() []string {
	return ss.names
}

func (ss *SQLSource) describe() string {
	if ss.Table != "" {
		return ss.Table
	}
	return "query"
}

// quoteIdentifier quotes a table name for the driver's SQL dialect
func quoteIdentifier(driver, name string) string {
	if driver == connector.DriverSQLite {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
