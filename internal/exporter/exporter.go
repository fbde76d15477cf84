package exporter

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/dc4ds/internal/connector"
	"github.com/vitebski/dc4ds/pkg/models"
)

// BatchSize is the number of violation rows inserted per transaction
const BatchSize = 100

// ViolationExporter writes the cells flagged by a check into a SQL table
type ViolationExporter struct {
	DB     *connector.DatabaseConnector
	Table  string
	Logger *logrus.Logger
}

// NewViolationExporter creates a new exporter writing into table
func NewViolationExporter(db *connector.DatabaseConnector, table string, logger *logrus.Logger) *ViolationExporter {
	return &ViolationExporter{
		DB:     db,
		Table:  table,
		Logger: logger,
	}
}

// EnsureTable creates the violations table when it does not exist
func (ve *ViolationExporter) EnsureTable() error {
	createSQL := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (run_id VARCHAR(36) NOT NULL, row_index INTEGER NOT NULL, column_name VARCHAR(255) NOT NULL)",
		ve.Table,
	)
	if _, err := ve.DB.ExecuteStatement(createSQL); err != nil {
		ve.Logger.Errorf("Error creating table %s: %v", ve.Table, err)
		return err
	}
	return nil
}

// Export inserts one row per flagged cell of report, in batches of BatchSize.
// It returns the number of inserted rows.
func (ve *ViolationExporter) Export(report *models.CheckReport) (int64, error) {
	if err := ve.EnsureTable(); err != nil {
		return 0, err
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		ve.Table,
		strings.Join([]string{"run_id", "row_index", "column_name"}, ", "),
		strings.Join([]string{"?", "?", "?"}, ", "),
	)

	cells := report.Errors.Sorted()
	var paramsList [][]interface{}
	var total int64

	for i, cell := range cells {
		paramsList = append(paramsList, []interface{}{report.RunID, cell.Row, cell.Column})

		// Insert in batches of BatchSize records
		if len(paramsList) >= BatchSize || i == len(cells)-1 {
			affected, err := ve.DB.ExecuteMany(insertSQL, paramsList)
			if err != nil {
				ve.Logger.Errorf("Error inserting violations into table %s: %v", ve.Table, err)
				return total, err
			}
			total += affected
			paramsList = paramsList[:0]
		}
	}

	ve.Logger.Infof("Exported %d violations of run %s to %s", total, report.RunID, ve.Table)
	return total, nil
}
