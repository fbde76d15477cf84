package exporter

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/dc4ds/internal/connector"
	"github.com/vitebski/dc4ds/pkg/models"
)

func newTestExporter(t *testing.T) (*ViolationExporter, sqlmock.Sqlmock) {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dc := connector.NewDatabaseConnector("localhost", "user", "pw", "quality", "3306", logger)
	dc.DB = db
	return NewViolationExporter(dc, "dq_violations", logger), mock
}

func TestExportBatches(t *testing.T) {
	ve, mock := newTestExporter(t)

	report := &models.CheckReport{RunID: "run-1", Errors: make(models.ErrorSet)}
	for r := 0; r < BatchSize+1; r++ {
		report.Errors.Add(r, "city")
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS dq_violations").WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO dq_violations \\(run_id, row_index, column_name\\)")
	for r := 0; r < BatchSize; r++ {
		prep.ExpectExec().WithArgs("run-1", r, "city").WillReturnResult(sqlmock.NewResult(int64(r), 1))
	}
	mock.ExpectCommit()

	mock.ExpectBegin()
	prep = mock.ExpectPrepare("INSERT INTO dq_violations")
	prep.ExpectExec().WithArgs("run-1", BatchSize, "city").WillReturnResult(sqlmock.NewResult(int64(BatchSize), 1))
	mock.ExpectCommit()

	inserted, err := ve.Export(report)
	require.NoError(t, err)
	assert.Equal(t, int64(BatchSize+1), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportEmptyReport(t *testing.T) {
	ve, mock := newTestExporter(t)
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := ve.Export(&models.CheckReport{RunID: "run-2", Errors: make(models.ErrorSet)})
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportCreateFails(t *testing.T) {
	ve, mock := newTestExporter(t)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("denied"))

	_, err := ve.Export(&models.CheckReport{RunID: "run-3", Errors: make(models.ErrorSet)})
	assert.Error(t, err)
}
