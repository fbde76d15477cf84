package connector

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
)

// Supported database/sql driver names
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// DatabaseConnector handles database connection and query execution
type DatabaseConnector struct {
	Driver   string
	Host     string
	User     string
	Password string
	Database string
	Port     string
	Path     string
	DB       *sql.DB
	Logger   *logrus.Logger
}

// NewDatabaseConnector creates a new MySQL connector, falling back to MYSQL_* environment variables
func NewDatabaseConnector(host, user, password, database, port string, logger *logrus.Logger) *DatabaseConnector {
	if host == "" {
		host = getEnvOrDefault("MYSQL_HOST", "localhost")
	}
	if user == "" {
		user = getEnvOrDefault("MYSQL_USER", "root")
	}
	if password == "" {
		password = getEnvOrDefault("MYSQL_PASSWORD", "")
	}
	if database == "" {
		database = getEnvOrDefault("MYSQL_DATABASE", "")
	}
	if port == "" {
		port = getEnvOrDefault("MYSQL_PORT", "3306")
	}

	return &DatabaseConnector{
		Driver:   DriverMySQL,
		Host:     host,
		User:     user,
		Password: password,
		Database: database,
		Port:     port,
		Logger:   logger,
	}
}

// NewSQLiteConnector creates a connector for a SQLite database file
func NewSQLiteConnector(path string, logger *logrus.Logger) *DatabaseConnector {
	return &DatabaseConnector{
		Driver:   DriverSQLite,
		Path:     path,
		Database: path,
		Logger:   logger,
	}
}

// DSN returns the data source name handed to sql.Open
func (dc *DatabaseConnector) DSN() string {
	if dc.Driver == DriverSQLite {
		return dc.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", dc.User, dc.Password, dc.Host, dc.Port, dc.Database)
}

// Connect establishes a connection to the database
func (dc *DatabaseConnector) Connect() error {
	switch dc.Driver {
	case DriverSQLite:
		if _, err := os.Stat(dc.Path); err != nil {
			return dcerrors.NewSourceNotFoundError(dc.Path, err)
		}
	default:
		if dc.Database == "" {
			return fmt.Errorf("database name must be provided either as an argument or as MYSQL_DATABASE environment variable")
		}
	}

	db, err := sql.Open(dc.Driver, dc.DSN())
	if err != nil {
		dc.Logger.Errorf("Error opening %s database: %v", dc.Driver, err)
		return dcerrors.NewSourceNotFoundError(dc.Database, err)
	}

	// Test the connection
	err = db.Ping()
	if err != nil {
		dc.Logger.Errorf("Error pinging %s database: %v", dc.Driver, err)
		db.Close()
		return dcerrors.NewSourceNotFoundError(dc.Database, err)
	}

	dc.DB = db
	dc.Logger.Infof("Connected to %s database: %s", dc.Driver, dc.Database)
	return nil
}

// Disconnect closes the database connection
func (dc *DatabaseConnector) Disconnect() {
	if dc.DB != nil {
		err := dc.DB.Close()
		if err != nil {
			dc.Logger.Errorf("Error closing database connection: %v", err)
		} else {
			dc.Logger.Infof("%s connection closed", dc.Driver)
		}
	}
}

// QueryRows executes a SQL query and returns its column names and rows in textual form.
// NULL values become empty strings.
func (dc *DatabaseConnector) QueryRows(query string, params ...interface{}) ([]string, [][]string, error) {
	if dc.DB == nil {
		if err := dc.Connect(); err != nil {
			return nil, nil, err
		}
	}

	rows, err := dc.DB.Query(query, params...)
	if err != nil {
		dc.Logger.Errorf("Error executing query: %v", err)
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		dc.Logger.Errorf("Error getting columns: %v", err)
		return nil, nil, err
	}

	var results [][]string

	for rows.Next() {
		// Create a slice of interface{} to hold the values
		values := make([]interface{}, len(columns))
		// Create a slice of pointers to the values
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			dc.Logger.Errorf("Error scanning row: %v", err)
			return nil, nil, err
		}

		record := make([]string, len(columns))
		for i, val := range values {
			record[i] = formatValue(val)
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		dc.Logger.Errorf("Error iterating rows: %v", err)
		return nil, nil, err
	}

	return columns, results, nil
}

// ExecuteStatement executes a SQL statement and returns the number of affected rows
func (dc *DatabaseConnector) ExecuteStatement(query string, params ...interface{}) (int64, error) {
	if dc.DB == nil {
		if err := dc.Connect(); err != nil {
			return 0, err
		}
	}

	result, err := dc.DB.Exec(query, params...)
	if err != nil {
		dc.Logger.Errorf("Error executing statement: %v", err)
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		dc.Logger.Errorf("Error getting affected rows: %v", err)
		return 0, err
	}

	return affected, nil
}

// ExecuteMany executes a SQL statement with multiple parameter sets in one transaction
func (dc *DatabaseConnector) ExecuteMany(query string, paramsList [][]interface{}) (int64, error) {
	if dc.DB == nil {
		if err := dc.Connect(); err != nil {
			return 0, err
		}
	}

	tx, err := dc.DB.Begin()
	if err != nil {
		dc.Logger.Errorf("Error starting transaction: %v", err)
		return 0, err
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		dc.Logger.Errorf("Error preparing statement: %v", err)
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	var totalAffected int64

	for _, params := range paramsList {
		result, err := stmt.Exec(params...)
		if err != nil {
			dc.Logger.Errorf("Error executing batch statement: %v", err)
			tx.Rollback()
			return 0, err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			dc.Logger.Errorf("Error getting affected rows: %v", err)
			tx.Rollback()
			return 0, err
		}

		totalAffected += affected
	}

	if err := tx.Commit(); err != nil {
		dc.Logger.Errorf("Error committing transaction: %v", err)
		tx.Rollback()
		return 0, err
	}

	return totalAffected, nil
}

// formatValue renders a scanned column value as text
func formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// getEnvOrDefault gets an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
