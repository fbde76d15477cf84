package utils

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/dc4ds/internal/analyzer"
	"github.com/vitebski/dc4ds/pkg/models"
)

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	logger := logrus.New()

	// Get log level from environment variable or parameter
	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("DC4DS_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	// Reports go to stdout, so logs go to stderr
	logger.SetOutput(os.Stderr)

	logger.Debugf("Logging configured with level: %s", level)
	return logger
}

// LoadEnvironmentVariables loads environment variables from an .env file if it exists
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) bool {
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
		logger.Debugf("No %s file found, using existing environment variables", envFile)
		return false
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warningf("Error loading %s file: %v", envFile, err)
		return false
	}
	logger.Infof("Loaded environment variables from %s", envFile)

	// Log all DC4DS_* and MYSQL_* environment variables (for debugging)
	if logger.Level == logrus.DebugLevel {
		for _, env := range os.Environ() {
			if !strings.HasPrefix(env, "DC4DS_") && !strings.HasPrefix(env, "MYSQL_") {
				continue
			}
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				if parts[0] == "MYSQL_PASSWORD" {
					logger.Debugf("%s=********", parts[0])
				} else {
					logger.Debugf("%s=%s", parts[0], parts[1])
				}
			}
		}
	}

	return true
}

// GetEnvInt gets an integer value from environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// ParseRuneList turns a string of candidate characters into runes. The escapes \t and \s
// stand for tab and space, so candidates can be given in flags and .env files.
func ParseRuneList(s string) []rune {
	var runes []rune
	chars := []rune(s)
	for i := 0; i < len(chars); i++ {
		if chars[i] == '\\' && i+1 < len(chars) {
			switch chars[i+1] {
			case 't':
				runes = append(runes, '\t')
				i++
				continue
			case 's':
				runes = append(runes, ' ')
				i++
				continue
			case '\\':
				runes = append(runes, '\\')
				i++
				continue
			}
		}
		runes = append(runes, chars[i])
	}
	return runes
}

// ParseRune parses a single character flag value; an empty string yields 0 (sniff it)
func ParseRune(s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	runes := ParseRuneList(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("expected a single character, got %q", s)
	}
	return runes[0], nil
}

// ValidateConnectionParams validates database connection parameters
func ValidateConnectionParams(host, user, password, database, port string, logger *logrus.Logger) bool {
	if host == "" {
		logger.Error("Database host is required")
		return false
	}

	if user == "" {
		logger.Error("Database user is required")
		return false
	}

	if password == "" { // Empty password is allowed
		logger.Warning("Database password is empty")
	}

	if database == "" {
		logger.Error("Database name is required")
		return false
	}

	if _, err := strconv.Atoi(port); err != nil {
		logger.Errorf("Invalid port number: %s", port)
		return false
	}

	return true
}

// PrintReport prints the result of checking a dataset
func PrintReport(report *models.CheckReport, maxCells int) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("DATA QUALITY REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Run: %s\n", report.RunID)
	fmt.Printf("Rows: %d, columns: %d\n", report.Rows, len(report.Columns))

	for _, d := range report.Diagnostics {
		fmt.Printf("⚠️  %s: %s\n", d.Code, d.Message)
	}

	if len(report.Results) > 0 {
		fmt.Println("\n1. CONSTRAINTS")
		for i, res := range report.Results {
			status := "✅"
			if len(res.Violations) > 0 {
				status = "❌"
			}
			fmt.Printf("   %3d. %s %s over [%s]: %d violating rows\n",
				i+1, status, res.Name, strings.Join(res.Columns, ", "), len(res.Violations))
		}
	}

	cells := report.Errors.Sorted()
	fmt.Println("\n2. FLAGGED CELLS")
	fmt.Printf("   Total: %d cells in %d rows\n", len(cells), len(report.Errors.Rows()))
	for i, c := range cells {
		if maxCells > 0 && i >= maxCells {
			fmt.Printf("   ... %d more\n", len(cells)-maxCells)
			break
		}
		fmt.Printf("   row %d, column %s\n", c.Row, c.Column)
	}

	fmt.Println()
	if report.Consistent() {
		fmt.Println("✅ Dataset is consistent")
	} else {
		fmt.Println("❌ Dataset is inconsistent")
	}
	fmt.Println(strings.Repeat("=", 80))
}

// PrintDialectScores prints the dialect chosen for a file and how every candidate scored
func PrintDialectScores(fileName string, dialect models.Dialect, scores []models.DialectScore) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Printf("DIALECT OF %s\n", fileName)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Chosen: %s\n\n", dialect)

	for _, s := range scores {
		switch {
		case !s.Parsed:
			fmt.Printf("  %-28s unparsable\n", s.Dialect)
		case math.IsInf(s.Score, 1):
			fmt.Printf("  %-28s no split (%d rows)\n", s.Dialect, s.Rows)
		default:
			fmt.Printf("  %-28s %.4f (%d rows)\n", s.Dialect, s.Score, s.Rows)
		}
	}
	fmt.Println(strings.Repeat("=", 50))
}

// PrintTypes prints the inferred type of every column
func PrintTypes(columns []string, types []models.ColumnType) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("INFERRED COLUMN TYPES")
	fmt.Println(strings.Repeat("=", 50))
	for i, col := range columns {
		fmt.Printf("  %3d. %-24s %s\n", i+1, col, types[i])
	}
	fmt.Println(strings.Repeat("=", 50))
}

// PrintDependencyAnalysis prints the column dependency structure of the attached CFDs
func PrintDependencyAnalysis(da *analyzer.DependencyAnalyzer) {
	if len(da.Dependencies) == 0 {
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("COLUMN DEPENDENCIES")
	fmt.Println(strings.Repeat("=", 50))

	for _, col := range da.Columns {
		if deps, ok := da.Dependencies[col]; ok {
			fmt.Printf("  %s -> %s\n", col, strings.Join(deps, ", "))
		}
	}

	if order, ok := da.DerivationOrder(); ok {
		fmt.Printf("\n  Derivation order: %s\n", strings.Join(order, " -> "))
	} else {
		fmt.Println("\n  Cyclic dependencies:")
		for _, cycle := range da.Cycles() {
			fmt.Printf("    %s\n", strings.Join(cycle, " <-> "))
		}
	}
	fmt.Println(strings.Repeat("=", 50))
}
