package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vitebski/dc4ds/internal/analyzer"
	"github.com/vitebski/dc4ds/internal/connector"
	"github.com/vitebski/dc4ds/internal/dataset"
	"github.com/vitebski/dc4ds/internal/exporter"
	"github.com/vitebski/dc4ds/internal/generator"
	"github.com/vitebski/dc4ds/internal/loader"
	"github.com/vitebski/dc4ds/internal/rules"
	"github.com/vitebski/dc4ds/internal/utils"
)

// sourceOptions selects where a dataset is loaded from
type sourceOptions struct {
	file       string
	header     bool
	delimiter  string
	quoteChar  string
	mysqlTable string
	sqlitePath string
	table      string

	host     string
	user     string
	password string
	database string
	port     string
}

func main() {
	var (
		envFile  string
		logLevel string
		logger   *logrus.Logger
	)

	rootCmd := &cobra.Command{
		Use:   "dc4ds",
		Short: "Data-quality constraints for tabular datasets",
		Long: `dc4ds

Checks tabular data against domain constraints and conditional functional
dependencies and reports the offending (row, column) cells. Delimited files
are loaded with automatic dialect detection; MySQL and SQLite tables can be
checked as well.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = utils.SetupLogging(logLevel)
			utils.LoadEnvironmentVariables(envFile, logger)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newCheckCmd(&logger),
		newSniffCmd(&logger),
		newInferCmd(&logger),
		newGenerateCmd(&logger),
	)

	if err := rootCmd.Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(int(exit))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitError ends the process with a status code without printing anything
type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func newCheckCmd(logger **logrus.Logger) *cobra.Command {
	var (
		opts        sourceOptions
		rulesFile   string
		exportTable string
		maxCells    int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a dataset against a rules file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := *logger
			if rulesFile == "" {
				return fmt.Errorf("--rules is required")
			}

			db, src, err := opts.open(log)
			if err != nil {
				log.Errorf("Failed to open source: %v", err)
				return err
			}
			if db != nil {
				defer db.Disconnect()
			}

			ds, err := dataset.New(src, log)
			if err != nil {
				log.Errorf("Failed to load dataset: %v", err)
				return err
			}

			ruleFile, err := rules.LoadFile(rulesFile)
			if err != nil {
				log.Errorf("Failed to load rules: %v", err)
				return err
			}
			constraints, err := ruleFile.Compile(ds)
			if err != nil {
				log.Errorf("Failed to compile rules: %v", err)
				return err
			}
			for _, c := range constraints {
				if err := ds.AddConstraint(c); err != nil {
					log.Errorf("Failed to attach %s: %v", c.Name(), err)
					return err
				}
			}

			dependencyAnalyzer := analyzer.NewDependencyAnalyzer(ds, log)
			if err := dependencyAnalyzer.Analyze(ds, ds.Constraints()); err != nil {
				log.Errorf("Failed to analyze dependencies: %v", err)
				return err
			}
			if !dependencyAnalyzer.Acyclic() {
				log.Warningf("Rules contain cyclic dependencies between columns: %v", dependencyAnalyzer.Cycles())
			}
			utils.PrintDependencyAnalysis(dependencyAnalyzer)

			report, err := ds.Check()
			if err != nil {
				log.Errorf("Failed to check dataset: %v", err)
				return err
			}
			utils.PrintReport(report, maxCells)

			if exportTable != "" {
				target := db
				if target == nil {
					target = opts.connector(log)
					if err := target.Connect(); err != nil {
						log.Errorf("Failed to connect to export database: %v", err)
						return err
					}
					defer target.Disconnect()
				}
				exported, err := exporter.NewViolationExporter(target, exportTable, log).Export(report)
				if err != nil {
					log.Errorf("Failed to export violations: %v", err)
					return err
				}
				log.Infof("Exported %d flagged cells to %s", exported, exportTable)
			}

			if !report.Consistent() {
				return exitError(1)
			}
			return nil
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "Path to the YAML rules file")
	cmd.Flags().StringVar(&exportTable, "export-table", "", "Write flagged cells into this SQL table")
	cmd.Flags().IntVar(&maxCells, "max-cells", utils.GetEnvInt("DC4DS_MAX_CELLS", 50), "Maximum number of flagged cells to print (0 for all)")
	return cmd
}

func newSniffCmd(logger **logrus.Logger) *cobra.Command {
	var opts sourceOptions

	cmd := &cobra.Command{
		Use:   "sniff",
		Short: "Detect the dialect of a delimited file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := *logger
			csvLoader, err := opts.csvLoader(log)
			if err != nil {
				log.Errorf("Failed to open file: %v", err)
				return err
			}
			rows, err := csvLoader.Load()
			if err != nil {
				return err
			}
			utils.PrintDialectScores(opts.file, csvLoader.Dialect(), csvLoader.Scores())
			fmt.Printf("Rows: %d\n", len(rows))
			return nil
		},
	}

	opts.bindFile(cmd)
	return cmd
}

func newInferCmd(logger **logrus.Logger) *cobra.Command {
	var opts sourceOptions

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Infer the type of every column of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := *logger
			db, src, err := opts.open(log)
			if err != nil {
				log.Errorf("Failed to open source: %v", err)
				return err
			}
			if db != nil {
				defer db.Disconnect()
			}

			ds, err := dataset.New(src, log)
			if err != nil {
				log.Errorf("Failed to load dataset: %v", err)
				return err
			}
			utils.PrintTypes(ds.ColumnNames(), ds.Types())
			return nil
		},
	}

	opts.bind(cmd)
	return cmd
}

func newGenerateCmd(logger **logrus.Logger) *cobra.Command {
	var (
		rows      int
		seed      int64
		out       string
		rulesOut  string
		delimiter string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic customer dataset with injected errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := *logger
			delim, err := utils.ParseRune(delimiter)
			if err != nil {
				return err
			}
			if delim == 0 {
				delim = ','
			}

			dataGenerator := generator.NewDataGenerator(seed, log)
			sample := dataGenerator.GenerateSample(rows)

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					log.Errorf("Failed to create %s: %v", out, err)
					return err
				}
				defer f.Close()
				w = f
			}
			if err := sample.WriteCSV(w, delim); err != nil {
				log.Errorf("Failed to write sample: %v", err)
				return err
			}

			if rulesOut != "" {
				if err := os.WriteFile(rulesOut, []byte(generator.SampleRules), 0o644); err != nil {
					log.Errorf("Failed to write rules: %v", err)
					return err
				}
			}

			if out != "" {
				log.Infof("Sample written to %s", out)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", utils.GetEnvInt("DC4DS_SAMPLE_ROWS", 100), "Number of rows to generate")
	cmd.Flags().Int64VarP(&seed, "seed", "s", 1, "Random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&rulesOut, "rules-out", "", "Also write a rules file matching the sample")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "Field delimiter (default: ,)")
	return cmd
}

func (o *sourceOptions) bindFile(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Path to a delimited text file")
	cmd.Flags().BoolVar(&o.header, "header", false, "Treat the first row as column names")
	cmd.Flags().StringVar(&o.delimiter, "delimiter", "", "Field delimiter (default: sniffed from DC4DS_DELIMITERS)")
	cmd.Flags().StringVar(&o.quoteChar, "quotechar", "", "Quote character (default: sniffed from DC4DS_QUOTECHARS)")
}

func (o *sourceOptions) bind(cmd *cobra.Command) {
	o.bindFile(cmd)
	cmd.Flags().StringVar(&o.mysqlTable, "mysql-table", "", "Load this MySQL table instead of a file")
	cmd.Flags().StringVar(&o.sqlitePath, "sqlite", "", "SQLite database file")
	cmd.Flags().StringVar(&o.table, "table", "", "Table to load from the SQLite database")
	cmd.Flags().StringVarP(&o.host, "host", "H", "", "MySQL host (default: localhost)")
	cmd.Flags().StringVarP(&o.user, "user", "u", "", "MySQL user (default: root)")
	cmd.Flags().StringVarP(&o.password, "password", "p", "", "MySQL password")
	cmd.Flags().StringVarP(&o.database, "database", "d", "", "MySQL database name")
	cmd.Flags().StringVarP(&o.port, "port", "P", "", "MySQL port (default: 3306)")
}

// connector returns a SQLite connector when --sqlite is set, a MySQL one otherwise
func (o *sourceOptions) connector(logger *logrus.Logger) *connector.DatabaseConnector {
	if o.sqlitePath != "" {
		return connector.NewSQLiteConnector(o.sqlitePath, logger)
	}
	return connector.NewDatabaseConnector(o.host, o.user, o.password, o.database, o.port, logger)
}

func (o *sourceOptions) csvLoader(logger *logrus.Logger) (*loader.CSVLoader, error) {
	if o.file == "" {
		return nil, fmt.Errorf("--file is required")
	}
	delim, err := utils.ParseRune(o.delimiter)
	if err != nil {
		return nil, fmt.Errorf("--delimiter: %w", err)
	}
	quote, err := utils.ParseRune(o.quoteChar)
	if err != nil {
		return nil, fmt.Errorf("--quotechar: %w", err)
	}

	csvLoader, err := loader.NewCSVLoader(o.file, delim, quote, logger)
	if err != nil {
		return nil, err
	}
	if delim == 0 {
		if env := utils.ParseRuneList(os.Getenv("DC4DS_DELIMITERS")); len(env) > 0 {
			csvLoader.Delimiters = env
		}
	}
	if quote == 0 {
		if env := utils.ParseRuneList(os.Getenv("DC4DS_QUOTECHARS")); len(env) > 0 {
			csvLoader.QuoteChars = env
		}
	}
	csvLoader.Header = o.header
	return csvLoader, nil
}

// open builds the source selected by the flags. The returned connector is nil for files.
func (o *sourceOptions) open(logger *logrus.Logger) (*connector.DatabaseConnector, loader.Source, error) {
	switch {
	case o.mysqlTable != "":
		db := o.connector(logger)
		if !utils.ValidateConnectionParams(db.Host, db.User, db.Password, db.Database, db.Port, logger) {
			return nil, nil, fmt.Errorf("invalid MySQL connection parameters")
		}
		if err := db.Connect(); err != nil {
			return nil, nil, err
		}
		return db, loader.NewSQLTableSource(db, o.mysqlTable), nil
	case o.sqlitePath != "" && o.file == "":
		if o.table == "" {
			return nil, nil, fmt.Errorf("--table is required with --sqlite")
		}
		db := o.connector(logger)
		if err := db.Connect(); err != nil {
			return nil, nil, err
		}
		return db, loader.NewSQLTableSource(db, o.table), nil
	default:
		csvLoader, err := o.csvLoader(logger)
		if err != nil {
			return nil, nil, err
		}
		return nil, csvLoader, nil
	}
}
