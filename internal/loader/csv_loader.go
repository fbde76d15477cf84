package loader

import (
	"os"

	"github.com/sirupsen/logrus"
	dcerrors "github.com/vitebski/dc4ds/internal/errors"
	"github.com/vitebski/dc4ds/pkg/models"
)

// CSVLoader loads a delimited text file. Unless pinned, the delimiter and quote character
// are guessed by trying every candidate combination.
type CSVLoader struct {
	FileName   string
	Delimiters []rune
	QuoteChars []rune
	Header     bool
	Logger     *logrus.Logger

	detection *Detection
	names     []string
}

// NewCSVLoader creates a loader for fileName. A zero delimiter or quoteChar means sniff it
// from the default candidates. The file must exist.
func NewCSVLoader(fileName string, delimiter, quoteChar rune, logger *logrus.Logger) (*CSVLoader, error) {
	info, err := os.Stat(fileName)
	if err != nil {
		return nil, dcerrors.NewSourceNotFoundError(fileName, err)
	}
	if info.IsDir() {
		return nil, dcerrors.NewSourceNotFoundError(fileName, nil).WithDetail("reason", "is a directory")
	}

	cl := &CSVLoader{
		FileName:   fileName,
		Delimiters: DefaultDelimiters,
		QuoteChars: DefaultQuoteChars,
		Logger:     logger,
	}
	if delimiter != 0 {
		cl.Delimiters = []rune{delimiter}
	}
	if quoteChar != 0 {
		cl.QuoteChars = []rune{quoteChar}
	}
	return cl, nil
}

// Load reads the file, sniffs its dialect and returns the parsed rows. With Header set, the
// first row is taken as column names and not returned.
func (cl *CSVLoader) Load() ([][]string, error) {
	data, err := os.ReadFile(cl.FileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dcerrors.NewSourceNotFoundError(cl.FileName, err)
		}
		return nil, dcerrors.NewSourceReadError(cl.FileName, err)
	}

	det, err := Detect(data, cl.Delimiters, cl.QuoteChars)
	if err != nil {
		cl.Logger.Errorf("No dialect could parse %s: %v", cl.FileName, err)
		return nil, dcerrors.NewUnparsableDialectError(cl.FileName, err)
	}
	cl.detection = det

	if det.Fallback {
		cl.Logger.Warningf("No delimiter found for %s, split on spaces", cl.FileName)
	}
	cl.Logger.Infof("Loaded %d rows from %s (%s)", len(det.Rows), cl.FileName, det.Dialect)

	rows := det.Rows
	if cl.Header && len(rows) > 0 {
		cl.names = rows[0]
		rows = rows[1:]
	}
	return rows, nil
}

// Dialect returns the dialect chosen by the last Load.
func (cl *CSVLoader) Dialect() models.Dialect {
	if cl.detection == nil {
		return models.Dialect{}
	}
	return cl.detection.Dialect
}

// Scores returns the candidate scores computed by the last Load.
func (cl *CSVLoader) Scores() []models.DialectScore {
	if cl.detection == nil {
		return nil
	}
	return cl.detection.Scores
}

// ColumnNames returns the header row when Header is set.
func (cl *CSVLoader) ColumnNames() []string {
	return cl.names
}
