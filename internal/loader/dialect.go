package loader

import (
	"errors"
	"math"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vitebski/dc4ds/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Default candidate sets tried when no delimiter or quote character is given.
var (
	DefaultDelimiters = []rune{',', '\t', ':', '~', '|'}
	DefaultQuoteChars = []rune{'"', '\'', '|', ':'}
)

// FallbackDialect is used when sniffing finds no delimiter that splits the rows.
var FallbackDialect = models.Dialect{Delimiter: ' ', QuoteChar: '"'}

var (
	errSameDelimiterAndQuote = errors.New("delimiter and quote character must differ")
	errUnterminatedQuote     = errors.New("unterminated quoted field")
)

// Detection is the outcome of sniffing a file's dialect
type Detection struct {
	Dialect  models.Dialect
	Rows     [][]string
	Scores   []models.DialectScore
	Fallback bool
}

// Parse tokenizes data with a fixed dialect. A quote character opening a field escapes
// delimiters and line breaks up to the matching closing quote; a doubled quote inside a
// quoted field is a literal quote. Blank lines are skipped.
func Parse(data []byte, d models.Dialect) ([][]string, error) {
	if d.Delimiter == d.QuoteChar {
		return nil, errSameDelimiterAndQuote
	}

	const (
		fieldStart = iota
		unquoted
		quoted
		quoteInQuoted
	)

	var (
		rows   [][]string
		record []string
		field  strings.Builder
		state  = fieldStart
		// dirty is set once the current record holds any content, so blank lines can be skipped.
		dirty bool
	)

	endField := func() {
		record = append(record, field.String())
		field.Reset()
	}
	endRecord := func() {
		if dirty {
			endField()
			rows = append(rows, record)
		}
		record = nil
		field.Reset()
		dirty = false
		state = fieldStart
	}

	s := string(data)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		// raw keeps invalid UTF-8 bytes as they are
		raw := s[i : i+size]
		i += size

		switch state {
		case fieldStart, unquoted:
			switch {
			case r == '\n' || r == '\r':
				if r == '\r' && i < len(s) && s[i] == '\n' {
					i++
				}
				endRecord()
			case r == d.Delimiter:
				endField()
				dirty = true
				state = fieldStart
			case r == d.QuoteChar && state == fieldStart:
				dirty = true
				state = quoted
			default:
				field.WriteString(raw)
				dirty = true
				state = unquoted
			}
		case quoted:
			if r == d.QuoteChar {
				state = quoteInQuoted
			} else {
				field.WriteString(raw)
			}
		case quoteInQuoted:
			switch {
			case r == d.QuoteChar:
				field.WriteString(raw)
				state = quoted
			case r == d.Delimiter:
				endField()
				state = fieldStart
			case r == '\n' || r == '\r':
				if r == '\r' && i < len(s) && s[i] == '\n' {
					i++
				}
				endRecord()
			default:
				// Text after a closing quote is kept, as lenient readers do.
				field.WriteString(raw)
				state = unquoted
			}
		}
	}

	if state == quoted {
		return nil, errUnterminatedQuote
	}
	endRecord()

	return rows, nil
}

// ScoreRows measures how irregular the row shape of a parse is: the population standard
// deviation of the number of non-blank fields per row. A parse whose first row was not
// split at all scores +Inf, as does an empty parse.
func ScoreRows(rows [][]string) float64 {
	if len(rows) == 0 || len(rows[0]) == 1 {
		return math.Inf(1)
	}

	counts := make([]float64, len(rows))
	var sum float64
	for i, row := range rows {
		n := 0
		for _, f := range row {
			if strings.TrimSpace(f) != "" {
				n++
			}
		}
		counts[i] = float64(n)
		sum += counts[i]
	}

	mean := sum / float64(len(counts))
	var variance float64
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	return math.Sqrt(variance / float64(len(counts)))
}

// candidate is one (delimiter, quote) combination and its parse
type candidate struct {
	dialect models.Dialect
	rows    [][]string
	err     error
	score   float64
}

// Detect parses data once per (delimiter, quote) combination and keeps the parse with the
// most uniform row shape. Combinations that fail to parse are excluded. Ties go to the
// earlier delimiter, then the earlier quote character. When the best parse does not split
// its first row, or nothing parsed, the data is re-parsed with FallbackDialect.
func Detect(data []byte, delimiters, quoteChars []rune) (*Detection, error) {
	if len(delimiters) == 0 {
		delimiters = DefaultDelimiters
	}
	if len(quoteChars) == 0 {
		quoteChars = DefaultQuoteChars
	}

	candidates := make([]*candidate, 0, len(delimiters)*len(quoteChars))
	for _, delim := range delimiters {
		for _, quote := range quoteChars {
			candidates = append(candidates, &candidate{dialect: models.Dialect{Delimiter: delim, QuoteChar: quote}})
		}
	}

	// Each goroutine writes only its own candidate.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, c := range candidates {
		c := c
		g.Go(func() error {
			c.rows, c.err = Parse(data, c.dialect)
			if c.err == nil {
				c.score = ScoreRows(c.rows)
			}
			return nil
		})
	}
	_ = g.Wait()

	det := &Detection{Scores: make([]models.DialectScore, 0, len(candidates))}
	var parsed []*candidate
	for _, c := range candidates {
		det.Scores = append(det.Scores, models.DialectScore{
			Dialect: c.dialect,
			Score:   c.score,
			Parsed:  c.err == nil,
			Rows:    len(c.rows),
		})
		if c.err == nil {
			parsed = append(parsed, c)
		}
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].score < parsed[j].score
	})

	if len(parsed) > 0 {
		best := parsed[0]
		if len(best.rows) == 0 {
			det.Dialect = best.dialect
			return det, nil
		}
		if len(best.rows[0]) != 1 {
			det.Dialect = best.dialect
			det.Rows = best.rows
			return det, nil
		}
	}

	rows, err := Parse(data, FallbackDialect)
	if err != nil {
		return nil, err
	}
	det.Dialect = FallbackDialect
	det.Rows = rows
	det.Fallback = true
	return det, nil
}
