// Package inference guesses a type tag for every column of a loaded table.
// The tags feed featurization downstream; constraint evaluation never reads them.
package inference

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vitebski/dc4ds/pkg/models"
)

// MaxCategories is the largest number of distinct values a categorical column may hold.
var MaxCategories = 50

// addressRegex matches values that start with a street number followed by a word
var addressRegex = regexp.MustCompile(`^\d+[A-Za-z]?\s+[A-Za-z]`)

// missing markers are ignored when inferring a column's type
var missing = map[string]bool{
	"":     true,
	"?":    true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

// InferTypes returns one type tag per column of rows.
func InferTypes(rows [][]string, width int) []models.ColumnType {
	types := make([]models.ColumnType, width)
	for col := 0; col < width; col++ {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[col])
			if missing[strings.ToLower(v)] {
				continue
			}
			values = append(values, v)
		}
		types[col] = InferColumn(values)
	}
	return types
}

// InferColumn returns the type tag for a column's non-missing values.
func InferColumn(values []string) models.ColumnType {
	if len(values) == 0 {
		return models.String
	}

	numeric := true
	addresses := 0
	distinct := make(map[string]struct{})
	for _, v := range values {
		if numeric {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
			}
		}
		if addressRegex.MatchString(v) {
			addresses++
		}
		distinct[v] = struct{}{}
	}

	switch {
	case numeric:
		return models.Numeric
	case addresses*2 >= len(values):
		return models.Address
	case len(distinct) <= MaxCategories && len(distinct)*2 <= len(values):
		return models.Categorical
	default:
		return models.String
	}
}
