package generator

import (
	"encoding/csv"
	"io"
	"math/rand"
	"strconv"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"
	"github.com/vitebski/dc4ds/pkg/models"
)

// MissingMarker is written in place of a value dropped from a sample
const MissingMarker = "?"

// SampleColumns are the columns of a generated customer sample
var SampleColumns = []string{"id", "name", "email", "zip", "city", "state", "age"}

// SampleRules checks a generated sample: no missing cities, plausible ages, and zip
// determining city and state, with the majority value presumed correct.
const SampleRules = `constraints:
  - name: city-present
    type: domain
    columns: [city]
    predicate:
      not_contains: "?"
  - name: age-range
    type: domain
    columns: [age]
    predicate:
      range: {min: 18, max: 99}
  - name: zip-determines-city
    type: cfd
    determinant: [zip]
    dependent: [city, state]
    ignore_max: true
`

// location is the canonical city and state of a zip code
type location struct {
	zip   string
	city  string
	state string
}

// Sample is a generated dataset together with the rows that were made dirty on purpose
type Sample struct {
	Columns      []string
	Rows         [][]string
	MissingRows  models.RowSet
	ConflictRows models.RowSet
}

// DataGenerator generates customer-like datasets with injected data-quality errors
type DataGenerator struct {
	Faker        faker.Faker
	Rand         *rand.Rand
	Zips         int
	MissingRate  float64
	ConflictRate float64
	Logger       *logrus.Logger
}

// NewDataGenerator creates a data generator; equal seeds produce equal samples
func NewDataGenerator(seed int64, logger *logrus.Logger) *DataGenerator {
	return &DataGenerator{
		Faker:        faker.NewWithSeed(rand.NewSource(seed)),
		Rand:         rand.New(rand.NewSource(seed + 1)),
		Zips:         10,
		MissingRate:  0.05,
		ConflictRate: 0.05,
		Logger:       logger,
	}
}

// GenerateSample generates numRows customers spread over a small pool of zip codes. Some
// rows get their city replaced by MissingMarker, others by a different city, which breaks
// the zip -> city dependency. Missing cities and conflicting cities never share a row.
func (dg *DataGenerator) GenerateSample(numRows int) *Sample {
	locations := dg.generateLocations()

	sample := &Sample{
		Columns:      append([]string(nil), SampleColumns...),
		Rows:         make([][]string, 0, numRows),
		MissingRows:  make(models.RowSet),
		ConflictRows: make(models.RowSet),
	}

	for i := 0; i < numRows; i++ {
		loc := locations[dg.Rand.Intn(len(locations))]
		city := loc.city

		switch r := dg.Rand.Float64(); {
		case r < dg.MissingRate:
			city = MissingMarker
			sample.MissingRows.Add(i)
		case r < dg.MissingRate+dg.ConflictRate:
			city = dg.otherCity(loc.city)
			sample.ConflictRows.Add(i)
		}

		sample.Rows = append(sample.Rows, []string{
			strconv.Itoa(i + 1),
			dg.Faker.Person().Name(),
			dg.Faker.Internet().Email(),
			loc.zip,
			city,
			loc.state,
			strconv.Itoa(18 + dg.Rand.Intn(70)),
		})
	}

	dg.Logger.Infof("Generated %d rows (%d missing cities, %d conflicting cities)",
		numRows, len(sample.MissingRows), len(sample.ConflictRows))
	return sample
}

// generateLocations builds the zip pool, skipping duplicate zip codes
func (dg *DataGenerator) generateLocations() []location {
	zips := dg.Zips
	if zips < 1 {
		zips = 1
	}

	seen := make(map[string]bool)
	var locations []location
	for attempts := 0; len(locations) < zips && attempts < zips*10; attempts++ {
		zip := dg.Faker.Address().PostCode()
		if seen[zip] {
			continue
		}
		seen[zip] = true
		locations = append(locations, location{
			zip:   zip,
			city:  dg.Faker.Address().City(),
			state: dg.Faker.Address().State(),
		})
	}
	return locations
}

// otherCity returns a city name different from city
func (dg *DataGenerator) otherCity(city string) string {
	for i := 0; i < 5; i++ {
		if other := dg.Faker.Address().City(); other != city {
			return other
		}
	}
	return city + " Heights"
}

// WriteCSV writes the sample with a header row, using delimiter between fields
func (s *Sample) WriteCSV(w io.Writer, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	if err := cw.Write(s.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(s.Rows); err != nil {
		return err
	}
	return cw.Error()
}
