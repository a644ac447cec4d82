// pkg/model/records.go
package model

import (
	"fmt"
	"math"
)

// Well-known SDMX-CSV column names shared by all three Eurostat sources
const (
	ColCountry = "geo"
	ColYear    = "TIME_PERIOD"
	ColValue   = "OBS_VALUE"
	ColFlag    = "OBS_FLAG"
)

// RawRecord is a single row of an upstream table as delivered: a mapping
// from column name to the raw cell text. No schema is guaranteed.
type RawRecord map[string]string

// RecordKey is the composite join key shared by all normalized tables.
type RecordKey struct {
	Country string
	Year    int
}

// String returns the key in "country/year" form for logs and diagnostics.
func (k RecordKey) String() string {
	return fmt.Sprintf("%s/%d", k.Country, k.Year)
}

// NormalizedRecord is the common post-filter shape of one source row.
// Country, Year and Value are always populated; rows that failed coercion
// never leave the normalizer.
type NormalizedRecord struct {
	Country string            // ISO-alpha-2-like code
	Year    int               // observation year
	Value   float64           // indicator value, always finite
	Flag    string            // OBS_FLAG passthrough, opaque
	Extra   map[string]string // diagnostic passthrough columns, never joined on
}

// Key returns the (country, year) join key for this record.
func (r NormalizedRecord) Key() RecordKey {
	return RecordKey{Country: r.Country, Year: r.Year}
}

// IntegratedRecord is one row per (country, year) present in all three
// normalized tables. RoadCO2PerCapita is stored in grams per capita; the
// aggregator converts to kilograms.
type IntegratedRecord struct {
	Country          string
	Year             int
	ShareBusesTrains float64 // percent of inland passenger transport
	GHGPerCapita     float64 // tonnes CO2e per capita per year
	RoadCO2PerCapita float64 // grams per capita per year
	ShareFlag        string  // OBS_FLAG from the mode-share source
	GHGFlag          string  // OBS_FLAG from the greenhouse-gas source
	RoadFlag         string  // OBS_FLAG from the road-emissions source
}

// Complete reports whether all three indicator values are usable.
// Upstream filtering should make this always true; the integrator checks
// anyway before emitting a row.
func (r IntegratedRecord) Complete() bool {
	return isFinite(r.ShareBusesTrains) && isFinite(r.GHGPerCapita) && isFinite(r.RoadCO2PerCapita)
}

// CountrySummary collapses all integrated years of one country into a
// single row for the scatter visualisation.
type CountrySummary struct {
	Country            string
	ShareBusesTrains   float64 // mean, percent
	GHGPerCapita       float64 // mean, tonnes CO2e per capita
	RoadCO2PerCapitaG  float64 // mean, grams per capita
	RoadCO2PerCapitaKg float64 // mean, kilograms per capita
	YearMin            int
	YearMax            int
	DistinctYearCount  int
}

// TrendPoint is one sampled point of the fitted regression line.
type TrendPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrendResult holds the least-squares line fitted over the country
// summaries (x = mean buses+trains share, y = mean road CO2 in kg).
type TrendResult struct {
	Slope     float64      `json:"slope"`
	Intercept float64      `json:"intercept"`
	RSquared  float64      `json:"r_squared"`
	Points    int          `json:"points"`
	Line      []TrendPoint `json:"line"`
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
