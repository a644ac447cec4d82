// pkg/aggregator/aggregator.go
package aggregator

import (
	"sort"

	"go.uber.org/zap"

	"transport-climate-etl/pkg/model"
)

// gramsPerKilogram converts the road indicator from g/hab (as stored in
// the integrated table) to kg/hab for the summary.
const gramsPerKilogram = 1000.0

// Aggregator collapses multi-year integrated rows into one summary row
// per country.
type Aggregator struct {
	logger *zap.Logger
}

// NewAggregator creates an Aggregator. A nil logger falls back to the
// global zap logger.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.L()
	}
	return &Aggregator{logger: logger.Named("aggregator")}
}

// countryAccumulator gathers the running sums for one country's group.
type countryAccumulator struct {
	shareSum float64
	ghgSum   float64
	roadSum  float64
	rowCount int
	years    map[int]bool
	yearMin  int
	yearMax  int
}

// Aggregate groups the integrated table by country and computes the
// arithmetic mean of each indicator, the observed year span and the
// distinct-year count. The road indicator is converted from grams to
// kilograms here and nowhere else. An empty input yields an empty result.
func (a *Aggregator) Aggregate(rows []model.IntegratedRecord) []model.CountrySummary {
	if len(rows) == 0 {
		return nil
	}

	groups := make(map[string]*countryAccumulator)
	for _, row := range rows {
		acc, ok := groups[row.Country]
		if !ok {
			acc = &countryAccumulator{
				years:   make(map[int]bool),
				yearMin: row.Year,
				yearMax: row.Year,
			}
			groups[row.Country] = acc
		}

		acc.shareSum += row.ShareBusesTrains
		acc.ghgSum += row.GHGPerCapita
		acc.roadSum += row.RoadCO2PerCapita
		acc.rowCount++
		acc.years[row.Year] = true
		if row.Year < acc.yearMin {
			acc.yearMin = row.Year
		}
		if row.Year > acc.yearMax {
			acc.yearMax = row.Year
		}
	}

	summaries := make([]model.CountrySummary, 0, len(groups))
	for country, acc := range groups {
		n := float64(acc.rowCount)
		roadMeanG := acc.roadSum / n
		summaries = append(summaries, model.CountrySummary{
			Country:            country,
			ShareBusesTrains:   acc.shareSum / n,
			GHGPerCapita:       acc.ghgSum / n,
			RoadCO2PerCapitaG:  roadMeanG,
			RoadCO2PerCapitaKg: roadMeanG / gramsPerKilogram,
			YearMin:            acc.yearMin,
			YearMax:            acc.yearMax,
			DistinctYearCount:  len(acc.years),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Country < summaries[j].Country
	})

	a.logger.Debug("Aggregated integrated table",
		zap.Int("rows_in", len(rows)),
		zap.Int("countries", len(summaries)))

	return summaries
}
