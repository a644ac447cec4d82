package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-climate-etl/pkg/model"
)

func TestAggregate_MeansAndYearSpan(t *testing.T) {
	a := NewAggregator(nil)

	rows := []model.IntegratedRecord{
		{Country: "DE", Year: 2015, ShareBusesTrains: 38.0, GHGPerCapita: 9.0, RoadCO2PerCapita: 1900.0},
		{Country: "DE", Year: 2018, ShareBusesTrains: 42.0, GHGPerCapita: 8.0, RoadCO2PerCapita: 1700.0},
	}

	summaries := a.Aggregate(rows)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "DE", s.Country)
	assert.InDelta(t, 40.0, s.ShareBusesTrains, 1e-9)
	assert.InDelta(t, 8.5, s.GHGPerCapita, 1e-9)
	assert.InDelta(t, 1800.0, s.RoadCO2PerCapitaG, 1e-9)
	assert.Equal(t, 2015, s.YearMin)
	assert.Equal(t, 2018, s.YearMax)
	assert.Equal(t, 2, s.DistinctYearCount)
}

func TestAggregate_GramsToKilograms(t *testing.T) {
	a := NewAggregator(nil)

	rows := []model.IntegratedRecord{
		{Country: "DE", Year: 2019, ShareBusesTrains: 40.0, GHGPerCapita: 8.2, RoadCO2PerCapita: 1500.0},
	}

	summaries := a.Aggregate(rows)
	require.Len(t, summaries, 1)
	assert.InDelta(t, 1.5, summaries[0].RoadCO2PerCapitaKg, 1e-9)
	assert.InDelta(t, 1500.0, summaries[0].RoadCO2PerCapitaG, 1e-9)
}

func TestAggregate_SingleYearCountry(t *testing.T) {
	a := NewAggregator(nil)

	rows := []model.IntegratedRecord{
		{Country: "AT", Year: 2019, ShareBusesTrains: 28.0, GHGPerCapita: 7.5, RoadCO2PerCapita: 2100.0},
	}

	summaries := a.Aggregate(rows)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 28.0, s.ShareBusesTrains)
	assert.Equal(t, s.YearMin, s.YearMax)
	assert.Equal(t, 1, s.DistinctYearCount)
}

func TestAggregate_DuplicateYearCountedOnce(t *testing.T) {
	a := NewAggregator(nil)

	// Fan-out from duplicate source keys: two rows, one distinct year
	rows := []model.IntegratedRecord{
		{Country: "DE", Year: 2019, ShareBusesTrains: 40.0, GHGPerCapita: 8.2, RoadCO2PerCapita: 1800.0},
		{Country: "DE", Year: 2019, ShareBusesTrains: 40.0, GHGPerCapita: 8.4, RoadCO2PerCapita: 1800.0},
	}

	summaries := a.Aggregate(rows)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].DistinctYearCount)
	assert.InDelta(t, 8.3, summaries[0].GHGPerCapita, 1e-9)
}

func TestAggregate_MultipleCountriesSorted(t *testing.T) {
	a := NewAggregator(nil)

	rows := []model.IntegratedRecord{
		{Country: "FR", Year: 2019, ShareBusesTrains: 30.0, GHGPerCapita: 6.5, RoadCO2PerCapita: 1900.0},
		{Country: "AT", Year: 2019, ShareBusesTrains: 28.0, GHGPerCapita: 7.5, RoadCO2PerCapita: 2100.0},
		{Country: "DE", Year: 2019, ShareBusesTrains: 40.0, GHGPerCapita: 8.2, RoadCO2PerCapita: 1800.0},
	}

	summaries := a.Aggregate(rows)
	require.Len(t, summaries, 3)
	assert.Equal(t, "AT", summaries[0].Country)
	assert.Equal(t, "DE", summaries[1].Country)
	assert.Equal(t, "FR", summaries[2].Country)
}

func TestAggregate_EmptyInput(t *testing.T) {
	a := NewAggregator(nil)

	assert.Empty(t, a.Aggregate(nil))
	assert.Empty(t, a.Aggregate([]model.IntegratedRecord{}))
}
