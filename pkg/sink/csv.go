// pkg/sink/csv.go
package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"transport-climate-etl/pkg/model"
)

// IntegratedHeader is the column order of the integrated table CSV. Flag
// columns are suffixed per source to avoid collision.
var IntegratedHeader = []string{
	"country", "year",
	"share_buses_trains", "ghg_per_capita", "road_co2_per_capita",
	"OBS_FLAG_bt", "OBS_FLAG_ghg", "OBS_FLAG_road",
}

// SummaryHeader is the column order of the per-country summary CSV.
var SummaryHeader = []string{
	"country",
	"share_buses_trains", "ghg_per_capita",
	"road_co2_per_capita_g", "road_co2_per_capita_kg",
	"year_min", "year_max", "distinct_year_count",
}

// WriteIntegratedCSV serializes the integrated table as delimited text
// for the plotting collaborator, creating parent directories as needed.
func WriteIntegratedCSV(path string, rows []model.IntegratedRecord) error {
	return writeCSV(path, IntegratedHeader, func(w *csv.Writer) error {
		for _, r := range rows {
			record := []string{
				r.Country,
				strconv.Itoa(r.Year),
				formatFloat(r.ShareBusesTrains),
				formatFloat(r.GHGPerCapita),
				formatFloat(r.RoadCO2PerCapita),
				r.ShareFlag,
				r.GHGFlag,
				r.RoadFlag,
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteSummaryCSV serializes the per-country summary table.
func WriteSummaryCSV(path string, summaries []model.CountrySummary) error {
	return writeCSV(path, SummaryHeader, func(w *csv.Writer) error {
		for _, s := range summaries {
			record := []string{
				s.Country,
				formatFloat(s.ShareBusesTrains),
				formatFloat(s.GHGPerCapita),
				formatFloat(s.RoadCO2PerCapitaG),
				formatFloat(s.RoadCO2PerCapitaKg),
				strconv.Itoa(s.YearMin),
				strconv.Itoa(s.YearMax),
				strconv.Itoa(s.DistinctYearCount),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTrendJSON serializes the trend result for the chart-rendering
// collaborator's line overlay and annotation.
func WriteTrendJSON(path string, result model.TrendResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trend result: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write trend result: %w", err)
	}
	return nil
}

func writeCSV(path string, header []string, writeRows func(*csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writeRows(w); err != nil {
		return fmt.Errorf("failed to write rows to %s: %w", path, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
