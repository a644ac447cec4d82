package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"transport-climate-etl/pkg/config"
)

func writeInput(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		InputDir:       t.TempDir(),
		OutputDir:      t.TempDir(),
		IntegratedFile: "integrated.csv",
		SummaryFile:    "summary.csv",
		TrendFile:      "trend.json",
		LineSamples:    10,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)

	writeInput(t, cfg.InputDir, "buses_trains_passenger_transport.csv",
		"vehicle,geo,TIME_PERIOD,OBS_VALUE,OBS_FLAG\n"+
			"TRN_BUS_TOT_AVD,DE,2019,40.0,\n"+
			"CAR,DE,2019,55.0,\n")
	writeInput(t, cfg.InputDir, "greenhouse_gas_emissions.csv",
		"unit,src_crf,geo,TIME_PERIOD,OBS_VALUE,OBS_FLAG\n"+
			"T_HAB,TOTXMEMO,DE,2019,8.2,\n"+
			"MIO_T,TOTXMEMO,DE,2019,700,\n")
	writeInput(t, cfg.InputDir, "road_transport_air_emissions.csv",
		"indic_env,airpol,unit,geo,TIME_PERIOD,OBS_VALUE,OBS_FLAG\n"+
			"AEMIS_RES,CO2,KG_HAB,DE,2019,1800.0,\n"+
			"AEMIS_RES,NOX,KG_HAB,DE,2019,12.0,\n")

	p := New(cfg, config.DefaultSourceSpecs(), zap.NewNop())
	report, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.IntegratedRows)
	assert.Equal(t, 1, report.Countries)
	assert.False(t, report.TrendAvailable) // one country, no trend
	assert.Equal(t, 6, report.TotalRowsRead())

	// Integrated table: exactly one row, DE,2019,40.0,8.2,1800.0
	f, err := os.Open(filepath.Join(cfg.OutputDir, cfg.IntegratedFile))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"DE", "2019", "40", "8.2", "1800", "", "", ""}, records[1])

	// Country summary: share=40.0 ghg=8.2 road_kg=1.8, single-year span
	sf, err := os.Open(filepath.Join(cfg.OutputDir, cfg.SummaryFile))
	require.NoError(t, err)
	defer sf.Close()
	summaryRecords, err := csv.NewReader(sf).ReadAll()
	require.NoError(t, err)
	require.Len(t, summaryRecords, 2)
	assert.Equal(t, []string{"DE", "40", "8.2", "1800", "1.8", "2019", "2019", "1"}, summaryRecords[1])

	// No trend artifact for a single country
	_, err = os.Stat(filepath.Join(cfg.OutputDir, cfg.TrendFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_TrendAcrossCountries(t *testing.T) {
	cfg := testConfig(t)

	writeInput(t, cfg.InputDir, "buses_trains_passenger_transport.csv",
		"vehicle,geo,TIME_PERIOD,OBS_VALUE,OBS_FLAG\n"+
			"TRN_BUS_TOT_AVD,DE,2019,40.0,\n"+
			"TRN_BUS_TOT_AVD,FR,2019,30.0,\n"+
			"TRN_BUS_TOT_AVD,AT,2019,20.0,\n")
	writeInput(t, cfg.InputDir, "greenhouse_gas_emissions.csv",
		"unit,src_crf,geo,TIME_PERIOD,OBS_VALUE,OBS_FLAG\n"+
			"T_HAB,TOTXMEMO,DE,2019,8.2,\n"+
			"T_HAB,TOTXMEMO,FR,2019,6.5,\n"+
			"T_HAB,TOTXMEMO,AT,2019,7.5,\n")
	writeInput(t, cfg.InputDir, "road_transport_air_emissions.csv",
		"indic_env,airpol,unit,geo,TIME_PERIOD,OBS_VALUE,OBS_FLAG\n"+
			"AEMIS_RES,CO2,KG_HAB,DE,2019,1000.0,\n"+
			"AEMIS_RES,CO2,KG_HAB,FR,2019,2000.0,\n"+
			"AEMIS_RES,CO2,KG_HAB,AT,2019,3000.0,\n")

	p := New(cfg, config.DefaultSourceSpecs(), zap.NewNop())
	report, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.IntegratedRows)
	assert.Equal(t, 3, report.Countries)
	require.True(t, report.TrendAvailable)

	// Road kg decreases by 1 for every 10 points of share: slope -0.1
	assert.InDelta(t, -0.1, report.Trend.Slope, 1e-9)
	assert.InDelta(t, 1.0, report.Trend.RSquared, 1e-9)
	assert.Len(t, report.Trend.Line, cfg.LineSamples)

	_, err = os.Stat(filepath.Join(cfg.OutputDir, cfg.TrendFile))
	assert.NoError(t, err)
}

func TestRun_SkipTrend(t *testing.T) {
	cfg := testConfig(t)

	writeInput(t, cfg.InputDir, "buses_trains_passenger_transport.csv",
		"vehicle,geo,TIME_PERIOD,OBS_VALUE\nTRN_BUS_TOT_AVD,DE,2019,40.0\nTRN_BUS_TOT_AVD,FR,2019,30.0\n")
	writeInput(t, cfg.InputDir, "greenhouse_gas_emissions.csv",
		"unit,src_crf,geo,TIME_PERIOD,OBS_VALUE\nT_HAB,TOTXMEMO,DE,2019,8.2\nT_HAB,TOTXMEMO,FR,2019,6.5\n")
	writeInput(t, cfg.InputDir, "road_transport_air_emissions.csv",
		"indic_env,airpol,unit,geo,TIME_PERIOD,OBS_VALUE\nAEMIS_RES,CO2,KG_HAB,DE,2019,1000.0\nAEMIS_RES,CO2,KG_HAB,FR,2019,2000.0\n")

	p := New(cfg, config.DefaultSourceSpecs(), zap.NewNop())
	report, err := p.Run(context.Background(), Options{SkipTrend: true})
	require.NoError(t, err)

	assert.False(t, report.TrendAvailable)
	_, err = os.Stat(filepath.Join(cfg.OutputDir, cfg.TrendFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_EmptySourcesAreNotAnError(t *testing.T) {
	cfg := testConfig(t)

	writeInput(t, cfg.InputDir, "buses_trains_passenger_transport.csv",
		"vehicle,geo,TIME_PERIOD,OBS_VALUE\n")
	writeInput(t, cfg.InputDir, "greenhouse_gas_emissions.csv",
		"unit,src_crf,geo,TIME_PERIOD,OBS_VALUE\n")
	writeInput(t, cfg.InputDir, "road_transport_air_emissions.csv",
		"indic_env,airpol,unit,geo,TIME_PERIOD,OBS_VALUE\n")

	p := New(cfg, config.DefaultSourceSpecs(), zap.NewNop())
	report, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Zero(t, report.IntegratedRows)
	assert.Zero(t, report.Countries)
	assert.False(t, report.TrendAvailable)

	// The empty integrated table is still written for downstream stages
	_, err = os.Stat(filepath.Join(cfg.OutputDir, cfg.IntegratedFile))
	assert.NoError(t, err)
}

func TestRun_MissingInputFileFailsRun(t *testing.T) {
	cfg := testConfig(t)

	p := New(cfg, config.DefaultSourceSpecs(), zap.NewNop())
	_, err := p.Run(context.Background(), Options{})
	assert.Error(t, err)
}
