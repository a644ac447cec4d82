// cmd/etl/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"transport-climate-etl/pkg/config"
	"transport-climate-etl/pkg/fetch"
	"transport-climate-etl/pkg/logging"
	"transport-climate-etl/pkg/pipeline"
)

var (
	envFile        string
	sourcesFile    string
	skipDownload   bool
	forceDownload  bool
	skipIntegrate  bool
	forceIntegrate bool
	skipTrend      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "etl",
		Short: "Eurostat transport-climate ETL pipeline",
		Long: `Downloads the three Eurostat transport and climate datasets,
normalizes and integrates them into a single per-country/per-year table,
and derives per-country summaries with a linear trend for visualization.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&envFile, "env-file", "", "env file to load (default .env when present)")
	rootCmd.Flags().StringVar(&sourcesFile, "sources", "", "TOML file overriding the built-in source schemas")
	rootCmd.Flags().BoolVar(&skipDownload, "skip-download", false, "never download, even when inputs are missing")
	rootCmd.Flags().BoolVar(&forceDownload, "force-download", false, "re-download all datasets")
	rootCmd.Flags().BoolVar(&skipIntegrate, "skip-integrate", false, "never integrate, even when the output is missing")
	rootCmd.Flags().BoolVar(&forceIntegrate, "force-integrate", false, "integrate even when the output already exists")
	rootCmd.Flags().BoolVar(&skipTrend, "skip-trend", false, "skip the trend fit and its JSON artifact")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stderr sync failure is not actionable

	specs, err := config.LoadSourceSpecs(sourcesFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// Download only when inputs are missing, or when forced
	missing := fetch.MissingFiles(cfg.InputDir)
	if forceDownload || (len(missing) > 0 && !skipDownload) {
		if len(missing) > 0 {
			logger.Info("Input datasets missing", zap.Strings("files", missing))
		}
		fetcher := fetch.NewFetcher(nil, logger)
		if err := fetcher.EnsureDatasets(ctx, cfg.InputDir, forceDownload); err != nil {
			return err
		}
	} else {
		logger.Info("Input datasets present, skipping download")
	}

	// Integrate when forced or when the integrated table is not there yet
	integratedPath := filepath.Join(cfg.OutputDir, cfg.IntegratedFile)
	_, statErr := os.Stat(integratedPath)
	if !forceIntegrate && (statErr == nil || skipIntegrate) {
		logger.Info("Integrated table present, skipping pipeline run",
			zap.String("path", integratedPath))
		return nil
	}

	p := pipeline.New(cfg, specs, logger)
	report, err := p.Run(ctx, pipeline.Options{SkipTrend: skipTrend})
	if err != nil {
		return err
	}

	fmt.Printf("Run %s: %d integrated rows across %d countries in %s\n",
		report.RunID, report.IntegratedRows, report.Countries, report.Duration.Round(time.Millisecond))
	if report.TrendAvailable {
		fmt.Printf("Trend: slope=%.3f kg per %%; R²=%.3f\n",
			report.Trend.Slope, report.Trend.RSquared)
	}
	return nil
}
