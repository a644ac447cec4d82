// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"transport-climate-etl/pkg/aggregator"
	"transport-climate-etl/pkg/config"
	"transport-climate-etl/pkg/integrator"
	"transport-climate-etl/pkg/model"
	"transport-climate-etl/pkg/normalizer"
	"transport-climate-etl/pkg/sink"
	"transport-climate-etl/pkg/source"
	"transport-climate-etl/pkg/trend"
)

// Options control which optional stages a run performs.
type Options struct {
	// SkipTrend leaves out the trend fit and its JSON artifact.
	SkipTrend bool
}

// Pipeline wires the normalize → integrate → aggregate → trend stages
// together and writes the output artifacts. Each stage is a pure function
// over in-memory tables; the pipeline owns only the plumbing between them.
type Pipeline struct {
	cfg        *config.Config
	specs      []model.SourceSpec
	logger     *zap.Logger
	normalizer *normalizer.Normalizer
	integrator *integrator.Integrator
	aggregator *aggregator.Aggregator
	estimator  *trend.Estimator
}

// New creates a Pipeline from configuration and source schemas.
func New(cfg *config.Config, specs []model.SourceSpec, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("pipeline")

	return &Pipeline{
		cfg:        cfg,
		specs:      specs,
		logger:     logger,
		normalizer: normalizer.NewNormalizer(logger),
		integrator: integrator.NewIntegrator(logger),
		aggregator: aggregator.NewAggregator(logger),
		estimator:  trend.NewEstimator(logger, cfg.LineSamples),
	}
}

// Run executes a full batch recompute: load and normalize the three
// sources, join, aggregate, fit the trend, and write the artifacts.
// Data-quality problems are tolerated and counted; only structurally
// unusable inputs (missing files, unwritable outputs) fail the run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*RunReport, error) {
	report := NewRunReport()
	p.logger.Info("Starting pipeline run", zap.String("run_id", report.RunID))

	normalized := make(map[model.SourceKind][]model.NormalizedRecord, len(p.specs))
	for _, spec := range p.specs {
		records, stats, err := p.runSource(spec)
		if err != nil {
			return nil, err
		}
		normalized[spec.Kind] = records
		report.AddSourceStats(stats)
	}

	integrated := p.integrator.Integrate(
		normalized[model.SourceBusesTrains],
		normalized[model.SourceGreenhouseGas],
		normalized[model.SourceRoadEmissions],
	)
	report.IntegratedRows = len(integrated)

	summaries := p.aggregator.Aggregate(integrated)
	report.Countries = len(summaries)

	if !opts.SkipTrend {
		result, ok := p.estimator.Fit(summaries)
		report.Trend = result
		report.TrendAvailable = ok
	}

	if err := p.writeArtifacts(ctx, integrated, summaries, report, opts); err != nil {
		return nil, err
	}

	report.Complete()
	report.LogSummary(p.logger)
	return report, nil
}

// runSource loads one raw table from disk and normalizes it.
func (p *Pipeline) runSource(spec model.SourceSpec) ([]model.NormalizedRecord, SourceStats, error) {
	start := time.Now()
	path := filepath.Join(p.cfg.InputDir, spec.File)

	rows, err := source.ReadTable(path)
	if err != nil {
		return nil, SourceStats{}, fmt.Errorf("source %s: %w", spec.Kind, err)
	}

	records, normReport := p.normalizer.Normalize(rows, spec)

	stats := SourceStats{
		Kind:      spec.Kind,
		File:      spec.File,
		RowsRead:  len(rows),
		Normalize: normReport,
		Duration:  time.Since(start),
	}
	return records, stats, nil
}

// writeArtifacts persists the integrated table, the summary table, the
// trend JSON, and (when configured) the Postgres copy of the integrated
// table.
func (p *Pipeline) writeArtifacts(
	ctx context.Context,
	integrated []model.IntegratedRecord,
	summaries []model.CountrySummary,
	report *RunReport,
	opts Options,
) error {
	integratedPath := filepath.Join(p.cfg.OutputDir, p.cfg.IntegratedFile)
	if err := sink.WriteIntegratedCSV(integratedPath, integrated); err != nil {
		return err
	}
	p.logger.Info("Wrote integrated table",
		zap.String("path", integratedPath),
		zap.Int("rows", len(integrated)))

	summaryPath := filepath.Join(p.cfg.OutputDir, p.cfg.SummaryFile)
	if err := sink.WriteSummaryCSV(summaryPath, summaries); err != nil {
		return err
	}
	p.logger.Info("Wrote country summary",
		zap.String("path", summaryPath),
		zap.Int("rows", len(summaries)))

	if !opts.SkipTrend && report.TrendAvailable {
		trendPath := filepath.Join(p.cfg.OutputDir, p.cfg.TrendFile)
		if err := sink.WriteTrendJSON(trendPath, report.Trend); err != nil {
			return err
		}
		p.logger.Info("Wrote trend result", zap.String("path", trendPath))
	}

	if p.cfg.Postgres != nil {
		pg, err := sink.NewPostgresSink(ctx, p.cfg.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.StoreIntegrated(ctx, integrated); err != nil {
			return err
		}
	}

	return nil
}
