// pkg/pipeline/report.go
package pipeline

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transport-climate-etl/pkg/model"
	"transport-climate-etl/pkg/normalizer"
)

// SourceStats records what one source contributed to a run.
type SourceStats struct {
	Kind      model.SourceKind
	File      string
	RowsRead  int
	Normalize normalizer.Report
	Duration  time.Duration
}

// RunReport summarizes a full pipeline run for logs and operators.
type RunReport struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Sources        []SourceStats
	IntegratedRows int
	Countries      int

	TrendAvailable bool
	Trend          model.TrendResult
}

// NewRunReport initializes a report with a fresh run ID.
func NewRunReport() *RunReport {
	return &RunReport{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
}

// Complete marks the run as finished and computes its duration.
func (r *RunReport) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// AddSourceStats incorporates one source's stats into the report.
func (r *RunReport) AddSourceStats(stats SourceStats) {
	r.Sources = append(r.Sources, stats)
}

// TotalRowsRead returns the raw rows read across all sources.
func (r *RunReport) TotalRowsRead() int {
	total := 0
	for _, s := range r.Sources {
		total += s.RowsRead
	}
	return total
}

// TotalRowsDropped returns the rows excluded for data-quality reasons
// across all sources.
func (r *RunReport) TotalRowsDropped() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Normalize.Dropped()
	}
	return total
}

// LogSummary emits the run summary as structured log fields.
func (r *RunReport) LogSummary(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("run_id", r.RunID),
		zap.Duration("duration", r.Duration),
		zap.Int("rows_read", r.TotalRowsRead()),
		zap.Int("rows_dropped", r.TotalRowsDropped()),
		zap.Int("integrated_rows", r.IntegratedRows),
		zap.Int("countries", r.Countries),
		zap.Bool("trend_available", r.TrendAvailable),
	}
	if r.TrendAvailable {
		fields = append(fields,
			zap.Float64("trend_slope", r.Trend.Slope),
			zap.Float64("trend_r_squared", r.Trend.RSquared))
	}
	logger.Info("Pipeline run complete", fields...)

	for _, s := range r.Sources {
		logger.Info("Source summary",
			zap.String("run_id", r.RunID),
			zap.String("source", string(s.Kind)),
			zap.String("file", s.File),
			zap.Int("rows_read", s.RowsRead),
			zap.Int("rows_kept", s.Normalize.RowsOut),
			zap.Int("filtered", s.Normalize.FilteredOut),
			zap.Int("dropped", s.Normalize.Dropped()),
			zap.Duration("duration", s.Duration))
	}
}
