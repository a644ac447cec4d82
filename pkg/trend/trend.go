// pkg/trend/trend.go
package trend

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"transport-climate-etl/pkg/model"
)

// DefaultLineSamples is the number of fitted points produced for line
// rendering when the caller does not configure one.
const DefaultLineSamples = 100

// Estimator fits an ordinary least-squares line over the per-country
// summaries (x = mean buses+trains share, y = mean road CO2 in kg/hab).
type Estimator struct {
	logger      *zap.Logger
	lineSamples int
}

// NewEstimator creates an Estimator producing lineSamples fitted points
// (DefaultLineSamples unless at least 2 are requested). A nil logger
// falls back to the global zap logger.
func NewEstimator(logger *zap.Logger, lineSamples int) *Estimator {
	if logger == nil {
		logger = zap.L()
	}
	if lineSamples < 2 {
		lineSamples = DefaultLineSamples
	}
	return &Estimator{logger: logger.Named("trend"), lineSamples: lineSamples}
}

// Fit computes slope, intercept and R² over all summaries with finite x
// and y. It returns ok=false when fewer than 2 usable points remain or
// the fit itself is degenerate (all x identical); that is a valid
// "no trend available" outcome, not an error. R² is defined as 0 when the
// total variance of y is exactly zero.
func (e *Estimator) Fit(summaries []model.CountrySummary) (model.TrendResult, bool) {
	xs := make([]float64, 0, len(summaries))
	ys := make([]float64, 0, len(summaries))
	for _, s := range summaries {
		if !isFinite(s.ShareBusesTrains) || !isFinite(s.RoadCO2PerCapitaKg) {
			continue
		}
		xs = append(xs, s.ShareBusesTrains)
		ys = append(ys, s.RoadCO2PerCapitaKg)
	}

	if len(xs) < 2 {
		e.logger.Info("Not enough finite points for a trend line",
			zap.Int("points", len(xs)))
		return model.TrendResult{}, false
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	if !isFinite(slope) || !isFinite(intercept) {
		e.logger.Info("Degenerate regression fit, no trend reported",
			zap.Int("points", len(xs)))
		return model.TrendResult{}, false
	}

	result := model.TrendResult{
		Slope:     slope,
		Intercept: intercept,
		RSquared:  rSquared(xs, ys, slope, intercept),
		Points:    len(xs),
		Line:      sampleLine(xs, slope, intercept, e.lineSamples),
	}

	e.logger.Debug("Fitted trend line",
		zap.Float64("slope", result.Slope),
		zap.Float64("intercept", result.Intercept),
		zap.Float64("r_squared", result.RSquared),
		zap.Int("points", result.Points))

	return result, true
}

// rSquared computes 1 - SSres/SStot for the fitted line, with the
// zero-variance case pinned to 0 rather than NaN.
func rSquared(xs, ys []float64, slope, intercept float64) float64 {
	yMean := stat.Mean(ys, nil)

	var ssRes, ssTot float64
	for i, x := range xs {
		predicted := slope*x + intercept
		ssRes += (ys[i] - predicted) * (ys[i] - predicted)
		ssTot += (ys[i] - yMean) * (ys[i] - yMean)
	}

	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// sampleLine produces n evenly spaced fitted points spanning the observed
// x range, in ascending x order.
func sampleLine(xs []float64, slope, intercept float64, n int) []model.TrendPoint {
	xMin, xMax := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < xMin {
			xMin = x
		}
		if x > xMax {
			xMax = x
		}
	}

	points := make([]model.TrendPoint, n)
	step := (xMax - xMin) / float64(n-1)
	for i := range points {
		x := xMin + float64(i)*step
		points[i] = model.TrendPoint{X: x, Y: slope*x + intercept}
	}
	return points
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
