// pkg/integrator/integrator.go
package integrator

import (
	"sort"

	"go.uber.org/zap"

	"transport-climate-etl/pkg/model"
)

// Integrator aligns the three normalized tables on (country, year) and
// enforces three-way completeness: a key survives only if it appears in
// every table.
type Integrator struct {
	logger *zap.Logger
}

// NewIntegrator creates an Integrator. A nil logger falls back to the
// global zap logger.
func NewIntegrator(logger *zap.Logger) *Integrator {
	if logger == nil {
		logger = zap.L()
	}
	return &Integrator{logger: logger.Named("integrator")}
}

// Integrate computes the three-way inner join of the mode-share,
// greenhouse-gas and road-emissions tables. Duplicate keys within a source
// fan out per standard relational join semantics. Any of the inputs being
// empty yields an empty result. Output is sorted by (country, year) so a
// given input always produces the same table.
func (i *Integrator) Integrate(bt, ghg, road []model.NormalizedRecord) []model.IntegratedRecord {
	if len(bt) == 0 || len(ghg) == 0 || len(road) == 0 {
		i.logger.Debug("At least one normalized table is empty, join is empty",
			zap.Int("buses_trains", len(bt)),
			zap.Int("greenhouse_gas", len(ghg)),
			zap.Int("road_emissions", len(road)))
		return nil
	}

	ghgIndex := indexByKey(ghg)
	roadIndex := indexByKey(road)

	var joined []model.IntegratedRecord
	incomplete := 0
	for _, b := range bt {
		key := b.Key()
		ghgMatches, ok := ghgIndex[key]
		if !ok {
			continue
		}
		roadMatches, ok := roadIndex[key]
		if !ok {
			continue
		}

		for _, g := range ghgMatches {
			for _, r := range roadMatches {
				record := model.IntegratedRecord{
					Country:          key.Country,
					Year:             key.Year,
					ShareBusesTrains: b.Value,
					GHGPerCapita:     g.Value,
					RoadCO2PerCapita: r.Value,
					ShareFlag:        b.Flag,
					GHGFlag:          g.Flag,
					RoadFlag:         r.Flag,
				}
				// Upstream coercion guarantees finite values;
				// enforced again here so the invariant does not
				// depend on the caller.
				if !record.Complete() {
					incomplete++
					continue
				}
				joined = append(joined, record)
			}
		}
	}

	sort.Slice(joined, func(a, b int) bool {
		if joined[a].Country != joined[b].Country {
			return joined[a].Country < joined[b].Country
		}
		return joined[a].Year < joined[b].Year
	})

	if incomplete > 0 {
		i.logger.Warn("Dropped joined rows with unusable indicator values",
			zap.Int("count", incomplete))
	}
	i.logger.Debug("Integrated normalized tables",
		zap.Int("rows", len(joined)))

	return joined
}

// indexByKey builds a hash index over (country, year), keeping duplicate
// keys as slices so the join can fan out.
func indexByKey(records []model.NormalizedRecord) map[model.RecordKey][]model.NormalizedRecord {
	index := make(map[model.RecordKey][]model.NormalizedRecord, len(records))
	for _, r := range records {
		key := r.Key()
		index[key] = append(index[key], r)
	}
	return index
}
