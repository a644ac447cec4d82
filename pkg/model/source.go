// pkg/model/source.go
package model

// SourceKind identifies one of the three fixed Eurostat sources.
type SourceKind string

const (
	SourceBusesTrains   SourceKind = "buses_trains"
	SourceGreenhouseGas SourceKind = "greenhouse_gas"
	SourceRoadEmissions SourceKind = "road_emissions"
)

// ColumnFilter selects the statistical series of interest from a source
// table containing multiple series. The filter is applied only when the
// column is present in the input.
type ColumnFilter struct {
	Column string `toml:"column"`
	Equals string `toml:"equals"`
}

// SourceSpec is the declared schema of one source: which file it comes
// from, which series to keep, what the indicator column is renamed to, and
// which columns are carried through for diagnostics.
type SourceSpec struct {
	Kind       SourceKind     `toml:"kind"`
	File       string         `toml:"file"`
	ValueField string         `toml:"value_field"`
	Filters    []ColumnFilter `toml:"filter"`

	// RequiredColumns are discriminators the source is meaningless
	// without. If any is absent the whole table normalizes to empty
	// instead of guessing which series the rows belong to.
	RequiredColumns []string `toml:"required_columns"`

	Passthrough []string `toml:"passthrough"`
}

// GetFilterByColumn returns the filter declared for a column, or nil.
func (s *SourceSpec) GetFilterByColumn(column string) *ColumnFilter {
	for i, f := range s.Filters {
		if f.Column == column {
			return &s.Filters[i]
		}
	}
	return nil
}
