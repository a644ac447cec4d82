// pkg/config/sources.go
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"transport-climate-etl/pkg/model"
)

// sourcesFile is the TOML shape of a source-schema override file.
type sourcesFile struct {
	Sources []model.SourceSpec `toml:"source"`
}

// DefaultSourceSpecs returns the declared schemas of the three Eurostat
// sources: the series filter, the renamed indicator column, and the
// columns that must be present for the table to be interpretable.
func DefaultSourceSpecs() []model.SourceSpec {
	return []model.SourceSpec{
		{
			Kind:       model.SourceBusesTrains,
			File:       "buses_trains_passenger_transport.csv",
			ValueField: "share_buses_trains",
			Filters: []model.ColumnFilter{
				{Column: "vehicle", Equals: "TRN_BUS_TOT_AVD"},
			},
			Passthrough: []string{"unit"},
		},
		{
			Kind:       model.SourceGreenhouseGas,
			File:       "greenhouse_gas_emissions.csv",
			ValueField: "ghg_per_capita",
			Filters: []model.ColumnFilter{
				{Column: "unit", Equals: "T_HAB"},
				{Column: "src_crf", Equals: "TOTXMEMO"},
			},
			Passthrough: []string{"unit"},
		},
		{
			Kind:       model.SourceRoadEmissions,
			File:       "road_transport_air_emissions.csv",
			ValueField: "road_co2_per_capita",
			Filters: []model.ColumnFilter{
				{Column: "indic_env", Equals: "AEMIS_RES"},
				{Column: "airpol", Equals: "CO2"},
				{Column: "unit", Equals: "KG_HAB"},
			},
			// Without these two discriminators the table mixes
			// incompatible series, so it is treated as unusable.
			RequiredColumns: []string{"indic_env", "airpol"},
			Passthrough:     []string{"unit"},
		},
	}
}

// LoadSourceSpecs reads source schemas from a TOML file, falling back to
// the built-in defaults when path is empty. The file must declare exactly
// the three known source kinds.
func LoadSourceSpecs(path string) ([]model.SourceSpec, error) {
	if path == "" {
		return DefaultSourceSpecs(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var f sourcesFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	if err := validateSourceSpecs(f.Sources); err != nil {
		return nil, err
	}

	return f.Sources, nil
}

// validateSourceSpecs ensures the three fixed sources are all declared,
// each exactly once and with an output field name.
func validateSourceSpecs(specs []model.SourceSpec) error {
	if len(specs) != 3 {
		return fmt.Errorf("expected 3 source declarations, got %d", len(specs))
	}

	seen := make(map[model.SourceKind]bool, 3)
	for _, spec := range specs {
		switch spec.Kind {
		case model.SourceBusesTrains, model.SourceGreenhouseGas, model.SourceRoadEmissions:
		default:
			return fmt.Errorf("unknown source kind %q", spec.Kind)
		}

		if seen[spec.Kind] {
			return fmt.Errorf("duplicate source kind %q", spec.Kind)
		}
		seen[spec.Kind] = true

		if spec.File == "" {
			return fmt.Errorf("source %q has no input file", spec.Kind)
		}
		if spec.ValueField == "" {
			return errors.New("source " + string(spec.Kind) + " has no value field name")
		}
	}

	return nil
}

// SpecByKind returns the spec for a kind, or an error if it is missing.
func SpecByKind(specs []model.SourceSpec, kind model.SourceKind) (model.SourceSpec, error) {
	for _, spec := range specs {
		if spec.Kind == kind {
			return spec, nil
		}
	}
	return model.SourceSpec{}, fmt.Errorf("no source spec declared for kind %q", kind)
}
