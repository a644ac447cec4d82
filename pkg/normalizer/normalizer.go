// pkg/normalizer/normalizer.go
package normalizer

import (
	"go.uber.org/zap"

	"transport-climate-etl/pkg/model"
)

// Normalizer filters raw source rows down to the series of interest,
// renames columns into the common record shape and coerces types. One
// instance handles all three sources; the per-source behavior lives in
// the SourceSpec.
type Normalizer struct {
	logger *zap.Logger
}

// Report counts what happened to the rows of one source during
// normalization. Dropped rows are a data-quality statistic, not an error.
type Report struct {
	Kind          model.SourceKind
	RowsIn        int
	FilteredOut   int // rows excluded by series filters
	DroppedKey    int // rows with an empty country code
	DroppedYear   int // rows whose year failed numeric coercion
	DroppedValue  int // rows whose indicator value failed coercion
	RowsOut       int
	SchemaMissing []string // required columns absent from the input
}

// NewNormalizer creates a Normalizer. A nil logger falls back to the
// global zap logger.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.L()
	}
	return &Normalizer{logger: logger.Named("normalizer")}
}

// Normalize applies the source's declared schema to a raw table:
// series filters, column projection/rename, and type coercion. Malformed
// rows are excluded silently; an empty or uninterpretable table yields an
// empty result, never an error.
func (n *Normalizer) Normalize(rows []model.RawRecord, spec model.SourceSpec) ([]model.NormalizedRecord, Report) {
	report := Report{Kind: spec.Kind, RowsIn: len(rows)}

	if len(rows) == 0 {
		return nil, report
	}

	columns := presentColumns(rows)

	// A source whose required discriminators are absent cannot be
	// interpreted: emit an empty table rather than guess the series.
	for _, col := range spec.RequiredColumns {
		if !columns[col] {
			report.SchemaMissing = append(report.SchemaMissing, col)
		}
	}
	if len(report.SchemaMissing) > 0 {
		n.logger.Warn("Required discriminator columns missing, emitting empty table",
			zap.String("source", string(spec.Kind)),
			zap.Strings("columns", report.SchemaMissing))
		return nil, report
	}

	// Filters on absent columns are skipped, not failed
	filters := make([]model.ColumnFilter, 0, len(spec.Filters))
	for _, f := range spec.Filters {
		if columns[f.Column] {
			filters = append(filters, f)
		}
	}

	records := make([]model.NormalizedRecord, 0, len(rows))
	for _, row := range rows {
		record, outcome := normalizeRow(row, spec, filters)
		switch outcome {
		case rowKept:
			records = append(records, record)
		case rowFiltered:
			report.FilteredOut++
		case rowBadKey:
			report.DroppedKey++
		case rowBadYear:
			report.DroppedYear++
		case rowBadValue:
			report.DroppedValue++
		}
	}

	report.RowsOut = len(records)
	n.logger.Debug("Normalized source table",
		zap.String("source", string(spec.Kind)),
		zap.Int("rows_in", report.RowsIn),
		zap.Int("rows_out", report.RowsOut),
		zap.Int("filtered", report.FilteredOut),
		zap.Int("dropped", report.Dropped()))

	return records, report
}

// Dropped returns the number of rows excluded for data-quality reasons
// (bad key, year or value), not counting series filtering.
func (r Report) Dropped() int {
	return r.DroppedKey + r.DroppedYear + r.DroppedValue
}

type rowOutcome int

const (
	rowKept rowOutcome = iota
	rowFiltered
	rowBadKey
	rowBadYear
	rowBadValue
)

// normalizeRow converts a single raw row, reporting why it was excluded
// when it does not survive.
func normalizeRow(row model.RawRecord, spec model.SourceSpec, filters []model.ColumnFilter) (model.NormalizedRecord, rowOutcome) {
	for _, f := range filters {
		if row[f.Column] != f.Equals {
			return model.NormalizedRecord{}, rowFiltered
		}
	}

	country := trimCell(row[model.ColCountry])
	if country == "" {
		return model.NormalizedRecord{}, rowBadKey
	}

	year, err := parseYear(row[model.ColYear])
	if err != nil {
		return model.NormalizedRecord{}, rowBadYear
	}

	value, err := parseValue(row[model.ColValue])
	if err != nil {
		return model.NormalizedRecord{}, rowBadValue
	}

	record := model.NormalizedRecord{
		Country: country,
		Year:    year,
		Value:   value,
		Flag:    row[model.ColFlag], // opaque, passed through verbatim
	}

	for _, col := range spec.Passthrough {
		if cell, ok := row[col]; ok {
			if record.Extra == nil {
				record.Extra = make(map[string]string, len(spec.Passthrough))
			}
			record.Extra[col] = cell
		}
	}

	return record, rowKept
}

// presentColumns collects the set of column names seen across the table.
// Rows from a single delimited file share a header, but raw tables can
// also be assembled in memory, so every row is inspected.
func presentColumns(rows []model.RawRecord) map[string]bool {
	columns := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			columns[col] = true
		}
	}
	return columns
}
