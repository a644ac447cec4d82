// pkg/source/csv.go
package source

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"transport-climate-etl/pkg/model"
)

// ReadTable loads a delimited-text table from disk into raw row maps.
// Files ending in .gz are decompressed transparently. A missing file is an
// error; an empty or header-only file yields an empty table.
func ReadTable(path string) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	return ReadTableFrom(r)
}

// ReadTableFrom parses delimited text from a reader. The first row is the
// header; each subsequent row becomes a column-name -> cell map. Rows that
// cannot be parsed are skipped rather than failing the table.
func ReadTableFrom(r io.Reader) ([]model.RawRecord, error) {
	logger := zap.L().Named("source")

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // SDMX exports occasionally carry ragged rows
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}

	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	var rows []model.RawRecord
	skipped := 0
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read table row: %w", err)
		}

		row := make(model.RawRecord, len(header))
		for i, col := range header {
			if i < len(cells) {
				row[col] = cells[i]
			}
		}
		rows = append(rows, row)
	}

	if skipped > 0 {
		logger.Warn("Skipped unparseable rows", zap.Int("count", skipped))
	}

	return rows, nil
}
