// pkg/normalizer/coerce.go
package normalizer

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// parseYear coerces a cell to a whole-number year. Eurostat publishes
// years as plain integers, but some exports carry them as "2019.0".
func parseYear(s string) (int, error) {
	cleaned := trimCell(s)
	if cleaned == "" {
		return 0, errors.New("empty year")
	}

	if year, err := strconv.Atoi(cleaned); err == nil {
		return year, nil
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("year is not a whole number")
	}
	return int(f), nil
}

// parseValue coerces a cell to a finite indicator value. Eurostat marks
// missing observations with ":" which fails parsing and drops the row.
func parseValue(s string) (float64, error) {
	cleaned := trimCell(s)
	if cleaned == "" {
		return 0, errors.New("empty value")
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("non-finite value")
	}
	return f, nil
}

func trimCell(s string) string {
	return strings.TrimSpace(s)
}
