package composer

import (
	"math"
	"strconv"
	"strings"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

// ParseMeasurements turns pasted tabular text into measurement rows.
//
// Each non-blank line becomes one row. A line containing a tab is split on
// tabs (spreadsheet copy); otherwise it is split on runs of whitespace
// (PDF copy). The first five tokens fill the columns in table order and
// missing tokens are left empty. Extra tokens are ignored.
func ParseMeasurements(text string) []models.MeasurementRow {
	rows := []models.MeasurementRow{}
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var cols []string
		if strings.Contains(line, "\t") {
			cols = strings.Split(line, "\t")
		} else {
			cols = strings.Fields(line)
		}

		var row models.MeasurementRow
		for i, name := range models.MeasurementColumns {
			if i < len(cols) {
				*row.Cell(name) = strings.TrimSpace(cols[i])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// NormalizeCoefficient rewrites a numeric coefficient in plain decimal
// notation: fixed-point with 12 fractional digits, then trailing zeros and
// a bare decimal point removed. "-9.57e-08" becomes "-0.0000000957".
// Blank and non-numeric input is returned unchanged. Only a complete number
// is rewritten: "12abc" stays "12abc", and negative zero keeps its sign.
func NormalizeCoefficient(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}

	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return value
	}

	s := strconv.FormatFloat(f, 'f', 12, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
