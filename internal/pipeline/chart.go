package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type columnKind int

const (
	kindCategorical columnKind = iota
	kindNumeric
	kindTime
	kindEmpty
)

// DeriveChart picks a chart specification from the shape of the result,
// without a model call, following a fixed decision table:
//
//	numeric x, numeric y                      -> scatter
//	time x, numeric y                         -> line
//	categorical x (<=6 distinct) + numeric y
//	  whose values sum to ~100                -> pie (share breakdown)
//	categorical x, numeric y                  -> bar
//
// The first matching column pair wins; a second categorical column becomes
// the grouping. Returns false when no pair of columns supports a chart.
func DeriveChart(question Question, outcome Outcome) (*ChartSpec, bool) {
	if len(outcome.Columns) < 2 || len(outcome.Rows) == 0 {
		return nil, false
	}

	kinds := make([]columnKind, len(outcome.Columns))
	for i := range outcome.Columns {
		kinds[i] = classifyColumn(outcome.Rows, i)
	}

	numericIdx := indexOfKind(kinds, kindNumeric, -1)
	if numericIdx < 0 {
		return nil, false
	}

	spec := &ChartSpec{
		Y:     outcome.Columns[numericIdx],
		Title: chartTitle(question),
	}

	if timeIdx := indexOfKind(kinds, kindTime, numericIdx); timeIdx >= 0 {
		spec.Type = ChartLine
		spec.X = outcome.Columns[timeIdx]
	} else if secondNumeric := indexOfKind(kinds, kindNumeric, numericIdx); secondNumeric >= 0 && indexOfKind(kinds, kindCategorical, -1) < 0 {
		spec.Type = ChartScatter
		spec.X = outcome.Columns[numericIdx]
		spec.Y = outcome.Columns[secondNumeric]
	} else if categoryIdx := indexOfKind(kinds, kindCategorical, -1); categoryIdx >= 0 {
		spec.X = outcome.Columns[categoryIdx]
		if isShareBreakdown(outcome.Rows, categoryIdx, numericIdx) {
			spec.Type = ChartPie
		} else {
			spec.Type = ChartBar
		}
		if groupIdx := indexOfKind(kinds, kindCategorical, categoryIdx); groupIdx >= 0 && spec.Type == ChartBar {
			spec.GroupBy = outcome.Columns[groupIdx]
		}
	} else {
		return nil, false
	}

	spec.Description = fmt.Sprintf("%s chart of %s by %s", spec.Type, spec.Y, spec.X)
	return spec, true
}

func chartTitle(question Question) string {
	title := strings.TrimSpace(question.Text)
	const maxTitle = 80
	if len(title) > maxTitle {
		title = title[:maxTitle]
	}
	return title
}

func classifyColumn(rows [][]any, index int) columnKind {
	seen := kindEmpty
	for _, row := range rows {
		if index >= len(row) || row[index] == nil {
			continue
		}
		kind := classifyValue(row[index])
		if seen == kindEmpty {
			seen = kind
			continue
		}
		if kind != seen {
			// Mixed values read safest as labels.
			return kindCategorical
		}
	}
	return seen
}

func classifyValue(value any) columnKind {
	switch typed := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return kindNumeric
	case time.Time:
		return kindTime
	case string:
		if looksLikeTime(typed) {
			return kindTime
		}
		return kindCategorical
	case bool:
		return kindCategorical
	default:
		return kindCategorical
	}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
}

func looksLikeTime(value string) bool {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// A pie fits when a short list of categories carries percentage-like
// numbers: at most six distinct labels and values summing to roughly 100.
func isShareBreakdown(rows [][]any, categoryIdx, numericIdx int) bool {
	distinct := map[string]struct{}{}
	sum := 0.0
	for _, row := range rows {
		if categoryIdx >= len(row) || numericIdx >= len(row) {
			return false
		}
		distinct[fmt.Sprintf("%v", row[categoryIdx])] = struct{}{}
		number, ok := asFloat(row[numericIdx])
		if !ok {
			return false
		}
		sum += number
	}
	return len(distinct) <= 6 && math.Abs(sum-100) < 0.5
}

func asFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int8:
		return float64(typed), true
	case int16:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint8:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	case uint32:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}

func indexOfKind(kinds []columnKind, kind columnKind, skip int) int {
	for i, candidate := range kinds {
		if i == skip {
			continue
		}
		if candidate == kind {
			return i
		}
	}
	return -1
}
