package report

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ColumnStats summarizes one result column. The numeric fields are only
// meaningful when Numeric is true.
type ColumnStats struct {
	Name     string
	Count    int
	Missing  int
	Distinct int
	Numeric  bool
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
}

type Correlation struct {
	ColumnA     string
	ColumnB     string
	Coefficient float64
}

type Analysis struct {
	RowCount     int
	Columns      []ColumnStats
	Correlations []Correlation
}

// Analyze computes per-column descriptive statistics and pairwise Pearson
// correlations between numeric columns.
func Analyze(columns []string, rows [][]any) Analysis {
	analysis := Analysis{RowCount: len(rows)}
	numericValues := make(map[int][]float64)

	for i, name := range columns {
		stats := ColumnStats{Name: name}
		distinct := make(map[string]struct{})
		values := make([]float64, 0, len(rows))
		numeric := true

		for _, row := range rows {
			if i >= len(row) {
				continue
			}
			value := row[i]
			if value == nil {
				stats.Missing++
				continue
			}
			stats.Count++
			distinct[fmt.Sprint(value)] = struct{}{}
			if f, ok := asNumber(value); ok {
				values = append(values, f)
			} else {
				numeric = false
			}
		}

		stats.Distinct = len(distinct)
		if numeric && len(values) > 0 {
			stats.Numeric = true
			stats.Mean = mean(values)
			stats.StdDev = stddev(values, stats.Mean)
			stats.Min, stats.Max = bounds(values)
			numericValues[i] = values
		}
		analysis.Columns = append(analysis.Columns, stats)
	}

	for i := range columns {
		for j := i + 1; j < len(columns); j++ {
			a, okA := numericValues[i]
			b, okB := numericValues[j]
			if !okA || !okB || len(a) != len(b) || len(a) < 2 {
				continue
			}
			coefficient, ok := pearson(a, b)
			if !ok {
				continue
			}
			analysis.Correlations = append(analysis.Correlations, Correlation{
				ColumnA:     columns[i],
				ColumnB:     columns[j],
				Coefficient: coefficient,
			})
		}
	}
	return analysis
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool, time.Time:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64, avg float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - avg
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func pearson(a, b []float64) (float64, bool) {
	meanA := mean(a)
	meanB := mean(b)
	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varA*varB), true
}
