package report

import (
	"math"
	"testing"
)

func TestAnalyzeNumericColumn(t *testing.T) {
	columns := []string{"region", "amount"}
	rows := [][]any{
		{"north", int64(10)},
		{"south", int64(20)},
		{"east", int64(30)},
		{"west", nil},
	}

	analysis := Analyze(columns, rows)
	if analysis.RowCount != 4 {
		t.Fatalf("RowCount = %d, want 4", analysis.RowCount)
	}
	if len(analysis.Columns) != 2 {
		t.Fatalf("len(Columns) = %d, want 2", len(analysis.Columns))
	}

	region := analysis.Columns[0]
	if region.Numeric {
		t.Fatal("region classified as numeric")
	}
	if region.Count != 4 || region.Distinct != 4 {
		t.Fatalf("region count/distinct = %d/%d", region.Count, region.Distinct)
	}

	amount := analysis.Columns[1]
	if !amount.Numeric {
		t.Fatal("amount not classified as numeric")
	}
	if amount.Count != 3 || amount.Missing != 1 {
		t.Fatalf("amount count/missing = %d/%d", amount.Count, amount.Missing)
	}
	if amount.Mean != 20 {
		t.Fatalf("mean = %v, want 20", amount.Mean)
	}
	if amount.Min != 10 || amount.Max != 30 {
		t.Fatalf("min/max = %v/%v", amount.Min, amount.Max)
	}
	if math.Abs(amount.StdDev-10) > 1e-9 {
		t.Fatalf("stddev = %v, want 10", amount.StdDev)
	}
}

func TestAnalyzePerfectCorrelation(t *testing.T) {
	columns := []string{"x", "y"}
	rows := [][]any{
		{float64(1), float64(2)},
		{float64(2), float64(4)},
		{float64(3), float64(6)},
	}

	analysis := Analyze(columns, rows)
	if len(analysis.Correlations) != 1 {
		t.Fatalf("len(Correlations) = %d, want 1", len(analysis.Correlations))
	}
	corr := analysis.Correlations[0]
	if corr.ColumnA != "x" || corr.ColumnB != "y" {
		t.Fatalf("correlation columns = %s/%s", corr.ColumnA, corr.ColumnB)
	}
	if math.Abs(corr.Coefficient-1) > 1e-9 {
		t.Fatalf("coefficient = %v, want 1", corr.Coefficient)
	}
}

func TestAnalyzeSkipsConstantColumns(t *testing.T) {
	columns := []string{"x", "constant"}
	rows := [][]any{
		{float64(1), float64(7)},
		{float64(2), float64(7)},
	}
	analysis := Analyze(columns, rows)
	if len(analysis.Correlations) != 0 {
		t.Fatalf("expected no correlation against a constant column, got %d", len(analysis.Correlations))
	}
}

func TestAnalyzeNumericStrings(t *testing.T) {
	analysis := Analyze([]string{"amount"}, [][]any{{"12.5"}, {"7.5"}})
	if !analysis.Columns[0].Numeric {
		t.Fatal("numeric strings not classified as numeric")
	}
	if analysis.Columns[0].Mean != 10 {
		t.Fatalf("mean = %v, want 10", analysis.Columns[0].Mean)
	}
}
