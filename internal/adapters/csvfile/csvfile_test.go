package csvfile_test

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/walkforward/internal/adapters/csvfile"
	"github.com/alejandrodnm/walkforward/internal/domain"
)

const yahooCSV = `Date,Open,High,Low,Close,Adj Close,Volume
2024-01-02,187.15,188.44,183.89,185.64,184.94,82488700
2024-01-03,184.22,185.88,183.43,184.25,183.56,58414500
2024-01-04,182.15,183.09,180.88,,181.23,71983600
2024-01-05,181.99,182.76,180.17,181.18,180.50,
`

func TestReadPoints_Yahoo(t *testing.T) {
	pts, err := csvfile.ReadPoints(strings.NewReader(yahooCSV))
	require.NoError(t, err)
	require.Len(t, pts, 4)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), pts[0].Date)
	assert.Equal(t, 185.64, pts[0].Close)
	assert.Equal(t, 184.94, pts[0].AdjClose)
	assert.Equal(t, 82488700.0, pts[0].Volume)
	assert.True(t, math.IsNaN(pts[2].Close), "empty close is missing")
	assert.True(t, math.IsNaN(pts[3].Volume), "empty volume is missing")
}

func TestReadPoints_HeaderVariants(t *testing.T) {
	in := "\ufeffdate,CLOSE,adj_close\n2024-01-02 00:00:00-05:00,10,9.5\n2024-01-03,11,10.5\n"
	pts, err := csvfile.ReadPoints(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), pts[0].Date)
	assert.Equal(t, 10.0, pts[0].Close)
	assert.Equal(t, 9.5, pts[0].AdjClose)
	assert.Equal(t, 0.0, pts[0].Open)
}

func TestReadPoints_Errors(t *testing.T) {
	_, err := csvfile.ReadPoints(strings.NewReader(""))
	assert.Error(t, err)

	_, err = csvfile.ReadPoints(strings.NewReader("Date,Open\n2024-01-02,1\n"))
	assert.ErrorContains(t, err, "Close")

	_, err = csvfile.ReadPoints(strings.NewReader("Date,Close\nyesterday,1\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestLoadSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aapl.csv")
	require.NoError(t, os.WriteFile(path, []byte(yahooCSV), 0o644))

	s, err := csvfile.LoadSeries(path, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, 4, s.Len())

	_, err = csvfile.LoadSeries(filepath.Join(t.TempDir(), "missing.csv"), "AAPL")
	assert.Error(t, err)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteReport(t *testing.T) {
	d0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	report := &domain.Report{
		Splits: []domain.Split{{ID: 0, Train: domain.Range{Start: 0, End: 3}, Test: domain.Range{Start: 3, End: 5}}},
		Predictions: []domain.PredictionRecord{
			{SplitID: 0, StrategyID: "naive", Date: d0, Predicted: 10, Actual: 10.5, PreviousActual: 10, HasPrevious: true},
			{SplitID: 0, StrategyID: "sma_5", Date: d0, Predicted: 9.8, Actual: 10.5},
		},
		Metrics: []domain.MetricRecord{
			{SplitID: 0, StrategyID: "naive", MAE: domain.Computable(0.5), RMSE: domain.Computable(0.5),
				MAPE: domain.Computable(4.76), DirectionalAccuracy: domain.NotComputable, SampleCount: 1},
			{SplitID: 0, StrategyID: "sma_5", MAE: domain.Computable(0.7), RMSE: domain.Computable(0.7),
				MAPE: domain.Computable(6.67), DirectionalAccuracy: domain.Computable(1), SampleCount: 1},
		},
		Summary: []domain.SummaryRecord{
			{StrategyID: "naive", MetricName: domain.MetricMAE, Mean: domain.Computable(0.5), StdDev: domain.NotComputable, SplitCount: 1},
			{StrategyID: "sma_5", MetricName: domain.MetricMAE, Mean: domain.Computable(0.7), StdDev: domain.NotComputable, SplitCount: 1},
		},
	}

	at := time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)
	out, err := csvfile.WriteReport(t.TempDir(), report, at)
	require.NoError(t, err)
	assert.Equal(t, "20240309_143005", filepath.Base(out))

	summary := readCSV(t, filepath.Join(out, "baseline_results.csv"))
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"model", "n_splits", "avg_mae", "std_mae"}, summary[0][:4])
	assert.Equal(t, []string{"naive", "1", "0.5", ""}, summary[1][:4])
	assert.Equal(t, "", summary[1][len(summary[1])-2], "missing summary metric stays empty")

	detail := readCSV(t, filepath.Join(out, "naive_detailed.csv"))
	require.Len(t, detail, 2)
	assert.Equal(t, []string{"0", "0", "3", "3", "5", "1", "0.5", "0.5", "4.76", ""}, detail[1])

	_, err = os.Stat(filepath.Join(out, "sma_5_detailed.csv"))
	assert.NoError(t, err)

	preds := readCSV(t, filepath.Join(out, "predictions.csv"))
	require.Len(t, preds, 3)
	assert.Equal(t, []string{"0", "naive", "2024-03-01", "10", "10.5", "10"}, preds[1])
	assert.Equal(t, "", preds[2][5])
}
