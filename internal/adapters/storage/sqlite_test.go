package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/walkforward/internal/adapters/storage"
	"github.com/alejandrodnm/walkforward/internal/domain"
)

func makeRun(id string, createdAt time.Time) domain.Run {
	d0 := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	return domain.Run{
		RunInfo: domain.RunInfo{
			ID:           id,
			CreatedAt:    createdAt,
			Symbol:       "AAPL",
			Window:       domain.WindowConfig{TrainSize: 3, TestSize: 2, StepSize: 1},
			SeriesLength: 6,
			SplitCount:   2,
			Strategies:   []string{"naive", "sma_2"},
		},
		Report: domain.Report{
			Splits: []domain.Split{
				{ID: 0, Train: domain.Range{Start: 0, End: 3}, Test: domain.Range{Start: 3, End: 5}},
				{ID: 1, Train: domain.Range{Start: 1, End: 4}, Test: domain.Range{Start: 4, End: 6}},
			},
			Predictions: []domain.PredictionRecord{
				{SplitID: 0, StrategyID: "naive", Date: d0, Predicted: 10, Actual: 11, PreviousActual: 10, HasPrevious: true},
				{SplitID: 0, StrategyID: "naive", Date: d0.AddDate(0, 0, 1), Predicted: 11, Actual: 11, PreviousActual: 11, HasPrevious: true},
				{SplitID: 0, StrategyID: "sma_2", Date: d0, Predicted: 9.5, Actual: 11},
			},
			Metrics: []domain.MetricRecord{
				{SplitID: 0, StrategyID: "naive", MAE: domain.Computable(0.5), RMSE: domain.Computable(0.7071),
					MAPE: domain.Computable(4.5), DirectionalAccuracy: domain.Computable(0), SampleCount: 2},
				{SplitID: 0, StrategyID: "sma_2", MAE: domain.Computable(1.5), RMSE: domain.Computable(1.5),
					MAPE: domain.Computable(13.6), DirectionalAccuracy: domain.NotComputable, SampleCount: 1},
			},
			Summary: []domain.SummaryRecord{
				{StrategyID: "naive", MetricName: domain.MetricMAE, Mean: domain.Computable(0.5), StdDev: domain.NotComputable, SplitCount: 1},
				{StrategyID: "sma_2", MetricName: domain.MetricDirectionalAccuracy, Mean: domain.NotComputable, StdDev: domain.NotComputable, SplitCount: 0},
			},
		},
	}
}

func TestSQLiteStorage_SaveAndGetRun(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	created := time.Now().UTC().Truncate(time.Microsecond)
	want := makeRun("run-1", created)
	require.NoError(t, db.SaveRun(context.Background(), want))

	got, err := db.GetRun(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, want.RunInfo.ID, got.ID)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, want.Symbol, got.Symbol)
	assert.Equal(t, want.Window, got.Window)
	assert.Equal(t, want.Strategies, got.Strategies)
	assert.Equal(t, want.Report.Splits, got.Report.Splits)
	assert.Equal(t, want.Report.Metrics, got.Report.Metrics)
	assert.Equal(t, want.Report.Summary, got.Report.Summary)
	require.Len(t, got.Report.Predictions, 3)
	assert.Equal(t, want.Report.Predictions[1], got.Report.Predictions[1])
	assert.False(t, got.Report.Predictions[2].HasPrevious, "missing previous day is stored as NULL")
}

func TestSQLiteStorage_NotComputableIsNull(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveRun(context.Background(), makeRun("run-1", time.Now())))

	metrics, err := db.GetMetrics(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.False(t, metrics[1].DirectionalAccuracy.Computable)
	assert.True(t, metrics[0].DirectionalAccuracy.Computable)
	assert.Equal(t, 0.0, metrics[0].DirectionalAccuracy.Value)

	summary, err := db.GetSummary(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.False(t, summary[0].StdDev.Computable)
	assert.Equal(t, 0, summary[1].SplitCount)
}

func TestSQLiteStorage_GetPredictionsByStrategy(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveRun(context.Background(), makeRun("run-1", time.Now())))

	preds, err := db.GetPredictions(context.Background(), "run-1", "naive")
	require.NoError(t, err)
	assert.Len(t, preds, 2)

	preds, err = db.GetPredictions(context.Background(), "run-1", "unknown")
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestSQLiteStorage_RunNotFound(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = db.GetSummary(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = db.GetMetrics(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = db.GetPredictions(context.Background(), "missing", "")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestSQLiteStorage_DuplicateRunIsRolledBack(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	run := makeRun("run-1", time.Now())
	require.NoError(t, db.SaveRun(context.Background(), run))
	assert.Error(t, db.SaveRun(context.Background(), run))

	got, err := db.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, got.Report.Predictions, 3)

	assert.Error(t, db.SaveRun(context.Background(), makeRun("", time.Now())))
}

func TestSQLiteStorage_ListRunsNewestFirst(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	base := time.Now().UTC()
	require.NoError(t, db.SaveRun(context.Background(), makeRun("old", base.Add(-2*time.Hour))))
	require.NoError(t, db.SaveRun(context.Background(), makeRun("new", base)))
	require.NoError(t, db.SaveRun(context.Background(), makeRun("mid", base.Add(-time.Hour))))

	runs, err := db.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
	assert.Equal(t, "old", runs[2].ID)

	runs, err = db.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].ID)
}

func TestSQLiteStorage_PruneBefore(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	require.NoError(t, db.SaveRun(context.Background(), makeRun("old", now.Add(-48*time.Hour))))
	require.NoError(t, db.SaveRun(context.Background(), makeRun("new", now)))

	n, err := db.PruneBefore(context.Background(), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.GetRun(context.Background(), "old")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	_, err = db.GetRun(context.Background(), "new")
	assert.NoError(t, err)
}
