package backtest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/walkforward/internal/application/backtest"
	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/domain/strategy"
)

func TestRun_Ramp(t *testing.T) {
	series := makeRamp(400)
	strategies := []strategy.Strategy{strategy.Naive{}, mustSMA(t, 5), driftStrategy{}}

	report, err := backtest.Run(context.Background(), series, backtest.DefaultConfig(), strategies)
	require.NoError(t, err)

	require.Len(t, report.Splits, 5)
	assert.Equal(t, domain.Range{Start: 0, End: 252}, report.Splits[0].Train)
	assert.Equal(t, domain.Range{Start: 252, End: 315}, report.Splits[0].Test)
	assert.Len(t, report.Predictions, 5*63*3)
	assert.Len(t, report.Metrics, 5*3)
	assert.Equal(t, []string{"naive", "sma_5", "drift"}, report.StrategyIDs())

	for _, m := range report.MetricsFor("naive") {
		assert.InDelta(t, 1.0, m.MAE.Value, 1e-9)
		assert.InDelta(t, 1.0, m.RMSE.Value, 1e-9)
		assert.Equal(t, 63, m.SampleCount)
		// naive predice "sin cambio": nunca acierta una subida estricta
		require.True(t, m.DirectionalAccuracy.Computable)
		assert.Equal(t, 0.0, m.DirectionalAccuracy.Value)
	}
	for _, m := range report.MetricsFor("sma_5") {
		assert.InDelta(t, 3.0, m.MAE.Value, 1e-9)
	}
	for _, m := range report.MetricsFor("drift") {
		assert.InDelta(t, 0.0, m.MAE.Value, 1e-9)
		assert.InDelta(t, 1.0, m.DirectionalAccuracy.Value, 1e-9)
	}

	naiveMAE, ok := backtest.FindSummary(report.Summary, "naive", domain.MetricMAE)
	require.True(t, ok)
	assert.InDelta(t, 1.0, naiveMAE.Mean.Value, 1e-9)
	assert.InDelta(t, 0.0, naiveMAE.StdDev.Value, 1e-9)
	assert.Equal(t, 5, naiveMAE.SplitCount)

	smaMAE, ok := backtest.FindSummary(report.Summary, "sma_5", domain.MetricMAE)
	require.True(t, ok)
	assert.InDelta(t, 3.0, smaMAE.Mean.Value, 1e-9)
	assert.Less(t, naiveMAE.Mean.Value, smaMAE.Mean.Value)

	driftDA, ok := backtest.FindSummary(report.Summary, "drift", domain.MetricDirectionalAccuracy)
	require.True(t, ok)
	assert.InDelta(t, 1.0, driftDA.Mean.Value, 1e-9)
}

func TestRun_Deterministic(t *testing.T) {
	series := makeSeries(func(i int) float64 { return 20 + float64((i*7)%13) }, 420)
	strategies := []strategy.Strategy{strategy.Naive{}, mustSMA(t, 5), mustSMA(t, 20)}

	cfg := backtest.DefaultConfig()
	cfg.Workers = 1
	a, err := backtest.Run(context.Background(), series, cfg, strategies)
	require.NoError(t, err)

	cfg.Workers = 8
	b, err := backtest.Run(context.Background(), series, cfg, strategies)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_InsufficientData(t *testing.T) {
	_, err := backtest.Run(context.Background(), makeRamp(100), backtest.DefaultConfig(),
		[]strategy.Strategy{strategy.Naive{}})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestRun_InvalidWindow(t *testing.T) {
	cfg := backtest.Config{Window: domain.WindowConfig{TrainSize: 10, TestSize: 0, StepSize: 1}}
	_, err := backtest.Run(context.Background(), makeRamp(100), cfg, []strategy.Strategy{strategy.Naive{}})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestRun_NonMonotonicSeries(t *testing.T) {
	series := makeRamp(400)
	series.Points[10].Date = series.Points[9].Date
	_, err := backtest.Run(context.Background(), series, backtest.DefaultConfig(), []strategy.Strategy{strategy.Naive{}})
	assert.ErrorIs(t, err, domain.ErrNonMonotonicSeries)
}

func TestRun_NoStrategies(t *testing.T) {
	_, err := backtest.Run(context.Background(), makeRamp(400), backtest.DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestRun_UnitFailureFailsRun(t *testing.T) {
	report, err := backtest.Run(context.Background(), makeRamp(400), backtest.DefaultConfig(),
		[]strategy.Strategy{strategy.Naive{}, mustSMA(t, 300)})
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
	assert.Nil(t, report)
}

func TestAssess(t *testing.T) {
	report, err := backtest.Run(context.Background(), makeRamp(400), backtest.DefaultConfig(),
		[]strategy.Strategy{strategy.Naive{}, mustSMA(t, 5)})
	require.NoError(t, err)

	a := backtest.Assess(report.Summary, 0)
	assert.Equal(t, backtest.DefaultMinWorking, a.MinWorking)
	assert.Equal(t, 2, a.Working)
	assert.True(t, a.Passed)
	require.Len(t, a.Verdicts, 2)
	assert.Equal(t, "naive", a.Verdicts[0].StrategyID)
	assert.InDelta(t, 1.0, a.Verdicts[0].AvgMAE.Value, 1e-9)

	a = backtest.Assess(report.Summary, 3)
	assert.False(t, a.Passed)
}

func TestAssess_NotWorkingWithoutComputableMAE(t *testing.T) {
	summary := []domain.SummaryRecord{
		{StrategyID: "a", MetricName: domain.MetricMAE, Mean: domain.Computable(1), SplitCount: 2},
		{StrategyID: "b", MetricName: domain.MetricMAE, Mean: domain.NotComputable, SplitCount: 0},
	}
	a := backtest.Assess(summary, 1)
	assert.Equal(t, 1, a.Working)
	assert.True(t, a.Passed)
	assert.True(t, a.Verdicts[0].Working)
	assert.False(t, a.Verdicts[1].Working)
	assert.False(t, a.Verdicts[1].AvgDirAcc.Computable)
}
