package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/domain/strategy"
)

// Config controla una ejecución del pipeline.
type Config struct {
	Window  domain.WindowConfig
	Workers int // goroutines para evaluar unidades (0 = NumCPU)
}

// DefaultConfig devuelve la configuración por defecto (252/63/21).
func DefaultConfig() Config {
	return Config{Window: domain.DefaultWindow()}
}

// Run ejecuta el pipeline completo:
// validar ventanas → validar serie → splits → backtest → métricas → resumen.
//
// Una serie sin ningún split válido devuelve domain.ErrInsufficientData.
// Si cualquier unidad falla, el run completo falla (no se devuelven
// resultados parciales).
func Run(ctx context.Context, series domain.Series, cfg Config, strategies []strategy.Strategy) (*domain.Report, error) {
	start := time.Now()

	if err := cfg.Window.Validate(); err != nil {
		return nil, fmt.Errorf("backtest.Run: %w", err)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("backtest.Run: no strategies")
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("backtest.Run: %w", err)
	}

	splits, err := SplitsFor(series.Len(), cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("backtest.Run: %w", err)
	}
	if len(splits) == 0 {
		return nil, fmt.Errorf("backtest.Run: %w: %d days, need at least %d",
			domain.ErrInsufficientData, series.Len(), cfg.Window.TrainSize+cfg.Window.TestSize)
	}
	slog.Info("walk-forward splits created",
		"symbol", series.Symbol,
		"splits", len(splits),
		"series_len", series.Len(),
	)

	predictions, err := NewBacktester(cfg.Workers).Run(ctx, series, splits, strategies)
	if err != nil {
		return nil, fmt.Errorf("backtest.Run: %w", err)
	}

	metrics, err := metricsByUnit(predictions)
	if err != nil {
		return nil, fmt.Errorf("backtest.Run: %w", err)
	}

	report := &domain.Report{
		Splits:      splits,
		Predictions: predictions,
		Metrics:     metrics,
		Summary:     Summarize(metrics),
	}

	slog.Info("backtest complete",
		"strategies", len(strategies),
		"predictions", len(predictions),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// metricsByUnit agrupa las predicciones consecutivas de cada unidad
// (el backtester ya las entrega agrupadas y ordenadas) y calcula sus métricas.
func metricsByUnit(predictions []domain.PredictionRecord) ([]domain.MetricRecord, error) {
	var out []domain.MetricRecord
	for i := 0; i < len(predictions); {
		j := i + 1
		for j < len(predictions) &&
			predictions[j].SplitID == predictions[i].SplitID &&
			predictions[j].StrategyID == predictions[i].StrategyID {
			j++
		}
		m, err := ComputeMetrics(predictions[i:j])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		i = j
	}
	return out, nil
}
