package strategy

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// SMA predice la media simple de los últimos k cierres.
type SMA struct {
	window int
}

// NewSMA crea un SMA(k). k debe ser positivo.
func NewSMA(k int) (SMA, error) {
	if k <= 0 {
		return SMA{}, fmt.Errorf("strategy.NewSMA: window must be > 0, got %d", k)
	}
	return SMA{window: k}, nil
}

// Window devuelve k.
func (s SMA) Window() int { return s.window }

// Name implementa Strategy.
func (s SMA) Name() string { return fmt.Sprintf("sma_%d", s.window) }

// MinHistory implementa Strategy.
func (s SMA) MinHistory() int { return s.window }

// PredictNext devuelve mean(history[len-k:]).
func (s SMA) PredictNext(history []float64) (float64, error) {
	if s.window <= 0 {
		return 0, fmt.Errorf("strategy.SMA: zero window (use NewSMA)")
	}
	if len(history) < s.window {
		return 0, fmt.Errorf("%w: %s needs %d prices, got %d",
			domain.ErrInsufficientHistory, s.Name(), s.window, len(history))
	}
	return stat.Mean(history[len(history)-s.window:], nil), nil
}
