package backtest_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/domain/strategy"
)

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// makeRamp crea una serie con close = 100 + i.
func makeRamp(n int) domain.Series {
	return makeSeries(func(i int) float64 { return 100 + float64(i) }, n)
}

func makeSeries(closeAt func(i int) float64, n int) domain.Series {
	pts := make([]domain.PricePoint, n)
	for i := range pts {
		c := closeAt(i)
		pts[i] = domain.PricePoint{
			Date:   day0.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return domain.Series{Symbol: "TEST", Points: pts}
}

func mustSMA(t *testing.T, k int) strategy.SMA {
	t.Helper()
	s, err := strategy.NewSMA(k)
	require.NoError(t, err)
	return s
}

// indexStrategy predice len(history): con una rampa 100+i permite reconstruir
// qué índice vio la estrategia para cada día. Falla si el slice permite
// alcanzar datos futuros vía su capacidad.
type indexStrategy struct{}

func (indexStrategy) Name() string    { return "index" }
func (indexStrategy) MinHistory() int { return 0 }
func (indexStrategy) PredictNext(h []float64) (float64, error) {
	if cap(h) != len(h) {
		return 0, fmt.Errorf("history leaks %d future prices", cap(h)-len(h))
	}
	return float64(len(h)), nil
}

// driftStrategy predice último cierre + 1: acierta siempre la dirección en una rampa.
type driftStrategy struct{}

func (driftStrategy) Name() string    { return "drift" }
func (driftStrategy) MinHistory() int { return 1 }
func (driftStrategy) PredictNext(h []float64) (float64, error) {
	return h[len(h)-1] + 1, nil
}

// failingStrategy falla cuando la historia alcanza failAt precios.
type failingStrategy struct {
	failAt int
}

func (failingStrategy) Name() string    { return "failing" }
func (failingStrategy) MinHistory() int { return 1 }
func (f failingStrategy) PredictNext(h []float64) (float64, error) {
	if len(h) == f.failAt {
		return 0, fmt.Errorf("boom at %d", f.failAt)
	}
	return h[len(h)-1], nil
}
