package marketdata

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const (
	shortSMA      = 5
	longSMA       = 20
	volatilityWin = 20
)

// Features son las columnas derivadas de un día. Un valor que no se puede
// calcular (primer día, ventana incompleta, último día) es NaN.
type Features struct {
	Returns         float64 `msgpack:"returns"`
	LogReturns      float64 `msgpack:"log_returns"`
	TargetReturn    float64 `msgpack:"target_return"`
	TargetDirection int     `msgpack:"target_direction"` // 1 si TargetReturn > 0
	SMA5            float64 `msgpack:"sma_5"`
	SMA20           float64 `msgpack:"sma_20"`
	Volatility20    float64 `msgpack:"volatility_20"`
	PriceChange     float64 `msgpack:"price_change"`
	PriceChangePct  float64 `msgpack:"price_change_pct"`
}

// Derive calcula las features de cada día a partir de los cierres.
func Derive(points []domain.PricePoint) []Features {
	n := len(points)
	out := make([]Features, n)
	if n == 0 {
		return out
	}

	closes := make([]float64, n)
	for i, p := range points {
		closes[i] = p.Close
	}

	returns := make([]float64, n)
	for i := range closes {
		if i == 0 {
			returns[i] = math.NaN()
			continue
		}
		returns[i] = closes[i]/closes[i-1] - 1
	}

	sma5 := rollingSMA(closes, shortSMA)
	sma20 := rollingSMA(closes, longSMA)

	for i := range out {
		f := &out[i]
		f.Returns = returns[i]
		f.SMA5 = sma5[i]
		f.SMA20 = sma20[i]

		if i == 0 {
			f.LogReturns = math.NaN()
			f.PriceChange = math.NaN()
			f.PriceChangePct = math.NaN()
		} else {
			f.LogReturns = math.Log(closes[i] / closes[i-1])
			f.PriceChange = closes[i] - closes[i-1]
			f.PriceChangePct = f.PriceChange / closes[i-1] * 100
		}

		f.TargetReturn = math.NaN()
		if i+1 < n {
			f.TargetReturn = returns[i+1]
		}
		if f.TargetReturn > 0 {
			f.TargetDirection = 1
		}

		// la ventana de volatilidad necesita volatilityWin retornos definidos
		f.Volatility20 = math.NaN()
		if i >= volatilityWin {
			f.Volatility20 = stat.StdDev(returns[i-volatilityWin+1:i+1], nil)
		}
	}
	return out
}

// rollingSMA envuelve talib.Sma: las posiciones del lookback quedan NaN
// en vez de 0, y una serie más corta que la ventana es toda NaN.
func rollingSMA(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) < window {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sma := talib.Sma(closes, window)
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sma[i]
	}
	return out
}
