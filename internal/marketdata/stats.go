package marketdata

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// SeriesStats son las estadísticas descriptivas de una serie.
type SeriesStats struct {
	Symbol      string
	From        time.Time
	To          time.Time
	TradingDays int
	FirstClose  float64
	LastClose   float64
	Change      float64
	ChangePct   float64
	Highest     float64
	Lowest      float64
	AvgVolume   float64
}

// Stats calcula SeriesStats. Una serie vacía devuelve el zero value.
// Highest/Lowest usan High/Low cuando existen y Close si no.
func Stats(symbol string, points []domain.PricePoint) SeriesStats {
	s := SeriesStats{Symbol: symbol, TradingDays: len(points)}
	if len(points) == 0 {
		return s
	}

	highs := make([]float64, len(points))
	lows := make([]float64, len(points))
	volumes := make([]float64, len(points))
	for i, p := range points {
		highs[i], lows[i] = p.High, p.Low
		if p.High <= 0 {
			highs[i] = p.Close
		}
		if p.Low <= 0 {
			lows[i] = p.Close
		}
		volumes[i] = p.Volume
	}

	first, last := points[0], points[len(points)-1]
	s.From, s.To = first.Date, last.Date
	s.FirstClose, s.LastClose = first.Close, last.Close
	s.Change = last.Close - first.Close
	s.ChangePct = s.Change / first.Close * 100
	s.Highest = floats.Max(highs)
	s.Lowest = floats.Min(lows)
	s.AvgVolume = stat.Mean(volumes, nil)
	return s
}
