package marketdata

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// DefaultInterval es el único intervalo que usa el backtest.
const DefaultInterval = "1d"

// Dataset es una serie limpia con sus features, tal como se guarda en caché.
type Dataset struct {
	Symbol   string              `msgpack:"symbol"`
	Interval string              `msgpack:"interval"`
	Start    time.Time           `msgpack:"start"`
	End      time.Time           `msgpack:"end"`
	Points   []domain.PricePoint `msgpack:"points"`
	Features []Features          `msgpack:"features"`
}

// Prepare limpia raw y calcula sus features.
func Prepare(symbol, interval string, start, end time.Time, raw []domain.PricePoint) (*Dataset, CleanReport, error) {
	points, rep := Clean(raw)
	if len(points) == 0 {
		return nil, rep, fmt.Errorf("marketdata.Prepare: %s: no valid rows out of %d", symbol, rep.Input)
	}
	if interval == "" {
		interval = DefaultInterval
	}
	return &Dataset{
		Symbol:   symbol,
		Interval: interval,
		Start:    start,
		End:      end,
		Points:   points,
		Features: Derive(points),
	}, rep, nil
}

// Series devuelve la serie de precios del dataset.
func (d *Dataset) Series() domain.Series {
	return domain.Series{Symbol: d.Symbol, Points: d.Points}
}

// Len devuelve el número de días.
func (d *Dataset) Len() int {
	return len(d.Points)
}
