package domain

import (
	"fmt"
	"math"
	"time"
)

// PricePoint es una barra diaria ya limpia. Close es obligatorio y positivo;
// los demás campos son opcionales (0 = no disponible).
type PricePoint struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// Series es la serie de precios completa de un símbolo, ordenada por fecha.
// Se trata como solo-lectura una vez construida.
type Series struct {
	Symbol string
	Points []PricePoint
}

// Len devuelve el número de barras.
func (s Series) Len() int {
	return len(s.Points)
}

// Closes devuelve una copia de los cierres indexados 0..L-1.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Validate comprueba que las fechas son estrictamente crecientes y que todos
// los cierres son positivos. Cualquier violación envuelve ErrNonMonotonicSeries.
func (s Series) Validate() error {
	for i, p := range s.Points {
		if math.IsNaN(p.Close) || p.Close <= 0 {
			return fmt.Errorf("%w: non-positive close %v at index %d (%s)",
				ErrNonMonotonicSeries, p.Close, i, p.Date.Format(DateLayout))
		}
		if i == 0 {
			continue
		}
		prev := s.Points[i-1].Date
		if !p.Date.After(prev) {
			return fmt.Errorf("%w: date %s at index %d is not after %s",
				ErrNonMonotonicSeries, p.Date.Format(DateLayout), i, prev.Format(DateLayout))
		}
	}
	return nil
}

// DateLayout es el formato de día calendario usado en CSV, SQLite y la API.
const DateLayout = "2006-01-02"
