// Package marketdata prepara barras diarias crudas para el backtest:
// limpieza, features derivadas y estadísticas descriptivas.
package marketdata

import (
	"log/slog"
	"math"
	"sort"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// CleanReport cuenta lo que Clean descartó.
type CleanReport struct {
	Input       int
	Missing     int // close (u OHLC) NaN
	NonPositive int // precios <= 0
	Duplicates  int // fechas repetidas (gana la última)
	Output      int
}

// Dropped devuelve el total de filas descartadas.
func (r CleanReport) Dropped() int {
	return r.Missing + r.NonPositive + r.Duplicates
}

// Clean devuelve una copia limpia de points:
//   - descarta filas con close NaN o <= 0
//   - si la fila trae Open/High/Low, los exige finitos y positivos; una fila
//     con los tres a cero se considera solo-close y se conserva
//   - volumen NaN o negativo pasa a 0
//   - ordena por fecha y deduplica (la última aparición gana)
//
// No modifica el slice de entrada.
func Clean(points []domain.PricePoint) ([]domain.PricePoint, CleanReport) {
	rep := CleanReport{Input: len(points)}

	out := make([]domain.PricePoint, 0, len(points))
	for _, p := range points {
		if hasNaN(p) {
			rep.Missing++
			continue
		}
		if !positivePrices(p) {
			rep.NonPositive++
			continue
		}
		if math.IsNaN(p.Volume) || p.Volume < 0 {
			p.Volume = 0
		}
		out = append(out, p)
	}

	// estable: entre fechas iguales se conserva el orden de entrada
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	deduped := out[:0]
	for _, p := range out {
		n := len(deduped)
		if n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			rep.Duplicates++
			continue
		}
		deduped = append(deduped, p)
	}
	rep.Output = len(deduped)

	if rep.Dropped() > 0 {
		slog.Info("cleaned price data",
			"input", rep.Input,
			"missing", rep.Missing,
			"non_positive", rep.NonPositive,
			"duplicates", rep.Duplicates,
			"output", rep.Output,
		)
	}
	return deduped, rep
}

func hasNaN(p domain.PricePoint) bool {
	return math.IsNaN(p.Close) || math.IsNaN(p.Open) || math.IsNaN(p.High) || math.IsNaN(p.Low)
}

func positivePrices(p domain.PricePoint) bool {
	if p.Close <= 0 || math.IsInf(p.Close, 0) {
		return false
	}
	if p.Open == 0 && p.High == 0 && p.Low == 0 {
		return true
	}
	for _, v := range []float64{p.Open, p.High, p.Low} {
		if v <= 0 || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
