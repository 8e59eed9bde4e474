package backtest

// backtester.go: recorrido día a día de cada (split, estrategia).
//
// Cada unidad (split × estrategia) es independiente: solo lee la serie
// inmutable y escribe su propio buffer. Un worker pool procesa las unidades
// en paralelo y el merge final las coloca en orden determinista
// (split, orden de estrategia, fecha), así que el resultado no depende del
// número de workers.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/domain/strategy"
)

// UnitError es el fallo de una unidad (split, estrategia). Una unidad que
// falla no aporta ningún PredictionRecord.
type UnitError struct {
	SplitID    int
	StrategyID string
	Err        error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("split %d / %s: %v", e.SplitID, e.StrategyID, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

// Backtester genera las predicciones one-step-ahead de todas las unidades.
type Backtester struct {
	workers int
}

// NewBacktester crea un Backtester. Si workers <= 0 usa runtime.NumCPU().
func NewBacktester(workers int) *Backtester {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Backtester{workers: workers}
}

type unit struct {
	idx   int
	split domain.Split
	strat strategy.Strategy
}

type unitResult struct {
	idx     int
	records []domain.PredictionRecord
	err     error
}

// Run evalúa todas las estrategias en todos los splits.
//
// Para cada día t del test la estrategia solo ve los cierres con índice < t
// (historia expanding: incluye días de test ya observados del mismo split).
// Devuelve los registros de las unidades que terminaron bien y, si alguna
// falló, un error que une los *UnitError en orden determinista. Si el
// contexto se cancela devuelve (nil, ctx.Err()).
func (b *Backtester) Run(
	ctx context.Context,
	series domain.Series,
	splits []domain.Split,
	strategies []strategy.Strategy,
) ([]domain.PredictionRecord, error) {
	closes := series.Closes()

	units := make([]unit, 0, len(splits)*len(strategies))
	for _, sp := range splits {
		for _, st := range strategies {
			units = append(units, unit{idx: len(units), split: sp, strat: st})
		}
	}
	if len(units) == 0 {
		return []domain.PredictionRecord{}, nil
	}

	workers := min(b.workers, len(units))
	workCh := make(chan unit, len(units))
	resultCh := make(chan unitResult, len(units))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range workCh {
				// cancelación entre unidades, nunca a mitad de una
				if err := ctx.Err(); err != nil {
					resultCh <- unitResult{idx: u.idx, err: err}
					continue
				}
				recs, err := evaluateUnit(series, closes, u.split, u.strat)
				if err != nil {
					err = &UnitError{SplitID: u.split.ID, StrategyID: u.strat.Name(), Err: err}
				}
				resultCh <- unitResult{idx: u.idx, records: recs, err: err}
			}
		}()
	}

	for _, u := range units {
		workCh <- u
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// merge: única sincronización; cada unidad va a su posición
	byUnit := make([][]domain.PredictionRecord, len(units))
	unitErrs := make([]error, len(units))
	for res := range resultCh {
		byUnit[res.idx] = res.records
		unitErrs[res.idx] = res.err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, recs := range byUnit {
		total += len(recs)
	}
	out := make([]domain.PredictionRecord, 0, total)
	var failed []error
	for i, recs := range byUnit {
		if unitErrs[i] != nil {
			failed = append(failed, unitErrs[i])
			continue
		}
		out = append(out, recs...)
	}

	slog.Debug("backtest units complete",
		"units", len(units),
		"failed", len(failed),
		"predictions", len(out),
		"workers", workers,
	)

	return out, errors.Join(failed...)
}

// evaluateUnit recorre el test de un split con una estrategia.
// Todo o nada: al primer error no se devuelve ningún registro.
func evaluateUnit(series domain.Series, closes []float64, sp domain.Split, st strategy.Strategy) ([]domain.PredictionRecord, error) {
	if sp.Test.End > len(closes) || sp.Test.Start < 0 || sp.Test.Len() <= 0 {
		return nil, fmt.Errorf("test range %s outside series of length %d", sp.Test, len(closes))
	}
	if need := st.MinHistory(); need > sp.Test.Start {
		return nil, fmt.Errorf("%w: %s needs %d prices, only %d available before first test day",
			domain.ErrInsufficientHistory, st.Name(), need, sp.Test.Start)
	}

	recs := make([]domain.PredictionRecord, 0, sp.Test.Len())
	for t := sp.Test.Start; t < sp.Test.End; t++ {
		// prefijo con capacidad recortada: índices >= t no son alcanzables
		history := closes[:t:t]

		pred, err := st.PredictNext(history)
		if err != nil {
			return nil, fmt.Errorf("day %d (%s): %w", t, series.Points[t].Date.Format(domain.DateLayout), err)
		}

		rec := domain.PredictionRecord{
			SplitID:    sp.ID,
			StrategyID: st.Name(),
			Date:       series.Points[t].Date,
			Predicted:  pred,
			Actual:     closes[t],
		}
		if t > 0 {
			rec.PreviousActual = closes[t-1]
			rec.HasPrevious = true
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
