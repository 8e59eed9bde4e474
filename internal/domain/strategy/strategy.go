package strategy

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy define el contrato de un forecaster one-step-ahead.
// Las estrategias son puras: no guardan estado entre llamadas y una misma
// instancia puede usarse en varios splits y goroutines a la vez.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia (p.ej. "sma_20").
	Name() string

	// MinHistory es el número mínimo de precios que PredictNext necesita.
	// El backtester lo comprueba antes de evaluar un split.
	MinHistory() int

	// PredictNext predice el precio del día objetivo a partir de todos los
	// cierres anteriores a ese día. history no debe modificarse.
	// Devuelve un error que envuelve domain.ErrInsufficientHistory si
	// len(history) < MinHistory().
	PredictNext(history []float64) (float64, error)
}

// Parse construye una estrategia a partir de su nombre:
//
//	naive          → Naive
//	sma_5, sma:5   → SMA(5)
func Parse(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case n == naiveName:
		return Naive{}, nil
	case strings.HasPrefix(n, "sma_"), strings.HasPrefix(n, "sma:"):
		k, err := strconv.Atoi(n[4:])
		if err != nil {
			return nil, fmt.Errorf("strategy.Parse: bad sma window in %q: %w", name, err)
		}
		return NewSMA(k)
	}
	return nil, fmt.Errorf("strategy.Parse: unknown strategy %q", name)
}

// ParseList parsea una lista de nombres manteniendo el orden y rechaza duplicados.
func ParseList(names []string) ([]Strategy, error) {
	seen := make(map[string]bool, len(names))
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		s, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if seen[s.Name()] {
			return nil, fmt.Errorf("strategy.ParseList: duplicate strategy %q", s.Name())
		}
		seen[s.Name()] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("strategy.ParseList: no strategies given")
	}
	return out, nil
}
