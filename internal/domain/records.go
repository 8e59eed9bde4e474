package domain

import (
	"fmt"
	"time"
)

// MetricValue es una métrica que puede ser "no computable" (denominador cero).
// Un valor no computable se excluye de los agregados en vez de contar como 0.
type MetricValue struct {
	Value      float64
	Computable bool
}

// Computable construye un valor definido.
func Computable(v float64) MetricValue {
	return MetricValue{Value: v, Computable: true}
}

// NotComputable es el centinela para métricas sin denominador.
var NotComputable = MetricValue{}

func (m MetricValue) String() string {
	if !m.Computable {
		return "n/a"
	}
	return fmt.Sprintf("%.6f", m.Value)
}

// Nombres de métricas, en el orden en que se resumen.
const (
	MetricMAE                 = "mae"
	MetricRMSE                = "rmse"
	MetricMAPE                = "mape"
	MetricDirectionalAccuracy = "directional_accuracy"
)

// MetricNames devuelve los nombres de métricas en orden estable.
func MetricNames() []string {
	return []string{MetricMAE, MetricRMSE, MetricMAPE, MetricDirectionalAccuracy}
}

// PredictionRecord es una predicción one-step-ahead para un día de test.
// PreviousActual es el cierre real del día anterior en la serie completa
// (no limitado a la ventana de test); solo es válido si HasPrevious.
type PredictionRecord struct {
	SplitID        int
	StrategyID     string
	Date           time.Time
	Predicted      float64
	Actual         float64
	PreviousActual float64
	HasPrevious    bool
}

// MetricRecord resume las predicciones de un par (split, estrategia).
type MetricRecord struct {
	SplitID             int
	StrategyID          string
	MAE                 MetricValue
	RMSE                MetricValue
	MAPE                MetricValue
	DirectionalAccuracy MetricValue
	SampleCount         int
}

// Metric devuelve la métrica por nombre (ver MetricNames).
func (m MetricRecord) Metric(name string) (MetricValue, bool) {
	switch name {
	case MetricMAE:
		return m.MAE, true
	case MetricRMSE:
		return m.RMSE, true
	case MetricMAPE:
		return m.MAPE, true
	case MetricDirectionalAccuracy:
		return m.DirectionalAccuracy, true
	}
	return NotComputable, false
}

// SummaryRecord agrega una métrica de una estrategia sobre todos los splits.
// SplitCount cuenta solo los splits con valor computable.
type SummaryRecord struct {
	StrategyID string
	MetricName string
	Mean       MetricValue
	StdDev     MetricValue
	SplitCount int
}

// Report es la salida completa de una ejecución del pipeline.
type Report struct {
	Splits      []Split
	Predictions []PredictionRecord
	Metrics     []MetricRecord
	Summary     []SummaryRecord
}

// StrategyIDs devuelve las estrategias del reporte en orden de aparición.
func (r *Report) StrategyIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range r.Metrics {
		if !seen[m.StrategyID] {
			seen[m.StrategyID] = true
			ids = append(ids, m.StrategyID)
		}
	}
	return ids
}

// MetricsFor devuelve los MetricRecords de una estrategia, ordenados por split.
func (r *Report) MetricsFor(strategyID string) []MetricRecord {
	var out []MetricRecord
	for _, m := range r.Metrics {
		if m.StrategyID == strategyID {
			out = append(out, m)
		}
	}
	return out
}

// PredictionsFor devuelve las predicciones de una estrategia.
func (r *Report) PredictionsFor(strategyID string) []PredictionRecord {
	var out []PredictionRecord
	for _, p := range r.Predictions {
		if p.StrategyID == strategyID {
			out = append(out, p)
		}
	}
	return out
}

// Run es un Report persistido junto a su contexto de ejecución.
type Run struct {
	RunInfo
	Report Report
}

// RunInfo son los metadatos de un run (lo que lista la API).
type RunInfo struct {
	ID           string
	CreatedAt    time.Time
	Symbol       string
	Window       WindowConfig
	SeriesLength int
	SplitCount   int
	Strategies   []string
}
