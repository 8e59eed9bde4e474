package backtest

import (
	"gonum.org/v1/gonum/stat"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// Summarize agrega los MetricRecords por (estrategia, métrica): media,
// desviación estándar muestral (n-1) y número de splits que aportan.
// Los valores NotComputable se excluyen, no cuentan como cero. Con menos de
// dos valores la desviación queda NotComputable; sin valores, también la media.
//
// El orden de salida es el de primera aparición de cada estrategia y, dentro
// de cada una, el de domain.MetricNames().
func Summarize(metrics []domain.MetricRecord) []domain.SummaryRecord {
	var order []string
	byStrategy := make(map[string][]domain.MetricRecord)
	for _, m := range metrics {
		if _, ok := byStrategy[m.StrategyID]; !ok {
			order = append(order, m.StrategyID)
		}
		byStrategy[m.StrategyID] = append(byStrategy[m.StrategyID], m)
	}

	names := domain.MetricNames()
	out := make([]domain.SummaryRecord, 0, len(order)*len(names))
	for _, id := range order {
		for _, name := range names {
			out = append(out, summarizeMetric(id, name, byStrategy[id]))
		}
	}
	return out
}

func summarizeMetric(strategyID, name string, records []domain.MetricRecord) domain.SummaryRecord {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Metric(name); ok && v.Computable {
			values = append(values, v.Value)
		}
	}

	sr := domain.SummaryRecord{
		StrategyID: strategyID,
		MetricName: name,
		Mean:       domain.NotComputable,
		StdDev:     domain.NotComputable,
		SplitCount: len(values),
	}
	if len(values) > 0 {
		sr.Mean = domain.Computable(stat.Mean(values, nil))
	}
	if len(values) > 1 {
		sr.StdDev = domain.Computable(stat.StdDev(values, nil))
	}
	return sr
}

// FindSummary busca el SummaryRecord de (estrategia, métrica).
func FindSummary(summary []domain.SummaryRecord, strategyID, metric string) (domain.SummaryRecord, bool) {
	for _, s := range summary {
		if s.StrategyID == strategyID && s.MetricName == metric {
			return s, true
		}
	}
	return domain.SummaryRecord{}, false
}
