package backtest

import "github.com/alejandrodnm/walkforward/internal/domain"

// DefaultMinWorking es el mínimo de baselines funcionando para dar el run por bueno.
const DefaultMinWorking = 2

// Assess marca como "working" cada estrategia con al menos un split con MAE
// computable. El run pasa si Working >= minWorking (<= 0 usa DefaultMinWorking).
func Assess(summary []domain.SummaryRecord, minWorking int) domain.Assessment {
	if minWorking <= 0 {
		minWorking = DefaultMinWorking
	}

	var order []string
	seen := make(map[string]bool)
	for _, s := range summary {
		if !seen[s.StrategyID] {
			seen[s.StrategyID] = true
			order = append(order, s.StrategyID)
		}
	}

	a := domain.Assessment{MinWorking: minWorking}
	for _, id := range order {
		v := domain.StrategyVerdict{StrategyID: id, AvgMAE: domain.NotComputable, AvgDirAcc: domain.NotComputable}
		if mae, ok := FindSummary(summary, id, domain.MetricMAE); ok {
			v.AvgMAE = mae.Mean
			v.Working = mae.SplitCount > 0
		}
		if da, ok := FindSummary(summary, id, domain.MetricDirectionalAccuracy); ok {
			v.AvgDirAcc = da.Mean
		}
		if v.Working {
			a.Working++
		}
		a.Verdicts = append(a.Verdicts, v)
	}
	a.Passed = a.Working >= minWorking
	return a
}
