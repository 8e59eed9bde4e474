package backtest

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// ComputeMetrics reduce las predicciones de un único (split, estrategia) a
// MAE, RMSE, MAPE y directional accuracy en una sola pasada.
//
//   - MAPE ignora los días con actual == 0; si todos lo son queda NotComputable.
//   - Directional accuracy compara sign(actual-prev) con sign(pred-prev), donde
//     prev es el cierre real del día anterior. Los días sin cambio real
//     (o sin día anterior) no cuentan ni en numerador ni en denominador.
//     Un día es acierto si ambos signos coinciden y no son cero.
//
// Un slice vacío devuelve todas las métricas NotComputable y SampleCount 0.
func ComputeMetrics(records []domain.PredictionRecord) (domain.MetricRecord, error) {
	if len(records) == 0 {
		return domain.MetricRecord{
			MAE:                 domain.NotComputable,
			RMSE:                domain.NotComputable,
			MAPE:                domain.NotComputable,
			DirectionalAccuracy: domain.NotComputable,
		}, nil
	}

	splitID, strategyID := records[0].SplitID, records[0].StrategyID

	var (
		sumAbs, sumSq, sumPct float64
		pctN                  int
		dirCorrect, dirN      int
	)
	for _, r := range records {
		if r.SplitID != splitID || r.StrategyID != strategyID {
			return domain.MetricRecord{}, fmt.Errorf(
				"backtest.ComputeMetrics: mixed units (split %d/%s and split %d/%s)",
				splitID, strategyID, r.SplitID, r.StrategyID)
		}

		diff := r.Actual - r.Predicted
		absErr := math.Abs(diff)
		sumAbs += absErr
		sumSq += diff * diff

		if r.Actual != 0 {
			sumPct += absErr / math.Abs(r.Actual)
			pctN++
		}

		if !r.HasPrevious {
			continue
		}
		actualDir := sign(r.Actual - r.PreviousActual)
		if actualDir == 0 {
			continue
		}
		dirN++
		if sign(r.Predicted-r.PreviousActual) == actualDir {
			dirCorrect++
		}
	}

	n := float64(len(records))
	out := domain.MetricRecord{
		SplitID:     splitID,
		StrategyID:  strategyID,
		MAE:         domain.Computable(sumAbs / n),
		RMSE:        domain.Computable(math.Sqrt(sumSq / n)),
		MAPE:        domain.NotComputable,
		SampleCount: len(records),
	}
	if pctN > 0 {
		out.MAPE = domain.Computable(sumPct / float64(pctN) * 100)
	}
	if dirN > 0 {
		out.DirectionalAccuracy = domain.Computable(float64(dirCorrect) / float64(dirN))
	}
	return out, nil
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
