package httpapi

import (
	"github.com/alejandrodnm/walkforward/internal/domain"
)

// Los valores no computables se serializan como null.

type windowDTO struct {
	TrainSize int `json:"train_size"`
	TestSize  int `json:"test_size"`
	StepSize  int `json:"step_size"`
}

type runInfoDTO struct {
	ID           string    `json:"id"`
	CreatedAt    string    `json:"created_at"`
	Symbol       string    `json:"symbol"`
	Window       windowDTO `json:"window"`
	SeriesLength int       `json:"series_length"`
	SplitCount   int       `json:"split_count"`
	Strategies   []string  `json:"strategies"`
}

type splitDTO struct {
	ID         int `json:"split_id"`
	TrainStart int `json:"train_start"`
	TrainEnd   int `json:"train_end"`
	TestStart  int `json:"test_start"`
	TestEnd    int `json:"test_end"`
}

type summaryDTO struct {
	StrategyID string   `json:"strategy"`
	Metric     string   `json:"metric"`
	Mean       *float64 `json:"mean"`
	StdDev     *float64 `json:"std"`
	SplitCount int      `json:"split_count"`
}

type metricDTO struct {
	SplitID             int      `json:"split_id"`
	StrategyID          string   `json:"strategy"`
	MAE                 *float64 `json:"mae"`
	RMSE                *float64 `json:"rmse"`
	MAPE                *float64 `json:"mape"`
	DirectionalAccuracy *float64 `json:"directional_accuracy"`
	SampleCount         int      `json:"sample_count"`
}

type predictionDTO struct {
	SplitID        int      `json:"split_id"`
	StrategyID     string   `json:"strategy"`
	Date           string   `json:"date"`
	Predicted      float64  `json:"predicted"`
	Actual         float64  `json:"actual"`
	PreviousActual *float64 `json:"previous_actual"`
}

type runDTO struct {
	runInfoDTO
	Splits  []splitDTO   `json:"splits"`
	Summary []summaryDTO `json:"summary"`
}

func value(m domain.MetricValue) *float64 {
	if !m.Computable {
		return nil
	}
	v := m.Value
	return &v
}

func toRunInfoDTO(info domain.RunInfo) runInfoDTO {
	strategies := info.Strategies
	if strategies == nil {
		strategies = []string{}
	}
	return runInfoDTO{
		ID:        info.ID,
		CreatedAt: info.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Symbol:    info.Symbol,
		Window: windowDTO{
			TrainSize: info.Window.TrainSize,
			TestSize:  info.Window.TestSize,
			StepSize:  info.Window.StepSize,
		},
		SeriesLength: info.SeriesLength,
		SplitCount:   info.SplitCount,
		Strategies:   strategies,
	}
}

func toSplitDTOs(splits []domain.Split) []splitDTO {
	out := make([]splitDTO, 0, len(splits))
	for _, sp := range splits {
		out = append(out, splitDTO{
			ID:         sp.ID,
			TrainStart: sp.Train.Start,
			TrainEnd:   sp.Train.End,
			TestStart:  sp.Test.Start,
			TestEnd:    sp.Test.End,
		})
	}
	return out
}

func toSummaryDTOs(summary []domain.SummaryRecord) []summaryDTO {
	out := make([]summaryDTO, 0, len(summary))
	for _, s := range summary {
		out = append(out, summaryDTO{
			StrategyID: s.StrategyID,
			Metric:     s.MetricName,
			Mean:       value(s.Mean),
			StdDev:     value(s.StdDev),
			SplitCount: s.SplitCount,
		})
	}
	return out
}

func toMetricDTOs(metrics []domain.MetricRecord) []metricDTO {
	out := make([]metricDTO, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, metricDTO{
			SplitID:             m.SplitID,
			StrategyID:          m.StrategyID,
			MAE:                 value(m.MAE),
			RMSE:                value(m.RMSE),
			MAPE:                value(m.MAPE),
			DirectionalAccuracy: value(m.DirectionalAccuracy),
			SampleCount:         m.SampleCount,
		})
	}
	return out
}

func toPredictionDTOs(preds []domain.PredictionRecord) []predictionDTO {
	out := make([]predictionDTO, 0, len(preds))
	for _, p := range preds {
		dto := predictionDTO{
			SplitID:    p.SplitID,
			StrategyID: p.StrategyID,
			Date:       p.Date.Format(domain.DateLayout),
			Predicted:  p.Predicted,
			Actual:     p.Actual,
		}
		if p.HasPrevious {
			prev := p.PreviousActual
			dto.PreviousActual = &prev
		}
		out = append(out, dto)
	}
	return out
}
