package backtest

import (
	"github.com/alejandrodnm/walkforward/internal/domain"
)

// GenerateSplits produce las ventanas walk-forward para una serie de longitud
// seriesLen. El primer split es train=[0,train) test=[train,train+test); cada
// split siguiente desplaza ambas ventanas step posiciones. Solo se devuelven
// splits cuyo test cabe entero en la serie.
//
// Una serie demasiado corta devuelve un slice vacío sin error: el llamador
// decide si eso es fatal (ver domain.ErrInsufficientData).
func GenerateSplits(seriesLen, train, test, step int) ([]domain.Split, error) {
	w := domain.WindowConfig{TrainSize: train, TestSize: test, StepSize: step}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	if seriesLen < train+test {
		return []domain.Split{}, nil
	}

	splits := make([]domain.Split, 0, (seriesLen-train-test)/step+1)
	for start := 0; start+train+test <= seriesLen; start += step {
		splits = append(splits, domain.Split{
			ID:    len(splits),
			Train: domain.Range{Start: start, End: start + train},
			Test:  domain.Range{Start: start + train, End: start + train + test},
		})
	}
	return splits, nil
}

// SplitsFor es GenerateSplits con una WindowConfig.
func SplitsFor(seriesLen int, w domain.WindowConfig) ([]domain.Split, error) {
	return GenerateSplits(seriesLen, w.TrainSize, w.TestSize, w.StepSize)
}
