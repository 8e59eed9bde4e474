package strategy

import (
	"fmt"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const naiveName = "naive"

// Naive predice que mañana cierra igual que hoy.
type Naive struct{}

// Name implementa Strategy.
func (Naive) Name() string { return naiveName }

// MinHistory implementa Strategy.
func (Naive) MinHistory() int { return 1 }

// PredictNext devuelve el último cierre conocido.
func (Naive) PredictNext(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, fmt.Errorf("%w: naive needs 1 price, got 0", domain.ErrInsufficientHistory)
	}
	return history[len(history)-1], nil
}
