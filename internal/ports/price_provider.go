package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// PriceProvider descarga barras diarias de un símbolo.
type PriceProvider interface {
	// FetchDaily devuelve las barras auto-ajustadas con fecha en [start, end),
	// sin limpiar. Un símbolo sin datos devuelve error.
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)
}
