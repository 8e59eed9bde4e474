package ports

import (
	"context"

	"github.com/alejandrodnm/walkforward/internal/marketdata"
)

// DatasetKey identifica un dataset cacheado.
type DatasetKey struct {
	Symbol   string
	Start    string // YYYY-MM-DD
	End      string // YYYY-MM-DD
	Interval string
}

// DatasetCache guarda datasets ya preparados para no volver a descargarlos.
type DatasetCache interface {
	// Get devuelve (nil, false, nil) si no hay entrada para la clave.
	Get(ctx context.Context, key DatasetKey) (*marketdata.Dataset, bool, error)
	Put(ctx context.Context, key DatasetKey, ds *marketdata.Dataset) error
}
