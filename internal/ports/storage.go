package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// ResultStore persiste los runs del backtest.
type ResultStore interface {
	// SaveRun persiste el run completo (metadatos, splits, predicciones,
	// métricas y resumen) en una sola transacción.
	SaveRun(ctx context.Context, run domain.Run) error

	// GetRun devuelve el run con su Report. Si no existe, domain.ErrRunNotFound.
	GetRun(ctx context.Context, id string) (domain.Run, error)

	// ListRuns devuelve los metadatos de los runs, más recientes primero.
	// limit <= 0 significa sin límite.
	ListRuns(ctx context.Context, limit int) ([]domain.RunInfo, error)

	// GetSummary, GetMetrics y GetPredictions leen partes del Report sin
	// cargar el run completo. Un run inexistente devuelve domain.ErrRunNotFound.
	GetSummary(ctx context.Context, runID string) ([]domain.SummaryRecord, error)
	GetMetrics(ctx context.Context, runID string) ([]domain.MetricRecord, error)
	// GetPredictions filtra por estrategia si strategyID no está vacío.
	GetPredictions(ctx context.Context, runID, strategyID string) ([]domain.PredictionRecord, error)

	// PruneBefore borra los runs creados antes de t y devuelve cuántos borró.
	PruneBefore(ctx context.Context, t time.Time) (int64, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
