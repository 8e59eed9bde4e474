package ports

import (
	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/marketdata"
)

// Reporter presenta los resultados de un run al usuario.
// En la implementación de consola, imprime tablas formateadas.
type Reporter interface {
	PrintSeriesStats(stats marketdata.SeriesStats)
	PrintSummary(report *domain.Report)
	PrintDetail(report *domain.Report)
	PrintAssessment(a domain.Assessment)
}
