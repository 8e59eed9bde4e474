// Package yahoo descarga historia diaria de Yahoo Finance.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const (
	// Yahoo no documenta límites; 2 req/s con ráfaga 2 no dispara 429 en la práctica.
	requestsPerSec = 2
	burst          = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// ErrNoData: Yahoo respondió pero sin barras en el rango pedido.
var ErrNoData = errors.New("no price data")

// historyFunc es la llamada a Yahoo; se sustituye en tests.
type historyFunc func(symbol string, params models.HistoryParams) ([]models.Bar, error)

// Client implementa ports.PriceProvider con rate limiting y retries.
type Client struct {
	history  historyFunc
	limiter  *rate.Limiter
	now      func() time.Time
	baseWait time.Duration
}

// NewClient crea un Client contra Yahoo Finance.
func NewClient() *Client {
	return &Client{
		history:  fetchHistory,
		limiter:  rate.NewLimiter(requestsPerSec, burst),
		now:      time.Now,
		baseWait: baseRetryWait,
	}
}

func fetchHistory(symbol string, params models.HistoryParams) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("create ticker: %w", err)
	}
	defer t.Close()
	return t.History(params)
}

// FetchDaily descarga barras diarias auto-ajustadas y conserva las de [start, end).
// Las fechas se normalizan a medianoche UTC del día de mercado.
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("yahoo.FetchDaily: end %s is not after start %s",
			end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}

	params := models.HistoryParams{
		Period:     pickPeriod(c.now().Sub(start)),
		Interval:   "1d",
		AutoAdjust: true,
	}
	slog.Info("downloading price history",
		"symbol", symbol,
		"start", start.Format(domain.DateLayout),
		"end", end.Format(domain.DateLayout),
		"period", params.Period,
	)

	bars, err := c.historyWithRetry(ctx, symbol, params)
	if err != nil {
		return nil, fmt.Errorf("yahoo.FetchDaily: %s: %w", symbol, err)
	}

	points := make([]domain.PricePoint, 0, len(bars))
	for _, bar := range bars {
		y, m, d := bar.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if day.Before(start) || !day.Before(end) {
			continue
		}
		points = append(points, domain.PricePoint{
			Date:     day,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   float64(bar.Volume),
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo.FetchDaily: %s: %w", symbol, ErrNoData)
	}

	slog.Info("downloaded price history", "symbol", symbol, "rows", len(points))
	return points, nil
}

// historyWithRetry reintenta con backoff exponencial, respetando el contexto.
func (c *Client) historyWithRetry(ctx context.Context, symbol string, params models.HistoryParams) ([]models.Bar, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		bars, err := c.history(symbol, params)
		if err == nil {
			return bars, nil
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}
		slog.Warn("yahoo request failed, retrying", "symbol", symbol, "attempt", attempt+1, "err", err)
		if err := c.sleep(ctx, attempt); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

// sleep espera con backoff exponencial; devuelve ctx.Err() si se cancela.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.baseWait
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pickPeriod elige el periodo de Yahoo más corto que cubre span.
func pickPeriod(span time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case span <= 365*day:
		return "1y"
	case span <= 2*365*day:
		return "2y"
	case span <= 5*365*day:
		return "5y"
	case span <= 10*365*day:
		return "10y"
	}
	return "max"
}
