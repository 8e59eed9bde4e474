package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/walkforward/config"
	"github.com/alejandrodnm/walkforward/internal/adapters/cache"
	"github.com/alejandrodnm/walkforward/internal/adapters/csvfile"
	"github.com/alejandrodnm/walkforward/internal/adapters/notify"
	"github.com/alejandrodnm/walkforward/internal/adapters/storage"
	"github.com/alejandrodnm/walkforward/internal/adapters/yahoo"
	"github.com/alejandrodnm/walkforward/internal/application/backtest"
	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/domain/strategy"
	"github.com/alejandrodnm/walkforward/internal/marketdata"
	"github.com/alejandrodnm/walkforward/internal/ports"
)

// runBacktest ejecuta el flujo completo y devuelve si el assessment pasó.
func runBacktest(ctx context.Context, cfg *config.Config, opts options) (bool, error) {
	strategies, err := strategy.ParseList(cfg.Backtest.Strategies)
	if err != nil {
		return false, err
	}

	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return false, err
	}

	reporter := notify.NewConsole()
	if opts.stats {
		reporter.PrintSeriesStats(marketdata.Stats(ds.Symbol, ds.Points))
	}

	series := ds.Series()
	report, err := backtest.Run(ctx, series, backtest.Config{
		Window:  cfg.Window(),
		Workers: cfg.Backtest.Workers,
	}, strategies)
	if err != nil {
		return false, err
	}

	assessment := backtest.Assess(report.Summary, cfg.Backtest.MinWorking)
	printReport(reporter, report, assessment, opts.detail)

	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	run := domain.Run{
		RunInfo: domain.RunInfo{
			ID:           uuid.NewString(),
			CreatedAt:    time.Now().UTC(),
			Symbol:       series.Symbol,
			Window:       cfg.Window(),
			SeriesLength: series.Len(),
			SplitCount:   len(report.Splits),
			Strategies:   names,
		},
		Report: *report,
	}
	if err := persist(ctx, cfg, run); err != nil {
		return false, err
	}

	return assessment.Passed, nil
}

func printReport(r ports.Reporter, report *domain.Report, a domain.Assessment, detail bool) {
	r.PrintSummary(report)
	if detail {
		r.PrintDetail(report)
	}
	r.PrintAssessment(a)
}

// loadDataset obtiene la serie desde CSV local o, si no, desde caché / Yahoo.
func loadDataset(ctx context.Context, cfg *config.Config) (*marketdata.Dataset, error) {
	start, end, err := cfg.DateRange(time.Now())
	if err != nil {
		return nil, err
	}

	if cfg.Data.CSVPath != "" {
		series, err := csvfile.LoadSeries(cfg.Data.CSVPath, cfg.Data.Symbol)
		if err != nil {
			return nil, err
		}
		ds, rep, err := marketdata.Prepare(series.Symbol, cfg.Data.Interval, start, end, series.Points)
		if err != nil {
			return nil, err
		}
		slog.Info("loaded prices from csv", "path", cfg.Data.CSVPath, "rows", rep.Output, "dropped", rep.Dropped())
		return ds, nil
	}

	var dc ports.DatasetCache
	if !cfg.Data.NoCache {
		fc, err := cache.NewFileCache(cfg.Data.CacheDir)
		if err != nil {
			return nil, err
		}
		dc = fc
	}
	return fetchDataset(ctx, yahoo.NewClient(), dc, cfg.Data.Symbol, cfg.Data.Interval, start, end)
}

// fetchDataset consulta la caché (si hay) antes de descargar, y guarda lo descargado.
// Un fallo al escribir la caché no aborta el run.
func fetchDataset(
	ctx context.Context,
	provider ports.PriceProvider,
	dc ports.DatasetCache,
	symbol, interval string,
	start, end time.Time,
) (*marketdata.Dataset, error) {
	key := ports.DatasetKey{
		Symbol:   symbol,
		Start:    start.Format(domain.DateLayout),
		End:      end.Format(domain.DateLayout),
		Interval: interval,
	}

	if dc != nil {
		ds, ok, err := dc.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			slog.Info("loaded prices from cache", "symbol", symbol, "rows", ds.Len())
			return ds, nil
		}
	}

	raw, err := provider.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	ds, rep, err := marketdata.Prepare(symbol, interval, start, end, raw)
	if err != nil {
		return nil, err
	}
	slog.Info("downloaded prices", "symbol", symbol, "rows", rep.Output, "dropped", rep.Dropped())

	if dc != nil {
		if err := dc.Put(ctx, key, ds); err != nil {
			slog.Warn("failed to cache dataset", "symbol", symbol, "err", err)
		}
	}
	return ds, nil
}

// persist guarda el run en SQLite y los CSV de resultados según la config.
func persist(ctx context.Context, cfg *config.Config, run domain.Run) error {
	if !cfg.Storage.Disabled {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := saveRun(ctx, store, run, cfg.Storage.RetentionDays); err != nil {
			return err
		}
	}

	if !cfg.Output.NoCSV {
		dir, err := csvfile.WriteReport(cfg.Output.ResultsDir, &run.Report, run.CreatedAt)
		if err != nil {
			return err
		}
		slog.Info("results written", "dir", dir)
	}
	return nil
}

// saveRun persiste el run y poda los más antiguos que la retención.
func saveRun(ctx context.Context, store ports.ResultStore, run domain.Run, retentionDays int) error {
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}
	slog.Info("run saved", "run_id", run.ID)

	if retentionDays > 0 {
		cutoff := run.CreatedAt.AddDate(0, 0, -retentionDays)
		n, err := store.PruneBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		if n > 0 {
			slog.Info("pruned old runs", "count", n, "before", cutoff.Format(domain.DateLayout))
		}
	}
	return nil
}
