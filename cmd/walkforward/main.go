package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/walkforward/config"
)

type options struct {
	stats  bool
	detail bool
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file (empty = defaults + env)")
	symbol := flag.String("symbol", "", "ticker symbol (overrides config)")
	start := flag.String("start", "", "start date YYYY-MM-DD (overrides config)")
	end := flag.String("end", "", "end date YYYY-MM-DD, exclusive (overrides config)")
	csvPath := flag.String("csv", "", "load prices from a local CSV instead of Yahoo")
	strategies := flag.String("strategies", "", "comma-separated strategies, e.g. naive,sma_5,sma_20")
	workers := flag.Int("workers", -1, "parallel workers (0 = NumCPU, overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	stats := flag.Bool("stats", false, "print descriptive statistics of the series")
	detail := flag.Bool("detail", false, "print per-split metrics for each strategy")
	noSave := flag.Bool("no-save", false, "do not persist the run to SQLite")
	noCSV := flag.Bool("no-csv", false, "do not write result CSV files")
	serve := flag.Bool("serve", false, "serve stored runs over HTTP instead of running a backtest")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *symbol != "" {
		cfg.Data.Symbol = strings.ToUpper(*symbol)
	}
	if *start != "" {
		cfg.Data.Start = *start
	}
	if *end != "" {
		cfg.Data.End = *end
	}
	if *csvPath != "" {
		cfg.Data.CSVPath = *csvPath
	}
	if *strategies != "" {
		cfg.Backtest.Strategies = strings.Split(*strategies, ",")
	}
	if *workers >= 0 {
		cfg.Backtest.Workers = *workers
	}
	if *noSave {
		cfg.Storage.Disabled = true
	}
	if *noCSV {
		cfg.Output.NoCSV = true
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *serve {
		if err := runServer(ctx, cfg); err != nil {
			slog.Error("server exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("server stopped cleanly")
		return
	}

	slog.Info("walkforward starting",
		"config", *configPath,
		"symbol", cfg.Data.Symbol,
		"csv", cfg.Data.CSVPath,
		"strategies", cfg.Backtest.Strategies,
		"window", cfg.Window(),
	)

	passed, err := runBacktest(ctx, cfg, options{stats: *stats, detail: *detail})
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}
	if !passed {
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
