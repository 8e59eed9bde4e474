package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/domain/strategy"
)

// Config es la configuración completa del backtester.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Backtest BacktestConfig `yaml:"backtest"`
	Storage  StorageConfig  `yaml:"storage"`
	Output   OutputConfig   `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// DataConfig controla de dónde sale la serie de precios.
type DataConfig struct {
	Symbol   string `yaml:"symbol"`
	Start    string `yaml:"start"`    // YYYY-MM-DD; vacío = End - 5 años
	End      string `yaml:"end"`      // YYYY-MM-DD, exclusivo; vacío = hoy
	Interval string `yaml:"interval"` // solo "1d"
	CSVPath  string `yaml:"csv_path"` // si se indica, no se descarga nada
	CacheDir string `yaml:"cache_dir"`
	NoCache  bool   `yaml:"no_cache"`
}

// BacktestConfig son las ventanas walk-forward y las estrategias a evaluar.
type BacktestConfig struct {
	TrainSize  int      `yaml:"train_size"`
	TestSize   int      `yaml:"test_size"`
	StepSize   int      `yaml:"step_size"`
	Strategies []string `yaml:"strategies"`
	Workers    int      `yaml:"workers"`     // 0 = NumCPU
	MinWorking int      `yaml:"min_working"` // baselines necesarios para dar el run por bueno
}

// StorageConfig controla dónde se persisten los runs.
type StorageConfig struct {
	DSN           string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	RetentionDays int    `yaml:"retention_days"` // 0 = no borrar nunca
	Disabled      bool   `yaml:"disabled"`
}

// OutputConfig controla los CSV de resultados.
type OutputConfig struct {
	ResultsDir string `yaml:"results_dir"`
	NoCSV      bool   `yaml:"no_csv"`
}

// ServerConfig es la API HTTP de solo lectura.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Con path vacío solo se aplican entorno y defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Window devuelve las ventanas como domain.WindowConfig.
func (c *Config) Window() domain.WindowConfig {
	return domain.WindowConfig{
		TrainSize: c.Backtest.TrainSize,
		TestSize:  c.Backtest.TestSize,
		StepSize:  c.Backtest.StepSize,
	}
}

// DateRange resuelve [start, end) respecto a now.
func (c *Config) DateRange(now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if c.Data.End != "" {
		t, err := time.Parse(domain.DateLayout, c.Data.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("config: data.end: %w", err)
		}
		end = t
	}

	start := end.AddDate(-5, 0, 0)
	if c.Data.Start != "" {
		t, err := time.Parse(domain.DateLayout, c.Data.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("config: data.start: %w", err)
		}
		start = t
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("config: data.end %s must be after data.start %s",
			end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}
	return start, end, nil
}

// Validate comprueba ventanas, estrategias, fechas y logging.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Window().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := strategy.ParseList(c.Backtest.Strategies); err != nil {
		errs = append(errs, err)
	}
	if c.Data.Symbol == "" {
		errs = append(errs, fmt.Errorf("data.symbol is required"))
	}
	if c.Data.Interval != "1d" {
		errs = append(errs, fmt.Errorf("data.interval %q not supported (only 1d)", c.Data.Interval))
	}
	if _, _, err := c.DateRange(time.Now()); err != nil {
		errs = append(errs, err)
	}
	if c.Backtest.Workers < 0 {
		errs = append(errs, fmt.Errorf("backtest.workers must be >= 0, got %d", c.Backtest.Workers))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q must be debug|info|warn|error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text|json", c.Log.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("WALKFORWARD_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("WALKFORWARD_SYMBOL"); v != "" {
		cfg.Data.Symbol = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	w := domain.DefaultWindow()
	if cfg.Backtest.TrainSize == 0 {
		cfg.Backtest.TrainSize = w.TrainSize
	}
	if cfg.Backtest.TestSize == 0 {
		cfg.Backtest.TestSize = w.TestSize
	}
	if cfg.Backtest.StepSize == 0 {
		cfg.Backtest.StepSize = w.StepSize
	}
	if len(cfg.Backtest.Strategies) == 0 {
		cfg.Backtest.Strategies = []string{"naive", "sma_5", "sma_20"}
	}
	if cfg.Backtest.MinWorking <= 0 {
		cfg.Backtest.MinWorking = 2
	}
	if cfg.Data.Symbol == "" {
		cfg.Data.Symbol = "AAPL"
	}
	if cfg.Data.Interval == "" {
		cfg.Data.Interval = "1d"
	}
	if cfg.Data.CacheDir == "" {
		cfg.Data.CacheDir = "data/cache"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "walkforward.db"
	}
	if cfg.Output.ResultsDir == "" {
		cfg.Output.ResultsDir = "results"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
