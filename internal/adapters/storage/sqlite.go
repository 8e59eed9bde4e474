package storage

// sqlite.go: persistencia de runs del backtest.
//
// Estrategia:
//   - `runs`: una fila por ejecución (metadatos + ventanas).
//   - `run_splits`, `run_metrics`, `run_summary`, `run_predictions`: detalle
//     del Report, con una columna seq que conserva el orden original.
//   - Métricas no computables se guardan como NULL, nunca como 0.
//   - Todo el run se escribe en una sola transacción: o está entero o no está.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    created_at    TEXT    NOT NULL,
    symbol        TEXT    NOT NULL,
    train_size    INTEGER NOT NULL,
    test_size     INTEGER NOT NULL,
    step_size     INTEGER NOT NULL,
    series_length INTEGER NOT NULL,
    split_count   INTEGER NOT NULL,
    strategies    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS run_splits (
    run_id      TEXT    NOT NULL,
    split_id    INTEGER NOT NULL,
    train_start INTEGER NOT NULL,
    train_end   INTEGER NOT NULL,
    test_start  INTEGER NOT NULL,
    test_end    INTEGER NOT NULL,
    PRIMARY KEY (run_id, split_id)
);

CREATE TABLE IF NOT EXISTS run_metrics (
    run_id               TEXT    NOT NULL,
    seq                  INTEGER NOT NULL,
    split_id             INTEGER NOT NULL,
    strategy_id          TEXT    NOT NULL,
    mae                  REAL,
    rmse                 REAL,
    mape                 REAL,
    directional_accuracy REAL,
    sample_count         INTEGER NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS run_summary (
    run_id      TEXT    NOT NULL,
    seq         INTEGER NOT NULL,
    strategy_id TEXT    NOT NULL,
    metric_name TEXT    NOT NULL,
    mean        REAL,
    std_dev     REAL,
    split_count INTEGER NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS run_predictions (
    run_id          TEXT    NOT NULL,
    seq             INTEGER NOT NULL,
    split_id        INTEGER NOT NULL,
    strategy_id     TEXT    NOT NULL,
    date            TEXT    NOT NULL,
    predicted       REAL    NOT NULL,
    actual          REAL    NOT NULL,
    previous_actual REAL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created   ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_pred_strategy  ON run_predictions(run_id, strategy_id);
`

// timeLayout tiene ancho fijo para que el orden lexicográfico sea cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// detailTables son las tablas hijas de runs, en orden de borrado.
var detailTables = []string{"run_predictions", "run_summary", "run_metrics", "run_splits"}

// SQLiteStorage implementa ports.ResultStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// SaveRun persiste el run completo en una transacción.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("storage.SaveRun: empty run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, created_at, symbol, train_size, test_size, step_size,
			 series_length, split_count, strategies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeLayout),
		run.Symbol,
		run.Window.TrainSize,
		run.Window.TestSize,
		run.Window.StepSize,
		run.SeriesLength,
		run.SplitCount,
		strings.Join(run.Strategies, ","),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	if err := insertSplits(ctx, tx, run.ID, run.Report.Splits); err != nil {
		return fmt.Errorf("storage.SaveRun: %w", err)
	}
	if err := insertMetrics(ctx, tx, run.ID, run.Report.Metrics); err != nil {
		return fmt.Errorf("storage.SaveRun: %w", err)
	}
	if err := insertSummary(ctx, tx, run.ID, run.Report.Summary); err != nil {
		return fmt.Errorf("storage.SaveRun: %w", err)
	}
	if err := insertPredictions(ctx, tx, run.ID, run.Report.Predictions); err != nil {
		return fmt.Errorf("storage.SaveRun: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

func insertSplits(ctx context.Context, tx *sql.Tx, runID string, splits []domain.Split) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_splits (run_id, split_id, train_start, train_end, test_start, test_end)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare splits: %w", err)
	}
	defer stmt.Close()

	for _, sp := range splits {
		if _, err := stmt.ExecContext(ctx, runID, sp.ID,
			sp.Train.Start, sp.Train.End, sp.Test.Start, sp.Test.End); err != nil {
			return fmt.Errorf("insert split %d: %w", sp.ID, err)
		}
	}
	return nil
}

func insertMetrics(ctx context.Context, tx *sql.Tx, runID string, metrics []domain.MetricRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_metrics
			(run_id, seq, split_id, strategy_id, mae, rmse, mape, directional_accuracy, sample_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare metrics: %w", err)
	}
	defer stmt.Close()

	for i, m := range metrics {
		if _, err := stmt.ExecContext(ctx, runID, i, m.SplitID, m.StrategyID,
			nullable(m.MAE), nullable(m.RMSE), nullable(m.MAPE), nullable(m.DirectionalAccuracy),
			m.SampleCount); err != nil {
			return fmt.Errorf("insert metrics %d/%s: %w", m.SplitID, m.StrategyID, err)
		}
	}
	return nil
}

func insertSummary(ctx context.Context, tx *sql.Tx, runID string, summary []domain.SummaryRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_summary (run_id, seq, strategy_id, metric_name, mean, std_dev, split_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare summary: %w", err)
	}
	defer stmt.Close()

	for i, sr := range summary {
		if _, err := stmt.ExecContext(ctx, runID, i, sr.StrategyID, sr.MetricName,
			nullable(sr.Mean), nullable(sr.StdDev), sr.SplitCount); err != nil {
			return fmt.Errorf("insert summary %s/%s: %w", sr.StrategyID, sr.MetricName, err)
		}
	}
	return nil
}

func insertPredictions(ctx context.Context, tx *sql.Tx, runID string, preds []domain.PredictionRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_predictions
			(run_id, seq, split_id, strategy_id, date, predicted, actual, previous_actual)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare predictions: %w", err)
	}
	defer stmt.Close()

	for i, p := range preds {
		var prev any
		if p.HasPrevious {
			prev = p.PreviousActual
		}
		if _, err := stmt.ExecContext(ctx, runID, i, p.SplitID, p.StrategyID,
			p.Date.Format(domain.DateLayout), p.Predicted, p.Actual, prev); err != nil {
			return fmt.Errorf("insert prediction %d: %w", i, err)
		}
	}
	return nil
}

// GetRun reconstruye el run completo.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (domain.Run, error) {
	info, err := s.getRunInfo(ctx, id)
	if err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %w", err)
	}

	run := domain.Run{RunInfo: info}
	if run.Report.Splits, err = s.getSplits(ctx, id); err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %w", err)
	}
	if run.Report.Metrics, err = s.getMetrics(ctx, id); err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %w", err)
	}
	if run.Report.Summary, err = s.getSummary(ctx, id); err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %w", err)
	}
	if run.Report.Predictions, err = s.getPredictions(ctx, id, ""); err != nil {
		return domain.Run{}, fmt.Errorf("storage.GetRun: %w", err)
	}
	return run, nil
}

// ListRuns devuelve los metadatos de los runs, más recientes primero.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]domain.RunInfo, error) {
	q := runInfoSelect + ` ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var out []domain.RunInfo
	for rows.Next() {
		info, err := scanRunInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListRuns: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// GetPredictions devuelve las predicciones de un run en su orden original.
// strategyID vacío devuelve todas.
func (s *SQLiteStorage) GetPredictions(ctx context.Context, runID, strategyID string) ([]domain.PredictionRecord, error) {
	if _, err := s.getRunInfo(ctx, runID); err != nil {
		return nil, fmt.Errorf("storage.GetPredictions: %w", err)
	}
	out, err := s.getPredictions(ctx, runID, strategyID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetPredictions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStorage) getPredictions(ctx context.Context, runID, strategyID string) ([]domain.PredictionRecord, error) {
	q := `SELECT split_id, strategy_id, date, predicted, actual, previous_actual
	      FROM run_predictions WHERE run_id = ?`
	args := []any{runID}
	if strategyID != "" {
		q += ` AND strategy_id = ?`
		args = append(args, strategyID)
	}
	q += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	out := []domain.PredictionRecord{}
	for rows.Next() {
		var p domain.PredictionRecord
		var date string
		var prev sql.NullFloat64
		if err := rows.Scan(&p.SplitID, &p.StrategyID, &date, &p.Predicted, &p.Actual, &prev); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if p.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse prediction date %q: %w", date, err)
		}
		p.PreviousActual, p.HasPrevious = prev.Float64, prev.Valid
		out = append(out, p)
	}
	return out, rows.Err()
}

// PruneBefore borra los runs creados antes de t (y todo su detalle).
func (s *SQLiteStorage) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	cutoff := t.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.PruneBefore: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range detailTables {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)`,
			cutoff,
		); err != nil {
			return 0, fmt.Errorf("storage.PruneBefore: delete %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("storage.PruneBefore: delete runs: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.PruneBefore: commit: %w", err)
	}
	return n, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

const runInfoSelect = `
	SELECT id, created_at, symbol, train_size, test_size, step_size,
	       series_length, split_count, strategies
	FROM runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunInfo(row rowScanner) (domain.RunInfo, error) {
	var info domain.RunInfo
	var created, strategies string
	if err := row.Scan(
		&info.ID,
		&created,
		&info.Symbol,
		&info.Window.TrainSize,
		&info.Window.TestSize,
		&info.Window.StepSize,
		&info.SeriesLength,
		&info.SplitCount,
		&strategies,
	); err != nil {
		return domain.RunInfo{}, err
	}

	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return domain.RunInfo{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	info.CreatedAt = t
	if strategies != "" {
		info.Strategies = strings.Split(strategies, ",")
	}
	return info, nil
}

func (s *SQLiteStorage) getRunInfo(ctx context.Context, id string) (domain.RunInfo, error) {
	info, err := scanRunInfo(s.db.QueryRowContext(ctx, runInfoSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunInfo{}, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	if err != nil {
		return domain.RunInfo{}, fmt.Errorf("scan run %s: %w", id, err)
	}
	return info, nil
}

func (s *SQLiteStorage) getSplits(ctx context.Context, runID string) ([]domain.Split, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT split_id, train_start, train_end, test_start, test_end
		FROM run_splits WHERE run_id = ? ORDER BY split_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query splits: %w", err)
	}
	defer rows.Close()

	out := []domain.Split{}
	for rows.Next() {
		var sp domain.Split
		if err := rows.Scan(&sp.ID, &sp.Train.Start, &sp.Train.End, &sp.Test.Start, &sp.Test.End); err != nil {
			return nil, fmt.Errorf("scan split: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// GetMetrics devuelve los MetricRecords de un run por (split, estrategia).
func (s *SQLiteStorage) GetMetrics(ctx context.Context, runID string) ([]domain.MetricRecord, error) {
	if _, err := s.getRunInfo(ctx, runID); err != nil {
		return nil, fmt.Errorf("storage.GetMetrics: %w", err)
	}
	out, err := s.getMetrics(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetMetrics: %w", err)
	}
	return out, nil
}

func (s *SQLiteStorage) getMetrics(ctx context.Context, runID string) ([]domain.MetricRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT split_id, strategy_id, mae, rmse, mape, directional_accuracy, sample_count
		FROM run_metrics WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	out := []domain.MetricRecord{}
	for rows.Next() {
		var m domain.MetricRecord
		var mae, rmse, mape, da sql.NullFloat64
		if err := rows.Scan(&m.SplitID, &m.StrategyID, &mae, &rmse, &mape, &da, &m.SampleCount); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		m.MAE, m.RMSE, m.MAPE, m.DirectionalAccuracy = fromNull(mae), fromNull(rmse), fromNull(mape), fromNull(da)
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetSummary devuelve el resumen agregado de un run.
func (s *SQLiteStorage) GetSummary(ctx context.Context, runID string) ([]domain.SummaryRecord, error) {
	if _, err := s.getRunInfo(ctx, runID); err != nil {
		return nil, fmt.Errorf("storage.GetSummary: %w", err)
	}
	out, err := s.getSummary(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetSummary: %w", err)
	}
	return out, nil
}

func (s *SQLiteStorage) getSummary(ctx context.Context, runID string) ([]domain.SummaryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strategy_id, metric_name, mean, std_dev, split_count
		FROM run_summary WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	out := []domain.SummaryRecord{}
	for rows.Next() {
		var sr domain.SummaryRecord
		var mean, std sql.NullFloat64
		if err := rows.Scan(&sr.StrategyID, &sr.MetricName, &mean, &std, &sr.SplitCount); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sr.Mean, sr.StdDev = fromNull(mean), fromNull(std)
		out = append(out, sr)
	}
	return out, rows.Err()
}

// nullable convierte una métrica a un argumento SQL (NULL si no es computable).
func nullable(m domain.MetricValue) any {
	if !m.Computable {
		return nil
	}
	return m.Value
}

func fromNull(v sql.NullFloat64) domain.MetricValue {
	if !v.Valid {
		return domain.NotComputable
	}
	return domain.Computable(v.Float64)
}
