package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// TimestampLayout nombra el subdirectorio de cada run.
const TimestampLayout = "20060102_150405"

const (
	summaryFile     = "baseline_results.csv"
	predictionsFile = "predictions.csv"
	detailSuffix    = "_detailed.csv"
)

// WriteReport escribe el run en dir/<timestamp>/ y devuelve esa ruta:
//   - baseline_results.csv: una fila por estrategia con avg_/std_ de cada métrica
//   - <estrategia>_detailed.csv: métricas por split
//   - predictions.csv: todas las predicciones
//
// Las métricas no computables quedan como celda vacía.
func WriteReport(dir string, report *domain.Report, at time.Time) (string, error) {
	out := filepath.Join(dir, at.Format(TimestampLayout))
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("csvfile.WriteReport: mkdir %q: %w", out, err)
	}

	if err := writeSummary(filepath.Join(out, summaryFile), report); err != nil {
		return "", fmt.Errorf("csvfile.WriteReport: %w", err)
	}
	for _, id := range report.StrategyIDs() {
		path := filepath.Join(out, id+detailSuffix)
		if err := writeDetail(path, report, id); err != nil {
			return "", fmt.Errorf("csvfile.WriteReport: %w", err)
		}
	}
	if err := writePredictions(filepath.Join(out, predictionsFile), report.Predictions); err != nil {
		return "", fmt.Errorf("csvfile.WriteReport: %w", err)
	}
	return out, nil
}

func writeSummary(path string, report *domain.Report) error {
	header := []string{"model", "n_splits"}
	for _, name := range domain.MetricNames() {
		header = append(header, "avg_"+name, "std_"+name)
	}

	var rows [][]string
	for _, id := range report.StrategyIDs() {
		row := []string{id, strconv.Itoa(len(report.MetricsFor(id)))}
		for _, name := range domain.MetricNames() {
			var mean, std domain.MetricValue
			for _, s := range report.Summary {
				if s.StrategyID == id && s.MetricName == name {
					mean, std = s.Mean, s.StdDev
				}
			}
			row = append(row, fmtMetric(mean), fmtMetric(std))
		}
		rows = append(rows, row)
	}
	return writeCSV(path, header, rows)
}

func writeDetail(path string, report *domain.Report, strategyID string) error {
	splits := make(map[int]domain.Split, len(report.Splits))
	for _, sp := range report.Splits {
		splits[sp.ID] = sp
	}

	header := []string{
		"split_id", "train_start", "train_end", "test_start", "test_end",
		"n_samples", "mae", "rmse", "mape", "directional_accuracy",
	}
	var rows [][]string
	for _, m := range report.MetricsFor(strategyID) {
		sp := splits[m.SplitID]
		rows = append(rows, []string{
			strconv.Itoa(m.SplitID),
			strconv.Itoa(sp.Train.Start),
			strconv.Itoa(sp.Train.End),
			strconv.Itoa(sp.Test.Start),
			strconv.Itoa(sp.Test.End),
			strconv.Itoa(m.SampleCount),
			fmtMetric(m.MAE),
			fmtMetric(m.RMSE),
			fmtMetric(m.MAPE),
			fmtMetric(m.DirectionalAccuracy),
		})
	}
	return writeCSV(path, header, rows)
}

func writePredictions(path string, preds []domain.PredictionRecord) error {
	header := []string{"split_id", "strategy", "date", "predicted", "actual", "previous_actual"}
	rows := make([][]string, 0, len(preds))
	for _, p := range preds {
		prev := ""
		if p.HasPrevious {
			prev = fmtFloat(p.PreviousActual)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.SplitID),
			p.StrategyID,
			p.Date.Format(domain.DateLayout),
			fmtFloat(p.Predicted),
			fmtFloat(p.Actual),
			prev,
		})
	}
	return writeCSV(path, header, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func fmtMetric(m domain.MetricValue) string {
	if !m.Computable {
		return ""
	}
	return fmtFloat(m.Value)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
