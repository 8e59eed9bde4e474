package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/walkforward/internal/domain"
	"github.com/alejandrodnm/walkforward/internal/marketdata"
)

const barWidth = 20

// Console implementa ports.Reporter.
type Console struct {
	out io.Writer
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintSeriesStats imprime las estadísticas descriptivas de la serie.
func (c *Console) PrintSeriesStats(s marketdata.SeriesStats) {
	fmt.Fprintf(c.out, "\n=== Statistics for %s ===\n", s.Symbol)
	if s.TradingDays == 0 {
		fmt.Fprintln(c.out, "  no data")
		return
	}
	fmt.Fprintf(c.out, "  Data period:        %s to %s\n",
		s.From.Format(domain.DateLayout), s.To.Format(domain.DateLayout))
	fmt.Fprintf(c.out, "  Total trading days: %d\n", s.TradingDays)
	fmt.Fprintf(c.out, "  Current price:      $%.2f\n", s.LastClose)
	fmt.Fprintf(c.out, "  Price change:       $%.2f\n", s.Change)
	fmt.Fprintf(c.out, "  Price change %%:     %.2f%%\n", s.ChangePct)
	fmt.Fprintf(c.out, "  Highest price:      $%.2f\n", s.Highest)
	fmt.Fprintf(c.out, "  Lowest price:       $%.2f\n", s.Lowest)
	fmt.Fprintf(c.out, "  Average volume:     %.0f\n", s.AvgVolume)
}

// PrintSummary imprime media ± std de cada métrica por estrategia.
func (c *Console) PrintSummary(report *domain.Report) {
	fmt.Fprintf(c.out, "\n=== BASELINE RESULTS (%d splits) ===\n", len(report.Splits))
	if len(report.Summary) == 0 {
		fmt.Fprintln(c.out, "  no results")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Model", "Splits", "MAE", "RMSE", "MAPE %", "Dir. Acc %")
	for _, id := range report.StrategyIDs() {
		row := []string{id, fmt.Sprintf("%d", len(report.MetricsFor(id)))}
		for _, name := range domain.MetricNames() {
			row = append(row, summaryCell(report.Summary, id, name))
		}
		table.Append(row[0], row[1], row[2], row[3], row[4], row[5])
	}
	table.Render()
	fmt.Fprintln(c.out, "  mean ± sample std across splits | n/a = not computable in any split")
}

// PrintDetail imprime las métricas de cada split, una tabla por estrategia,
// con una barra proporcional al MAE del split.
func (c *Console) PrintDetail(report *domain.Report) {
	splits := make(map[int]domain.Split, len(report.Splits))
	for _, sp := range report.Splits {
		splits[sp.ID] = sp
	}

	for _, id := range report.StrategyIDs() {
		metrics := report.MetricsFor(id)
		maxMAE := 0.0
		for _, m := range metrics {
			if m.MAE.Computable && m.MAE.Value > maxMAE {
				maxMAE = m.MAE.Value
			}
		}

		fmt.Fprintf(c.out, "\n--- %s by split ---\n", id)
		table := tablewriter.NewWriter(c.out)
		table.Header("Split", "Train", "Test", "N", "MAE", "RMSE", "MAPE %", "Dir. Acc %", "")
		for _, m := range metrics {
			sp := splits[m.SplitID]
			table.Append(
				fmt.Sprintf("%d", m.SplitID),
				sp.Train.String(),
				sp.Test.String(),
				fmt.Sprintf("%d", m.SampleCount),
				fmtValue(m.MAE, 1),
				fmtValue(m.RMSE, 1),
				fmtValue(m.MAPE, 1),
				fmtValue(m.DirectionalAccuracy, 100),
				bar(m.MAE, maxMAE),
			)
		}
		table.Render()
	}
}

// PrintAssessment imprime el veredicto final del run.
func (c *Console) PrintAssessment(a domain.Assessment) {
	fmt.Fprintln(c.out, "\n=== FINAL ASSESSMENT ===")
	for _, v := range a.Verdicts {
		if !v.Working {
			fmt.Fprintf(c.out, "  ✗ %s: no results\n", v.StrategyID)
			continue
		}
		fmt.Fprintf(c.out, "  ✓ %s: MAE=%s, Directional Accuracy=%s\n",
			v.StrategyID, fmtValue(v.AvgMAE, 1), pctLabel(v.AvgDirAcc))
	}

	if a.Passed {
		fmt.Fprintf(c.out, "\n  PASS: %d baselines working (need %d)\n\n", a.Working, a.MinWorking)
	} else {
		fmt.Fprintf(c.out, "\n  FAIL: only %d baselines working (need %d)\n\n", a.Working, a.MinWorking)
	}
}

// --- helpers ---

func summaryCell(summary []domain.SummaryRecord, strategyID, metric string) string {
	scale := 1.0
	if metric == domain.MetricDirectionalAccuracy {
		scale = 100
	}
	for _, s := range summary {
		if s.StrategyID != strategyID || s.MetricName != metric {
			continue
		}
		if !s.Mean.Computable {
			return "n/a"
		}
		if !s.StdDev.Computable {
			return fmtValue(s.Mean, scale)
		}
		return fmt.Sprintf("%s ± %s", fmtValue(s.Mean, scale), fmtValue(s.StdDev, scale))
	}
	return "n/a"
}

func fmtValue(v domain.MetricValue, scale float64) string {
	if !v.Computable {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v.Value*scale)
}

func pctLabel(v domain.MetricValue) string {
	if !v.Computable {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v.Value*100)
}

func bar(v domain.MetricValue, max float64) string {
	if !v.Computable || max <= 0 {
		return ""
	}
	n := int(v.Value/max*barWidth + 0.5)
	return strings.Repeat("█", n)
}
