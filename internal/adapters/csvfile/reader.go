// Package csvfile lee series de precios y escribe los resultados de un run en CSV.
package csvfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/walkforward/internal/domain"
)

// dateLayouts son los formatos de fecha aceptados, en orden de prueba.
var dateLayouts = []string{
	domain.DateLayout,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type columns struct {
	date, open, high, low, close, adjClose, volume int
}

// LoadSeries lee un CSV estilo Yahoo (Date,Open,High,Low,Close,Adj Close,Volume).
// Las cabeceras no distinguen mayúsculas y solo Date y Close son obligatorias.
// Las celdas vacías o no numéricas se leen como NaN para que
// marketdata.Clean las descarte. La serie devuelta no está limpia ni validada.
func LoadSeries(path, symbol string) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, fmt.Errorf("csvfile.LoadSeries: %w", err)
	}
	defer f.Close()

	points, err := ReadPoints(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return domain.Series{}, fmt.Errorf("csvfile.LoadSeries: %s: %w", path, err)
	}
	return domain.Series{Symbol: symbol, Points: points}, nil
}

// ReadPoints parsea las filas de r.
func ReadPoints(r io.Reader) ([]domain.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var points []domain.PricePoint
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := parseDate(field(rec, cols.date))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, domain.PricePoint{
			Date:     date,
			Open:     parseFloat(field(rec, cols.open), 0),
			High:     parseFloat(field(rec, cols.high), 0),
			Low:      parseFloat(field(rec, cols.low), 0),
			Close:    parseFloat(field(rec, cols.close), math.NaN()),
			AdjClose: parseFloat(field(rec, cols.adjClose), 0),
			Volume:   parseFloat(field(rec, cols.volume), math.NaN()),
		})
	}
	return points, nil
}

func mapColumns(header []string) (columns, error) {
	cols := columns{-1, -1, -1, -1, -1, -1, -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		name = strings.NewReplacer(" ", "", "_", "").Replace(name)
		switch name {
		case "date", "datetime", "timestamp":
			cols.date = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.close = i
		case "adjclose":
			cols.adjClose = i
		case "volume":
			cols.volume = i
		}
	}
	if cols.date < 0 {
		return cols, fmt.Errorf("missing required column Date in %v", header)
	}
	if cols.close < 0 {
		return cols, fmt.Errorf("missing required column Close in %v", header)
	}
	return cols, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// parseFloat devuelve missing si la celda está vacía o no es numérica.
func parseFloat(s string, missing float64) float64 {
	if s == "" {
		return missing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseDate normaliza a medianoche UTC del día calendario de la fila.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
