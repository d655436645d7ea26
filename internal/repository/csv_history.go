package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"pricecast/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Slash dates are month first.
var csvDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	domain.ForecastDateLayout,
}

// CSVHistorySource reads the price dataset from a date,price CSV file on
// every call, so edits to the file show up without a restart.
type CSVHistorySource struct {
	path   string
	tracer trace.Tracer
}

func NewCSVHistorySource(path string, tracer trace.Tracer) *CSVHistorySource {
	return &CSVHistorySource{path: path, tracer: tracer}
}

func (s *CSVHistorySource) History(ctx context.Context) ([]domain.PricePoint, error) {
	_, span := s.tracer.Start(ctx, "csv-history.load")
	defer span.End()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return ParseHistoryCSV(f)
}

// ParseHistoryCSV reads a CSV with "date" and "price" header columns. Rows
// whose price is not numeric or whose date cannot be parsed are dropped.
// Dates are truncated to the day and the last row for a day wins, the same
// as the price_history upsert; the result is sorted by date.
func ParseHistoryCSV(r io.Reader) ([]domain.PricePoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	dateCol, priceCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "date":
			dateCol = i
		case "price":
			priceCol = i
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("dataset header must contain date and price columns, got %v", header)
	}

	var points []domain.PricePoint
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if dateCol >= len(record) || priceCol >= len(record) {
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(record[priceCol]), 64)
		if err != nil {
			continue
		}
		date, ok := parseHistoryDate(record[dateCol])
		if !ok {
			continue
		}
		points = append(points, domain.PricePoint{Date: date, Price: price})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return lastPerDay(points), nil
}

// lastPerDay expects points sorted stably by date.
func lastPerDay(points []domain.PricePoint) []domain.PricePoint {
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Date.Equal(p.Date) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseHistoryDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
