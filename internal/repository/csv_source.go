package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/util"
)

// CSVSource loads the combined demand table from a CSV file with a header
// naming at least date, store, item and sales columns (any order).
type CSVSource struct {
	path string
}

// NewCSVSource creates a file-backed observation source.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Fetch(ctx context.Context, keys []models.SeriesID) ([]models.Observation, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := readObservations(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(keys) == 0 {
		return rows, nil
	}

	want := make(map[models.SeriesID]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	out := rows[:0]
	for _, r := range rows {
		id := models.SeriesKey{Store: r.Store, Item: r.Item}.ID()
		if _, ok := want[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *CSVSource) Labels(ctx context.Context) (map[models.SeriesID]string, error) {
	rows, err := s.Fetch(ctx, nil)
	if err != nil {
		return nil, err
	}
	labels := make(map[models.SeriesID]string)
	for _, r := range rows {
		k := models.SeriesKey{Store: r.Store, Item: r.Item}
		if _, ok := labels[k.ID()]; !ok {
			labels[k.ID()] = fmt.Sprintf("Store %d / Item %d", k.Store, k.Item)
		}
	}
	return labels, nil
}

func (s *CSVSource) Close() error { return nil }

// readObservations parses the combined table from r. A missing required
// column is a fatal input error carrying the column name.
func readObservations(r io.Reader) ([]models.Observation, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var idx struct{ date, store, item, sales int }
	var ok bool
	if idx.date, ok = cols["date"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "date")
	}
	if idx.store, ok = cols["store"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "store")
	}
	if idx.item, ok = cols["item"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "item")
	}
	if idx.sales, ok = cols["sales"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "sales")
	}

	var out []models.Observation
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, ok := util.ParseTime(rec[idx.date])
		if !ok {
			return nil, fmt.Errorf("line %d: bad date %q", line, rec[idx.date])
		}
		store, err := strconv.Atoi(strings.TrimSpace(rec[idx.store]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad store %q", line, rec[idx.store])
		}
		item, err := strconv.Atoi(strings.TrimSpace(rec[idx.item]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad item %q", line, rec[idx.item])
		}
		sales, err := strconv.ParseFloat(strings.TrimSpace(rec[idx.sales]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad sales %q", line, rec[idx.sales])
		}
		out = append(out, models.Observation{Store: store, Item: item, TS: ts, Value: sales})
	}
	return out, nil
}

var _ domrepo.ObservationSource = (*CSVSource)(nil)
