package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	pkgch "github.com/Dvipg/e-commerce-demand-forecasting/pkg/clickhouse"
	applogger "github.com/Dvipg/e-commerce-demand-forecasting/pkg/logger"
)

// ClickHouseSource reads the combined (store, item, ds, sales) demand table.
// It owns the client connection and closes it on Close.
type ClickHouseSource struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	l      *applogger.Logger
}

// NewClickHouseSource creates an observation source over the given table.
func NewClickHouseSource(ch *pkgch.Client, table string) *ClickHouseSource {
	return &ClickHouseSource{client: ch, db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *ClickHouseSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseSource) Fetch(ctx context.Context, keys []models.SeriesID) ([]models.Observation, error) {
	start := time.Now()

	q := fmt.Sprintf("SELECT store, item, ds, sales FROM %s", s.table)
	var args []any
	if len(keys) > 0 {
		var conds []string
		for _, id := range keys {
			k, err := models.ParseSeriesID(id)
			if err != nil {
				return nil, err
			}
			conds = append(conds, "(store = ? AND item = ?)")
			args = append(args, k.Store, k.Item)
		}
		q += " WHERE " + strings.Join(conds, " OR ")
	}
	q += " ORDER BY store, item, ds"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse fetch query error",
				applogger.String("table", s.table),
				applogger.Error(err))
		}
		return nil, fmt.Errorf("fetch observations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Observation, 0, 4096)
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.Store, &o.Item, &o.TS, &o.Value); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse fetch ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return out, nil
}

// Labels derives display labels from the distinct keys in the table.
func (s *ClickHouseSource) Labels(ctx context.Context) (map[models.SeriesID]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT store, item FROM %s", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch labels: %w", err)
	}
	defer rows.Close()

	labels := make(map[models.SeriesID]string)
	for rows.Next() {
		var k models.SeriesKey
		if err := rows.Scan(&k.Store, &k.Item); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		labels[k.ID()] = fmt.Sprintf("Store %d / Item %d", k.Store, k.Item)
	}
	return labels, rows.Err()
}

func (s *ClickHouseSource) Close() error { return s.client.Close() }

var _ domrepo.ObservationSource = (*ClickHouseSource)(nil)
