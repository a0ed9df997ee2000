package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/pkg/util"
)

// ClickHouseSliceStore keeps slices in a single bars_1m table instead of
// per-day files. Coverage documents stay on the filesystem either way; only
// the bar payload moves.
type ClickHouseSliceStore struct {
	db    *sql.DB
	table string
}

func NewClickHouseSliceStore(db *sql.DB, table string) *ClickHouseSliceStore {
	return &ClickHouseSliceStore{db: db, table: table}
}

// Schema returns the idempotent DDL for the bars table.
func (s *ClickHouseSliceStore) Schema() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			category LowCardinality(String),
			symbol   LowCardinality(String),
			day      Date,
			ts       DateTime,
			open     Float64,
			high     Float64,
			low      Float64,
			close    Float64,
			volume   Float64
		) ENGINE = ReplacingMergeTree
		ORDER BY (symbol, day, ts)`, s.table),
	}
}

// Write replaces the (symbol, day) slice: delete then batch insert, chunked
// to keep statements bounded.
func (s *ClickHouseSliceStore) Write(ctx context.Context, category, symbol string, day time.Time, bars []models.Bar) error {
	del := fmt.Sprintf("ALTER TABLE %s DELETE WHERE symbol = ? AND day = ?", s.table)
	if _, err := s.db.ExecContext(ctx, del, symbol, util.FormatDay(day)); err != nil {
		return fmt.Errorf("clear slice %s/%s: %w", symbol, util.FormatDay(day), err)
	}

	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, b := range bars[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				category,
				symbol,
				util.FormatDay(day),
				b.Ts.UTC(),
				b.Open,
				b.High,
				b.Low,
				b.Close,
				b.Volume,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (category, symbol, day, ts, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert slice %s/%s: %w", symbol, util.FormatDay(day), err)
		}
	}
	return nil
}

// Read loads every bar of the (symbol, day) slice ordered by timestamp.
func (s *ClickHouseSliceStore) Read(ctx context.Context, category, symbol string, day time.Time) ([]models.Bar, error) {
	q := fmt.Sprintf("SELECT ts, open, high, low, close, volume FROM %s WHERE symbol = ? AND day = ? ORDER BY ts", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, util.FormatDay(day))
	if err != nil {
		return nil, fmt.Errorf("query slice %s/%s: %w", symbol, util.FormatDay(day), err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		var ts time.Time
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Ts = ts.UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Exists reports whether any bars were stored for (symbol, day).
func (s *ClickHouseSliceStore) Exists(ctx context.Context, category, symbol string, day time.Time) (bool, error) {
	q := fmt.Sprintf("SELECT count() FROM %s WHERE symbol = ? AND day = ?", s.table)
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, symbol, util.FormatDay(day)).Scan(&n); err != nil {
		return false, fmt.Errorf("count slice %s/%s: %w", symbol, util.FormatDay(day), err)
	}
	return n > 0, nil
}
