package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/pkg/util"
)

// FileSliceStore persists one CSV file per (symbol, day) under
// root/{category}/{symbol}/{date}_1m_ohlcv.csv.
type FileSliceStore struct {
	root string
}

var sliceHeader = []string{"ts", "open", "high", "low", "close", "volume"}

func NewFileSliceStore(root string) *FileSliceStore {
	return &FileSliceStore{root: root}
}

// SlicePath returns where the slice for (category, symbol, day) lives.
func (s *FileSliceStore) SlicePath(category, symbol string, day time.Time) string {
	name := fmt.Sprintf("%s_1m_ohlcv.csv", util.FormatDay(day))
	return filepath.Join(s.root, category, symbol, name)
}

// Write replaces the slice for (symbol, day) with the given bars. The file
// goes through a temp path so readers never see a torn slice.
func (s *FileSliceStore) Write(ctx context.Context, category, symbol string, day time.Time, bars []models.Bar) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.SlicePath(category, symbol, day)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create symbol dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create slice file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(sliceHeader); err != nil {
		f.Close()
		return fmt.Errorf("write slice header: %w", err)
	}
	for _, b := range bars {
		row := []string{
			b.Ts.UTC().Format(time.RFC3339),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write slice row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush slice: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close slice file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename slice file: %w", err)
	}
	return nil
}

// Read loads a persisted slice. A missing slice is fs.ErrNotExist.
func (s *FileSliceStore) Read(ctx context.Context, category, symbol string, day time.Time) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.SlicePath(category, symbol, day))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read slice csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	bars := make([]models.Bar, 0, len(records)-1)
	for _, rec := range records[1:] { // skip header
		if len(rec) != len(sliceHeader) {
			return nil, fmt.Errorf("malformed slice row: %v", rec)
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("parse slice timestamp: %w", err)
		}
		var b models.Bar
		b.Ts = ts
		for i, dst := range []*float64{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume} {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("parse slice value: %w", err)
			}
			*dst = v
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// Exists reports whether a slice has been written for (symbol, day).
func (s *FileSliceStore) Exists(ctx context.Context, category, symbol string, day time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.SlicePath(category, symbol, day))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
