package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"snowroll/internal/domain/models"
	"snowroll/pkg/logger"
)

const (
	metaFileName = "meta.yaml"
)

// CoverageStore owns the per-symbol coverage documents and the aggregate
// meta document derived from them.
//
// Per-symbol records live at root/{category}/{symbol}/meta.yaml and are the
// source of truth. The aggregate at root/meta.yaml is a cache: it is rebuilt
// by Rescan from whatever records are on disk and is only trustworthy right
// after a rescan.
type CoverageStore struct {
	root       string
	categories map[string]string // symbol -> category
	log        *logger.Logger
	now        func() time.Time

	meta  models.StorageMeta
	dirty bool
}

// CoverageStoreOption configures a CoverageStore.
type CoverageStoreOption func(*CoverageStore)

// WithCoverageClock overrides the wall clock, used by tests.
func WithCoverageClock(now func() time.Time) CoverageStoreOption {
	return func(s *CoverageStore) { s.now = now }
}

// NewCoverageStore creates a store rooted at root. categories maps every
// watchlist symbol to its category and is the only watchlist knowledge the
// store carries.
func NewCoverageStore(root string, categories map[string]string, log *logger.Logger, opts ...CoverageStoreOption) *CoverageStore {
	s := &CoverageStore{
		root:       root,
		categories: categories,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the aggregate document if one exists, otherwise initializes an
// empty one stamped with the creation time. Either way the category map is
// rebuilt from the per-symbol records on disk.
func (s *CoverageStore) Load() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}

	path := filepath.Join(s.root, metaFileName)
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &s.meta); err != nil {
			return fmt.Errorf("parse aggregate meta: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		s.meta = models.StorageMeta{CreatedAt: s.now()}
	default:
		return fmt.Errorf("read aggregate meta: %w", err)
	}

	if err := s.Rescan(); err != nil {
		return err
	}
	return nil
}

// Rescan rebuilds the aggregate category map strictly from the per-symbol
// documents currently on disk, dropping any stale in-memory entries.
func (s *CoverageStore) Rescan() error {
	categories := make(map[string]map[string]models.CoverageRecord)

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("scan storage root: %w", err)
	}
	for _, category := range entries {
		if !category.IsDir() {
			continue
		}
		symbolDirs, err := os.ReadDir(filepath.Join(s.root, category.Name()))
		if err != nil {
			return fmt.Errorf("scan category %s: %w", category.Name(), err)
		}
		for _, symbol := range symbolDirs {
			if !symbol.IsDir() {
				continue
			}
			rec, ok, err := s.readRecord(category.Name(), symbol.Name())
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if categories[category.Name()] == nil {
				categories[category.Name()] = make(map[string]models.CoverageRecord)
			}
			categories[category.Name()][rec.Symbol] = rec
		}
	}

	s.meta.Categories = categories
	return nil
}

// Get returns the coverage record for symbol, if one has ever been written.
func (s *CoverageStore) Get(symbol string) (models.CoverageRecord, bool) {
	category, ok := s.categories[symbol]
	if !ok {
		return models.CoverageRecord{}, false
	}
	rec, ok := s.meta.Categories[category][symbol]
	return rec, ok
}

// Meta returns the current aggregate view. Only meaningful after Load or a
// Rescan.
func (s *CoverageStore) Meta() models.StorageMeta {
	return s.meta
}

// Update merges a partial coverage change into the symbol's record, stamps
// it, and persists the per-symbol document. The merge is shallow and
// last-write-wins per field: fields absent from the update survive.
func (s *CoverageStore) Update(symbol string, update models.CoverageUpdate) error {
	category, ok := s.categories[symbol]
	if !ok {
		return &models.ConfigError{Symbol: symbol, Reason: "not mapped to any watchlist category"}
	}

	rec, found, err := s.readRecord(category, symbol)
	if err != nil {
		return err
	}
	if !found {
		rec = models.CoverageRecord{Symbol: symbol}
	}

	if update.Exchange != nil {
		rec.Exchange = *update.Exchange
	}
	if update.Earliest != nil {
		rec.Earliest = *update.Earliest
	}
	if update.Latest != nil {
		rec.Latest = *update.Latest
	}
	if len(update.Attributes) > 0 {
		if rec.Attributes == nil {
			rec.Attributes = make(map[string]string, len(update.Attributes))
		}
		for k, v := range update.Attributes {
			rec.Attributes[k] = v
		}
	}
	rec.LastUpdated = s.now()

	if rec.Earliest != "" && rec.Latest != "" && rec.Earliest > rec.Latest {
		return fmt.Errorf("coverage for %s would invert: earliest %s after latest %s", symbol, rec.Earliest, rec.Latest)
	}

	dir := filepath.Join(s.root, category, symbol)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create symbol dir: %w", err)
	}
	if err := writeYAMLAtomic(filepath.Join(dir, metaFileName), rec); err != nil {
		return fmt.Errorf("write coverage for %s: %w", symbol, err)
	}

	if s.meta.Categories == nil {
		s.meta.Categories = make(map[string]map[string]models.CoverageRecord)
	}
	if s.meta.Categories[category] == nil {
		s.meta.Categories[category] = make(map[string]models.CoverageRecord)
	}
	s.meta.Categories[category][symbol] = rec
	s.dirty = true
	return nil
}

// Save rescans the per-symbol records and persists the aggregate document.
func (s *CoverageStore) Save() error {
	if err := s.Rescan(); err != nil {
		return err
	}
	s.meta.LastUpdated = s.now()
	if err := writeYAMLAtomic(filepath.Join(s.root, metaFileName), s.meta); err != nil {
		return fmt.Errorf("write aggregate meta: %w", err)
	}
	s.dirty = false
	return nil
}

// Dirty reports whether updates have landed since the last Save.
func (s *CoverageStore) Dirty() bool {
	return s.dirty
}

func (s *CoverageStore) readRecord(category, symbol string) (models.CoverageRecord, bool, error) {
	path := filepath.Join(s.root, category, symbol, metaFileName)
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.CoverageRecord{}, false, nil
	}
	if err != nil {
		return models.CoverageRecord{}, false, fmt.Errorf("read coverage for %s: %w", symbol, err)
	}
	var rec models.CoverageRecord
	if err := yaml.Unmarshal(b, &rec); err != nil {
		return models.CoverageRecord{}, false, fmt.Errorf("parse coverage for %s: %w", symbol, err)
	}
	if rec.Symbol == "" {
		rec.Symbol = symbol
	}
	return rec, true, nil
}

// writeYAMLAtomic writes v to path through a temp file and rename so a
// crash never leaves a half-written document.
func writeYAMLAtomic(path string, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
