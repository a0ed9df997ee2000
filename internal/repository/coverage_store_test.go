package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/pkg/logger"

	"github.com/stretchr/testify/require"
)

var storeNow = time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*CoverageStore, string) {
	t.Helper()
	root := t.TempDir()
	s := NewCoverageStore(root, map[string]string{"AAPL": "stocks", "SPY": "etfs"}, logger.Nop(),
		WithCoverageClock(func() time.Time { return storeNow }))
	require.NoError(t, s.Load())
	return s, root
}

func strptr(s string) *string { return &s }

func TestUpdateCreatesSymbolDocument(t *testing.T) {
	s, root := newTestStore(t)

	err := s.Update("AAPL", models.CoverageUpdate{
		Exchange:   strptr("NYSE"),
		Earliest:   strptr("2026-02-12"),
		Latest:     strptr("2026-03-11"),
		Attributes: map[string]string{"sector": "tech"},
	})
	require.NoError(t, err)
	require.True(t, s.Dirty())

	require.FileExists(t, filepath.Join(root, "stocks", "AAPL", "meta.yaml"))

	rec, ok := s.Get("AAPL")
	require.True(t, ok)
	require.Equal(t, "NYSE", rec.Exchange)
	require.Equal(t, "2026-02-12", rec.Earliest)
	require.Equal(t, storeNow, rec.LastUpdated)
}

func TestUpdateMergesPartially(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Update("AAPL", models.CoverageUpdate{
		Exchange:   strptr("NYSE"),
		Earliest:   strptr("2026-02-12"),
		Latest:     strptr("2026-03-10"),
		Attributes: map[string]string{"sector": "tech"},
	}))

	// Only the latest bound moves; everything else must survive.
	require.NoError(t, s.Update("AAPL", models.CoverageUpdate{Latest: strptr("2026-03-11")}))

	rec, _ := s.Get("AAPL")
	require.Equal(t, "NYSE", rec.Exchange)
	require.Equal(t, "2026-02-12", rec.Earliest)
	require.Equal(t, "2026-03-11", rec.Latest)
	require.Equal(t, "tech", rec.Attributes["sector"])
}

func TestUpdateRejectsUnmappedSymbol(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Update("TSLA", models.CoverageUpdate{Latest: strptr("2026-03-11")})
	var cfgErr *models.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestUpdateRejectsInvertedBounds(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Update("AAPL", models.CoverageUpdate{
		Earliest: strptr("2026-03-11"),
		Latest:   strptr("2026-02-12"),
	})
	require.Error(t, err)
}

func TestSavePersistsAggregate(t *testing.T) {
	s, root := newTestStore(t)

	require.NoError(t, s.Update("AAPL", models.CoverageUpdate{
		Exchange: strptr("NYSE"), Earliest: strptr("2026-02-12"), Latest: strptr("2026-03-11"),
	}))
	require.NoError(t, s.Save())
	require.False(t, s.Dirty())
	require.FileExists(t, filepath.Join(root, "meta.yaml"))

	// A second store over the same root sees everything through the
	// per-symbol documents.
	fresh := NewCoverageStore(root, map[string]string{"AAPL": "stocks"}, logger.Nop())
	require.NoError(t, fresh.Load())
	rec, ok := fresh.Get("AAPL")
	require.True(t, ok)
	require.Equal(t, "2026-03-11", rec.Latest)
}

func TestRescanDropsStaleEntries(t *testing.T) {
	s, root := newTestStore(t)

	require.NoError(t, s.Update("AAPL", models.CoverageUpdate{
		Exchange: strptr("NYSE"), Earliest: strptr("2026-02-12"), Latest: strptr("2026-03-11"),
	}))
	// The per-symbol documents are the source of truth; removing one must
	// drop it from the aggregate on the next rescan.
	require.NoError(t, os.RemoveAll(filepath.Join(root, "stocks", "AAPL")))
	require.NoError(t, s.Rescan())

	_, ok := s.Get("AAPL")
	require.False(t, ok)
}

func TestLoadInitializesEmptyRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "data")
	s := NewCoverageStore(root, map[string]string{"AAPL": "stocks"}, logger.Nop(),
		WithCoverageClock(func() time.Time { return storeNow }))
	require.NoError(t, s.Load())
	require.Equal(t, storeNow, s.Meta().CreatedAt)
	require.DirExists(t, root)
}
