package usecase

import (
	"context"
	"testing"
	"time"

	"snowroll/internal/domain/models"

	"github.com/stretchr/testify/require"
)

var fillDay = time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC) // Thursday

func TestFillDateWritesMissingSlice(t *testing.T) {
	env := newTestEnv(t, defaultWatch())
	seedCoverage(t, env, "AAPL", "NYSE", "2026-03-01", "2026-03-10")
	before, _ := env.coverage.Get("AAPL")
	env.provider.calls = nil
	env.provider.fetch = servesBars(4)

	report, err := env.engine.FillDate(context.Background(), fillDay)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, report.Processed)
	require.Equal(t, "2026-03-05", report.Date)

	exists, err := env.slices.Exists(context.Background(), "stocks", "AAPL", fillDay)
	require.NoError(t, err)
	require.True(t, exists)

	// A fill never touches coverage bounds.
	after, _ := env.coverage.Get("AAPL")
	require.Equal(t, before.Earliest, after.Earliest)
	require.Equal(t, before.Latest, after.Latest)
}

func TestFillDateIsIdempotent(t *testing.T) {
	env := newTestEnv(t, defaultWatch())
	seedCoverage(t, env, "AAPL", "NYSE", "2026-03-01", "2026-03-10")
	env.provider.fetch = servesBars(4)

	_, err := env.engine.FillDate(context.Background(), fillDay)
	require.NoError(t, err)
	env.provider.calls = nil

	report, err := env.engine.FillDate(context.Background(), fillDay)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, report.Skipped)
	require.Empty(t, env.provider.calls, "existing slice must not be refetched")
}

func TestFillDateSkipsOutOfRange(t *testing.T) {
	env := newTestEnv(t, defaultWatch())
	seedCoverage(t, env, "AAPL", "NYSE", "2026-03-01", "2026-03-10")
	env.provider.calls = nil

	report, err := env.engine.FillDate(context.Background(), time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, report.Skipped)
	require.Empty(t, env.provider.calls)
}

func TestFillDateSkipsClosedSession(t *testing.T) {
	env := newTestEnv(t, defaultWatch())
	seedCoverage(t, env, "AAPL", "NYSE", "2026-03-01", "2026-03-10")
	env.provider.calls = nil
	env.calendar.closed["2026-03-05"] = true

	report, err := env.engine.FillDate(context.Background(), fillDay)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, report.Skipped)
	require.Empty(t, env.provider.calls)
}

func TestFillDateBackfillsUnknownSymbol(t *testing.T) {
	env := newTestEnv(t, defaultWatch())
	env.provider.fetch = servesBars(2)

	report, err := env.engine.FillDate(context.Background(), fillDay)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, report.Processed)
	// Windowed backfill, not a single-day fetch.
	require.Len(t, env.provider.calls, 4)

	rec, ok := env.coverage.Get("AAPL")
	require.True(t, ok)
	require.NotEmpty(t, rec.Earliest)
}

func TestFillDateSkipsOpenSessionWithoutRows(t *testing.T) {
	env := newTestEnv(t, defaultWatch())
	seedCoverage(t, env, "AAPL", "NYSE", "2026-03-01", "2026-03-10")
	env.provider.calls = nil
	env.provider.fetch = func(symbols []string, start, end time.Time) (map[string][]models.Bar, error) {
		return map[string][]models.Bar{"AAPL": nil}, nil
	}

	report, err := env.engine.FillDate(context.Background(), fillDay)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, report.Skipped)

	exists, err := env.slices.Exists(context.Background(), "stocks", "AAPL", fillDay)
	require.NoError(t, err)
	require.False(t, exists)
}
