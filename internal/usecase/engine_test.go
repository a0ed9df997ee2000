package usecase

import (
	"context"
	"testing"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/internal/repository"
	"snowroll/pkg/logger"
	"snowroll/pkg/util"

	"github.com/stretchr/testify/require"
)

// testNow is a Thursday; the roll target (the day before) is a Wednesday.
var testNow = time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)

type fetchCall struct {
	symbols []string
	start   time.Time
	end     time.Time
}

// stubProvider records every fetch and delegates to a configurable func.
type stubProvider struct {
	calls []fetchCall
	fetch func(symbols []string, start, end time.Time) (map[string][]models.Bar, error)
}

func (p *stubProvider) Fetch(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.Bar, error) {
	p.calls = append(p.calls, fetchCall{symbols: symbols, start: start, end: end})
	if p.fetch == nil {
		return map[string][]models.Bar{}, nil
	}
	return p.fetch(symbols, start, end)
}

// stubCalendar treats weekends as closed plus an optional closed-day set.
type stubCalendar struct {
	closed map[string]bool
	err    error
}

func (c *stubCalendar) IsTradingDay(exchange string, day time.Time) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return false, nil
	}
	return !c.closed[util.FormatDay(day)], nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSliceWritten(op, symbol string)        {}
func (nopMetrics) RecordProviderRequest(op string)             {}
func (nopMetrics) RecordError(kind string)                     {}
func (nopMetrics) RecordOpDuration(op string, seconds float64) {}
func (nopMetrics) RecordCoverageDays(symbol string, days float64) {
}

// capturePublisher keeps every published event for assertions.
type capturePublisher struct {
	events []models.IngestionEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event models.IngestionEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

type testEnv struct {
	engine   *Engine
	provider *stubProvider
	calendar *stubCalendar
	events   *capturePublisher
	coverage *repository.CoverageStore
	slices   *repository.FileSliceStore
	root     string
}

func defaultWatch() map[string]WatchSymbol {
	return map[string]WatchSymbol{
		"AAPL": {
			Symbol:   "AAPL",
			Category: "stocks",
			Exchange: "NYSE",
			Attrs:    map[string]string{"sector": "tech"},
		},
	}
}

func newTestEnv(t *testing.T, watch map[string]WatchSymbol) *testEnv {
	t.Helper()
	root := t.TempDir()

	categories := make(map[string]string, len(watch))
	for symbol, ws := range watch {
		categories[symbol] = ws.Category
	}

	log := logger.Nop()
	coverage := repository.NewCoverageStore(root, categories, log,
		repository.WithCoverageClock(func() time.Time { return testNow }))
	require.NoError(t, coverage.Load())

	provider := &stubProvider{}
	cal := &stubCalendar{closed: map[string]bool{}}
	events := &capturePublisher{}
	slices := repository.NewFileSliceStore(root)

	engine := NewEngine(
		watch, provider, cal, slices, coverage,
		events, nopMetrics{}, log,
		Options{RetentionDays: 30, SpanDays: 7, SafetyMarginDays: 2},
		WithClock(func() time.Time { return testNow }),
	)

	return &testEnv{
		engine:   engine,
		provider: provider,
		calendar: cal,
		events:   events,
		coverage: coverage,
		slices:   slices,
		root:     root,
	}
}

// barsFor returns n 1-minute bars inside the given day's regular session.
func barsFor(day time.Time, n int) []models.Bar {
	day = util.Day(day)
	out := make([]models.Bar, n)
	for i := range out {
		ts := day.Add(14*time.Hour + 30*time.Minute + time.Duration(i)*time.Minute)
		out[i] = models.Bar{
			Ts: ts, Open: 100 + float64(i), High: 101 + float64(i),
			Low: 99 + float64(i), Close: 100.5 + float64(i), Volume: 1000,
		}
	}
	return out
}

// servesBars makes the provider answer every request with bars bucketed
// into each day of the requested range.
func servesBars(perDay int) func(symbols []string, start, end time.Time) (map[string][]models.Bar, error) {
	return func(symbols []string, start, end time.Time) (map[string][]models.Bar, error) {
		out := make(map[string][]models.Bar, len(symbols))
		for _, symbol := range symbols {
			var bars []models.Bar
			for d := util.Day(start); d.Before(end); d = util.AddDays(d, 1) {
				if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
					continue
				}
				bars = append(bars, barsFor(d, perDay)...)
			}
			out[symbol] = bars
		}
		return out, nil
	}
}

func seedCoverage(t *testing.T, env *testEnv, symbol, exchange, earliest, latest string) {
	t.Helper()
	require.NoError(t, env.coverage.Update(symbol, models.CoverageUpdate{
		Exchange: &exchange,
		Earliest: &earliest,
		Latest:   &latest,
	}))
	require.NoError(t, env.coverage.Save())
}

func TestNewEngineDerivesWindows(t *testing.T) {
	env := newTestEnv(t, defaultWatch())
	// 30 retained minus 2 safety is 28 days, at 7 per request: 4 windows.
	require.Equal(t, 4, env.engine.opts.Windows)
}
