package usecase

import (
	"sort"
	"time"

	domrepo "snowroll/internal/domain/repository"
	"snowroll/internal/repository"
	"snowroll/pkg/config"
	"snowroll/pkg/logger"
)

// WatchSymbol is one watchlist entry the engine operates on.
type WatchSymbol struct {
	Symbol   string
	Category string
	Exchange string
	Attrs    map[string]string
}

// Options carries the provider-facing knobs: how far back the provider
// retains 1-minute data, the per-request span cap, and the safety margin
// kept clear of the retention edge.
type Options struct {
	RetentionDays    int
	SpanDays         int
	SafetyMarginDays int
	Windows          int
}

// Engine orchestrates roll, backfill, and fillDate over injected
// collaborators. It holds no global state: everything it touches comes in
// through the constructor.
type Engine struct {
	watch    map[string]WatchSymbol
	provider domrepo.MarketDataProvider
	calendar domrepo.TradingCalendar
	slices   domrepo.SliceStore
	coverage *repository.CoverageStore
	events   domrepo.EventPublisher
	metrics  domrepo.Metrics
	log      *logger.Logger
	now      func() time.Time
	opts     Options
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(
	watch map[string]WatchSymbol,
	provider domrepo.MarketDataProvider,
	calendar domrepo.TradingCalendar,
	slices domrepo.SliceStore,
	coverage *repository.CoverageStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	opts Options,
	engineOpts ...EngineOption,
) *Engine {
	e := &Engine{
		watch:    watch,
		provider: provider,
		calendar: calendar,
		slices:   slices,
		coverage: coverage,
		events:   events,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
		opts:     opts,
	}
	if e.opts.Windows == 0 {
		usable := e.opts.RetentionDays - e.opts.SafetyMarginDays
		e.opts.Windows = (usable + e.opts.SpanDays - 1) / e.opts.SpanDays
	}
	for _, opt := range engineOpts {
		opt(e)
	}
	return e
}

// WatchlistFromConfig flattens the configured category map into the
// engine's symbol view.
func WatchlistFromConfig(cfg *config.Config) map[string]WatchSymbol {
	watch := make(map[string]WatchSymbol)
	for category, symbols := range cfg.Watchlist {
		for symbol, attrs := range symbols {
			watch[symbol] = WatchSymbol{
				Symbol:   symbol,
				Category: category,
				Exchange: attrs.Exchange,
				Attrs:    attrs.Extra,
			}
		}
	}
	return watch
}

// symbols returns the watchlist symbols in deterministic order.
func (e *Engine) symbols() []string {
	out := make([]string, 0, len(e.watch))
	for symbol := range e.watch {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// SymbolFailure records one symbol's failure without aborting its siblings.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Op     string `json:"op"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

// Report summarizes one engine operation for logs and the API.
type Report struct {
	Op        string          `json:"op"`
	Date      string          `json:"date,omitempty"`
	Processed []string        `json:"processed"`
	Skipped   []string        `json:"skipped"`
	Failed    []SymbolFailure `json:"failed"`
}

func newReport(op, date string) *Report {
	return &Report{
		Op:        op,
		Date:      date,
		Processed: []string{},
		Skipped:   []string{},
		Failed:    []SymbolFailure{},
	}
}

func (r *Report) fail(symbol, op string, err error) {
	r.Failed = append(r.Failed, SymbolFailure{Symbol: symbol, Op: op, Err: err, Reason: err.Error()})
}
