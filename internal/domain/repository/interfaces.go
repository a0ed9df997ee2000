package repository

import (
	"context"
	"time"

	"snowroll/internal/domain/models"
)

// MarketDataProvider fetches 1-minute OHLCV rows for a half-open UTC time
// range. Multi-symbol calls are one logical request: implementations pace
// the underlying transport themselves. Symbols with no data map to empty
// slices, not errors.
type MarketDataProvider interface {
	Fetch(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.Bar, error)
}

// TradingCalendar answers whether a UTC calendar day was a trading session
// on a given exchange.
type TradingCalendar interface {
	IsTradingDay(exchange string, day time.Time) (bool, error)
}

// SliceStore persists one symbol-day of bars. Write replaces whatever was
// there; Exists is what fillDate's idempotence check rides on.
type SliceStore interface {
	Write(ctx context.Context, category, symbol string, day time.Time, bars []models.Bar) error
	Read(ctx context.Context, category, symbol string, day time.Time) ([]models.Bar, error)
	Exists(ctx context.Context, category, symbol string, day time.Time) (bool, error)
}

// EventPublisher emits ingestion events to whatever bus is configured.
// The no-op implementation is used when events are disabled.
type EventPublisher interface {
	Publish(ctx context.Context, event models.IngestionEvent) error
	Close() error
}

// Metrics abstracts the ingestion counters so the engine does not depend
// on Prometheus directly.
type Metrics interface {
	RecordSliceWritten(op, symbol string)
	RecordProviderRequest(op string)
	RecordError(kind string)
	RecordOpDuration(op string, seconds float64)
	RecordCoverageDays(symbol string, days float64)
}
