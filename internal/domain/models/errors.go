package models

import (
	"fmt"
	"time"
)

// ConfigError marks a symbol that cannot be served because its
// configuration is broken: not mapped to any watchlist category, or
// missing a required attribute. Not retryable.
type ConfigError struct {
	Symbol string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for %s: %s", e.Symbol, e.Reason)
}

// ProviderError wraps a failed provider fetch with enough context to retry
// it by hand.
type ProviderError struct {
	Symbol string
	Start  time.Time
	End    time.Time
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider fetch %s [%s, %s): %v",
		e.Symbol, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"), e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// EmptyIngestionError reports a backfill that walked the whole retention
// window and found nothing. Fatal for that symbol's backfill; siblings
// keep going.
type EmptyIngestionError struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

func (e *EmptyIngestionError) Error() string {
	return fmt.Sprintf("no rows ingested for %s over [%s, %s)",
		e.Symbol, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}
