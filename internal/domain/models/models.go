package models

import "time"

// Bar is one 1-minute OHLCV row.
type Bar struct {
	Ts     time.Time `yaml:"ts" json:"ts"`
	Open   float64   `yaml:"open" json:"open"`
	High   float64   `yaml:"high" json:"high"`
	Low    float64   `yaml:"low" json:"low"`
	Close  float64   `yaml:"close" json:"close"`
	Volume float64   `yaml:"volume" json:"volume"`
}

// Empty reports whether the bar carries no usable values. Providers pad
// thinly traded minutes with all-zero rows; those are dropped before a
// slice is persisted.
func (b Bar) Empty() bool {
	return b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0 && b.Volume == 0
}

// CoverageRecord is the per-symbol bookkeeping document: the earliest and
// latest UTC calendar days for which slices have been ingested, plus the
// symbol's static attributes copied from the watchlist. A missing record
// means the symbol has never been ingested.
type CoverageRecord struct {
	Symbol      string            `yaml:"symbol" json:"symbol"`
	Exchange    string            `yaml:"exchange" json:"exchange"`
	Earliest    string            `yaml:"earliest_date,omitempty" json:"earliest_date,omitempty"`
	Latest      string            `yaml:"latest_date,omitempty" json:"latest_date,omitempty"`
	LastUpdated time.Time         `yaml:"last_updated" json:"last_updated"`
	Attributes  map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// CoverageUpdate is a partial coverage mutation. Nil fields are left
// untouched; set fields win last-write. This shallow merge is what keeps
// roll (latest only) and backfill (both bounds plus attributes) from
// clobbering each other's state.
type CoverageUpdate struct {
	Exchange   *string
	Earliest   *string
	Latest     *string
	Attributes map[string]string
}

// StorageMeta is the aggregate coverage view over every symbol. It is a
// derived cache rebuilt by rescanning the per-symbol documents, never a
// source of truth in its own right.
type StorageMeta struct {
	CreatedAt   time.Time                            `yaml:"created_at" json:"created_at"`
	LastUpdated time.Time                            `yaml:"last_updated" json:"last_updated"`
	Categories  map[string]map[string]CoverageRecord `yaml:"categories" json:"categories"`
}

// IngestionEvent is published after a slice write or coverage change when
// event publishing is enabled.
type IngestionEvent struct {
	Op       string    `json:"op"` // roll | backfill | fill
	Category string    `json:"category"`
	Symbol   string    `json:"symbol"`
	Date     string    `json:"date"`
	Rows     int       `json:"rows"`
	At       time.Time `json:"at"`
}
