package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/pkg/logger"
	"snowroll/pkg/util"
)

// Backfill pulls the full retained history for one symbol by walking the
// provider's retention window in fixed-span requests, then persists a
// slice per calendar day found. A backfill is authoritative: existing
// slices for those days are overwritten.
func (e *Engine) Backfill(ctx context.Context, symbol string) error {
	start := e.now()
	defer func() {
		e.metrics.RecordOpDuration("backfill", time.Since(start).Seconds())
	}()

	ws, ok := e.watch[symbol]
	if !ok {
		return &models.ConfigError{Symbol: symbol, Reason: "not on the watchlist"}
	}

	today := util.Day(e.now())
	windowStart := util.AddDays(today, -(e.opts.RetentionDays - e.opts.SafetyMarginDays))
	rangeStart := windowStart

	var rows []models.Bar
	for i := 0; i < e.opts.Windows; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		windowEnd := util.AddDays(windowStart, e.opts.SpanDays)

		e.metrics.RecordProviderRequest("backfill")
		fetched, err := e.provider.Fetch(ctx, []string{symbol}, windowStart, windowEnd)
		if err != nil {
			e.metrics.RecordError("provider")
			return fmt.Errorf("backfill window %d: %w", i, err)
		}
		rows = append(rows, fetched[symbol]...)
		windowStart = windowEnd
	}

	byDay := make(map[string][]models.Bar)
	for _, b := range dropEmpty(rows) {
		day := util.FormatDay(b.Ts)
		byDay[day] = append(byDay[day], b)
	}
	if len(byDay) == 0 {
		return &models.EmptyIngestionError{Symbol: symbol, Start: rangeStart, End: windowStart}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		d, err := util.ParseDay(day)
		if err != nil {
			return err
		}
		if err := e.slices.Write(ctx, ws.Category, symbol, d, byDay[day]); err != nil {
			e.metrics.RecordError("store")
			return fmt.Errorf("write slice %s: %w", day, err)
		}
		e.metrics.RecordSliceWritten("backfill", symbol)
		e.publish(ctx, "backfill", ws.Category, symbol, d, len(byDay[day]))
	}

	earliest, latest := days[0], days[len(days)-1]
	if prior, ok := e.coverage.Get(symbol); ok && prior.Earliest != "" && prior.Earliest < earliest {
		// Repeated backfills only ever move the earliest bound backward.
		earliest = prior.Earliest
	}

	update := models.CoverageUpdate{
		Exchange:   &ws.Exchange,
		Earliest:   &earliest,
		Latest:     &latest,
		Attributes: ws.Attrs,
	}
	if err := e.coverage.Update(symbol, update); err != nil {
		e.metrics.RecordError(errKind(err))
		return err
	}

	if rec, ok := e.coverage.Get(symbol); ok {
		e.metrics.RecordCoverageDays(symbol, coverageSpan(rec))
	}
	e.log.Info("backfill complete",
		logger.String("symbol", symbol),
		logger.String("earliest", earliest),
		logger.String("latest", latest),
		logger.Int("days", len(days)))
	return nil
}

func coverageSpan(rec models.CoverageRecord) float64 {
	earliest, err := util.ParseDay(rec.Earliest)
	if err != nil {
		return 0
	}
	latest, err := util.ParseDay(rec.Latest)
	if err != nil {
		return 0
	}
	return latest.Sub(earliest).Hours()/24 + 1
}
