package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/pkg/logger"
	"snowroll/pkg/util"
)

// Roll advances coverage by exactly one trading day for every symbol that
// already has a record, in a single batched provider call. Symbols without
// a record are backfilled instead. The target is always yesterday: the
// running session's 1-minute bars are still unsettled.
func (e *Engine) Roll(ctx context.Context) (*Report, error) {
	start := e.now()
	target := util.AddDays(util.Day(start), -1)
	report := newReport("roll", util.FormatDay(target))
	defer func() {
		e.metrics.RecordOpDuration("roll", time.Since(start).Seconds())
	}()

	var existing []string
	for _, symbol := range e.symbols() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := e.coverage.Get(symbol); ok {
			existing = append(existing, symbol)
			continue
		}
		// First sighting: a one-day fetch is useless without baseline
		// coverage, so run the bounded backfill instead.
		e.log.Info("new symbol, backfilling", logger.String("symbol", symbol))
		if err := e.Backfill(ctx, symbol); err != nil {
			e.metrics.RecordError(errKind(err))
			e.log.Error("backfill failed", logger.String("symbol", symbol), logger.Error(err))
			report.fail(symbol, "backfill", err)
			continue
		}
		report.Processed = append(report.Processed, symbol)
	}

	if len(existing) == 0 {
		return report, e.coverage.Save()
	}

	eligible := existing[:0]
	for _, symbol := range existing {
		open, err := e.calendar.IsTradingDay(e.watch[symbol].Exchange, target)
		if err != nil {
			e.metrics.RecordError(errKind(err))
			report.fail(symbol, "roll", err)
			continue
		}
		if !open {
			e.log.Debug("market closed, skipping",
				logger.String("symbol", symbol), logger.String("date", util.FormatDay(target)))
			report.Skipped = append(report.Skipped, symbol)
			continue
		}
		eligible = append(eligible, symbol)
	}

	if len(eligible) == 0 {
		return report, e.coverage.Save()
	}

	e.metrics.RecordProviderRequest("roll")
	rows, fetchErr := e.provider.Fetch(ctx, eligible, target, util.AddDays(target, 1))
	if fetchErr != nil {
		// Partial results are still usable; the per-symbol misses are
		// accounted for below.
		e.metrics.RecordError("provider")
		e.log.Warn("batched fetch returned errors", logger.Error(fetchErr))
	}

	for _, symbol := range eligible {
		bars, ok := rows[symbol]
		if !ok {
			report.fail(symbol, "roll", &models.ProviderError{
				Symbol: symbol, Start: target, End: util.AddDays(target, 1), Err: fetchErr,
			})
			continue
		}
		bars = dropEmpty(bars)
		if len(bars) == 0 {
			// Holiday the calendar missed, a delisting, or a provider gap.
			e.log.Info("no rows for session, skipping",
				logger.String("symbol", symbol), logger.String("date", util.FormatDay(target)))
			report.Skipped = append(report.Skipped, symbol)
			continue
		}

		ws := e.watch[symbol]
		if err := e.slices.Write(ctx, ws.Category, symbol, target, bars); err != nil {
			e.metrics.RecordError("store")
			report.fail(symbol, "roll", fmt.Errorf("write slice: %w", err))
			continue
		}
		latest := util.FormatDay(target)
		if err := e.coverage.Update(symbol, models.CoverageUpdate{Latest: &latest}); err != nil {
			e.metrics.RecordError(errKind(err))
			report.fail(symbol, "roll", err)
			continue
		}
		e.metrics.RecordSliceWritten("roll", symbol)
		e.publish(ctx, "roll", ws.Category, symbol, target, len(bars))
		report.Processed = append(report.Processed, symbol)
	}

	return report, e.coverage.Save()
}

func (e *Engine) publish(ctx context.Context, op, category, symbol string, day time.Time, rows int) {
	err := e.events.Publish(ctx, models.IngestionEvent{
		Op:       op,
		Category: category,
		Symbol:   symbol,
		Date:     util.FormatDay(day),
		Rows:     rows,
		At:       e.now(),
	})
	if err != nil {
		e.log.Warn("event publish failed", logger.String("symbol", symbol), logger.Error(err))
	}
}

func dropEmpty(bars []models.Bar) []models.Bar {
	out := bars[:0]
	for _, b := range bars {
		if !b.Empty() {
			out = append(out, b)
		}
	}
	return out
}

func errKind(err error) string {
	var (
		cfgErr   *models.ConfigError
		provErr  *models.ProviderError
		emptyErr *models.EmptyIngestionError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &provErr):
		return "provider"
	case errors.As(err, &emptyErr):
		return "empty_ingestion"
	default:
		return "internal"
	}
}
