package usecase

import (
	"context"
	"fmt"
	"time"

	"snowroll/pkg/logger"
	"snowroll/pkg/util"
)

// FillDate fills one specific missing date for every watchlist symbol.
// It never widens coverage bounds (that is backfill's job) and never
// overwrites an existing slice, so repeated fills are no-ops.
func (e *Engine) FillDate(ctx context.Context, date time.Time) (*Report, error) {
	start := e.now()
	date = util.Day(date)
	report := newReport("fill", util.FormatDay(date))
	defer func() {
		e.metrics.RecordOpDuration("fill", time.Since(start).Seconds())
	}()

	for _, symbol := range e.symbols() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := e.fillSymbol(ctx, symbol, date, report); err != nil {
			e.metrics.RecordError(errKind(err))
			e.log.Error("fill failed", logger.String("symbol", symbol), logger.Error(err))
			report.fail(symbol, "fill", err)
		}
	}

	return report, e.coverage.Save()
}

func (e *Engine) fillSymbol(ctx context.Context, symbol string, date time.Time, report *Report) error {
	ws := e.watch[symbol]

	rec, ok := e.coverage.Get(symbol)
	if !ok {
		// A single-date fill is meaningless without baseline coverage.
		if err := e.Backfill(ctx, symbol); err != nil {
			return err
		}
		report.Processed = append(report.Processed, symbol)
		return nil
	}

	day := util.FormatDay(date)
	if (rec.Earliest != "" && day < rec.Earliest) || (rec.Latest != "" && day > rec.Latest) {
		// Out-of-range extension is backfill's responsibility.
		report.Skipped = append(report.Skipped, symbol)
		return nil
	}

	exists, err := e.slices.Exists(ctx, ws.Category, symbol, date)
	if err != nil {
		return fmt.Errorf("check slice: %w", err)
	}
	if exists {
		report.Skipped = append(report.Skipped, symbol)
		return nil
	}

	open, err := e.calendar.IsTradingDay(ws.Exchange, date)
	if err != nil {
		return err
	}
	if !open {
		report.Skipped = append(report.Skipped, symbol)
		return nil
	}

	e.metrics.RecordProviderRequest("fill")
	rows, err := e.provider.Fetch(ctx, []string{symbol}, date, util.AddDays(date, 1))
	if err != nil {
		return err
	}
	bars := dropEmpty(rows[symbol])
	if len(bars) == 0 {
		// Calendar said open but the provider has nothing: half-day with
		// no intraday ticks, or a transient outage.
		e.log.Warn("open session but no rows",
			logger.String("symbol", symbol), logger.String("date", day))
		report.Skipped = append(report.Skipped, symbol)
		return nil
	}

	if err := e.slices.Write(ctx, ws.Category, symbol, date, bars); err != nil {
		return fmt.Errorf("write slice: %w", err)
	}
	e.metrics.RecordSliceWritten("fill", symbol)
	e.publish(ctx, "fill", ws.Category, symbol, date, len(bars))
	report.Processed = append(report.Processed, symbol)
	return nil
}
