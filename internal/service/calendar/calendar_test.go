package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"snowroll/internal/domain/models"
	"snowroll/pkg/config"
	"snowroll/pkg/util"
)

func newTestCalendar(t *testing.T) *Service {
	t.Helper()
	s, err := New(map[string]config.ExchangeCalendar{
		"NYSE": {Holidays: []string{"2026-07-03"}},
	}, time.Minute)
	require.NoError(t, err)
	return s
}

func TestWeekdayIsOpen(t *testing.T) {
	s := newTestCalendar(t)
	day, _ := util.ParseDay("2026-08-27") // Thursday
	open, err := s.IsTradingDay("NYSE", day)
	require.NoError(t, err)
	require.True(t, open)
}

func TestWeekendIsClosed(t *testing.T) {
	s := newTestCalendar(t)
	for _, d := range []string{"2026-08-29", "2026-08-30"} { // Sat, Sun
		day, _ := util.ParseDay(d)
		open, err := s.IsTradingDay("NYSE", day)
		require.NoError(t, err)
		require.False(t, open, d)
	}
}

func TestHolidayIsClosed(t *testing.T) {
	s := newTestCalendar(t)
	day, _ := util.ParseDay("2026-07-03") // Friday, configured holiday
	open, err := s.IsTradingDay("NYSE", day)
	require.NoError(t, err)
	require.False(t, open)
}

func TestUnknownExchange(t *testing.T) {
	s := newTestCalendar(t)
	day, _ := util.ParseDay("2026-08-27")
	_, err := s.IsTradingDay("LSE", day)
	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestBadHolidayRejected(t *testing.T) {
	_, err := New(map[string]config.ExchangeCalendar{
		"NYSE": {Holidays: []string{"03/07/2026"}},
	}, time.Minute)
	require.Error(t, err)
}
