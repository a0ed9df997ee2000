package calendar

import (
	"fmt"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/internal/service/cache"
	"snowroll/pkg/config"
	"snowroll/pkg/util"
)

// Service answers trading-day questions from configured exchange
// calendars: Saturday and Sunday are closed everywhere, plus whatever
// holidays the config lists per exchange.
type Service struct {
	holidays map[string]map[string]bool // exchange -> day -> closed
	memo     *cache.TTLCache
	ttl      time.Duration
}

// New builds a calendar from config. Holiday strings must be YYYY-MM-DD.
func New(exchanges map[string]config.ExchangeCalendar, ttl time.Duration) (*Service, error) {
	holidays := make(map[string]map[string]bool, len(exchanges))
	for exchange, cal := range exchanges {
		days := make(map[string]bool, len(cal.Holidays))
		for _, h := range cal.Holidays {
			d, err := util.ParseDay(h)
			if err != nil {
				return nil, fmt.Errorf("calendar %s: %w", exchange, err)
			}
			days[util.FormatDay(d)] = true
		}
		holidays[exchange] = days
	}
	return &Service{holidays: holidays, memo: cache.NewTTLCache(), ttl: ttl}, nil
}

// IsTradingDay reports whether day was a session on exchange. Unknown
// exchanges are a configuration problem, not an open market.
func (s *Service) IsTradingDay(exchange string, day time.Time) (bool, error) {
	days, ok := s.holidays[exchange]
	if !ok {
		return false, &models.ConfigError{Symbol: exchange, Reason: "exchange has no configured calendar"}
	}

	key := exchange + "/" + util.FormatDay(day)
	if v, ok := s.memo.Get(key); ok {
		return v.(bool), nil
	}

	open := true
	switch util.Day(day).Weekday() {
	case time.Saturday, time.Sunday:
		open = false
	}
	if open && days[util.FormatDay(day)] {
		open = false
	}

	s.memo.Set(key, open, s.ttl)
	return open, nil
}
