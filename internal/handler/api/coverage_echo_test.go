package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/internal/repository"
	"snowroll/internal/usecase"
	"snowroll/pkg/cache"
	"snowroll/pkg/logger"
	"snowroll/pkg/util"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type fixedProvider struct{}

func (fixedProvider) Fetch(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.Bar, error) {
	out := make(map[string][]models.Bar, len(symbols))
	for _, symbol := range symbols {
		var bars []models.Bar
		for d := util.Day(start); d.Before(end); d = util.AddDays(d, 1) {
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
				continue
			}
			bars = append(bars, models.Bar{
				Ts: d.Add(15 * time.Hour), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100,
			})
		}
		out[symbol] = bars
	}
	return out, nil
}

type openCalendar struct{}

func (openCalendar) IsTradingDay(exchange string, day time.Time) (bool, error) {
	return day.Weekday() != time.Saturday && day.Weekday() != time.Sunday, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSliceWritten(op, symbol string)           {}
func (nopMetrics) RecordProviderRequest(op string)                {}
func (nopMetrics) RecordError(kind string)                        {}
func (nopMetrics) RecordOpDuration(op string, seconds float64)    {}
func (nopMetrics) RecordCoverageDays(symbol string, days float64) {}

func newTestHandler(t *testing.T) (*CoverageEchoHandler, *echo.Echo) {
	t.Helper()
	root := t.TempDir()
	log := logger.Nop()

	coverage := repository.NewCoverageStore(root, map[string]string{"AAPL": "stocks"}, log)
	require.NoError(t, coverage.Load())

	watch := map[string]usecase.WatchSymbol{
		"AAPL": {Symbol: "AAPL", Category: "stocks", Exchange: "NYSE"},
	}
	engine := usecase.NewEngine(
		watch, fixedProvider{}, openCalendar{},
		repository.NewFileSliceStore(root), coverage,
		repository.NopEventPublisher{}, nopMetrics{}, log,
		usecase.Options{RetentionDays: 30, SpanDays: 7, SafetyMarginDays: 2},
	)

	h := NewCoverageEchoHandler(log, engine, coverage, cache.NewMemory(), time.Minute)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	_, e := newTestHandler(t)
	rec := doRequest(e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCoverageEndpointsAfterRoll(t *testing.T) {
	_, e := newTestHandler(t)

	rec := doRequest(e, http.MethodPost, "/api/ingest/roll", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rollResp struct {
		Data usecase.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rollResp))
	require.Equal(t, []string{"AAPL"}, rollResp.Data.Processed)

	rec = doRequest(e, http.MethodGet, "/api/coverage/AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var symResp struct {
		Data models.CoverageRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &symResp))
	require.Equal(t, "NYSE", symResp.Data.Exchange)
	require.NotEmpty(t, symResp.Data.Latest)

	rec = doRequest(e, http.MethodGet, "/api/coverage", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "AAPL")
}

func TestSymbolCoverageNotFound(t *testing.T) {
	_, e := newTestHandler(t)
	rec := doRequest(e, http.MethodGet, "/api/coverage/TSLA", "")

	// The response envelope carries the logical status.
	var resp struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, http.StatusNotFound, resp.Status)
}

func TestFillRejectsBadDate(t *testing.T) {
	_, e := newTestHandler(t)
	rec := doRequest(e, http.MethodPost, "/api/ingest/fill", `{"date":"1st of March"}`)

	var resp struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, http.StatusBadRequest, resp.Status)
}

func TestFillRunsForDate(t *testing.T) {
	_, e := newTestHandler(t)

	// Establish coverage first.
	rec := doRequest(e, http.MethodPost, "/api/ingest/roll", "")
	require.Equal(t, http.StatusOK, rec.Code)

	date := util.FormatDay(util.AddDays(util.Day(time.Now().UTC()), -3))
	rec = doRequest(e, http.MethodPost, "/api/ingest/fill", `{"date":"`+date+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data usecase.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "fill", resp.Data.Op)
}
