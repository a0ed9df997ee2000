package api

import (
	"net/http"
	"time"

	"snowroll/internal/repository"
	"snowroll/internal/usecase"
	"snowroll/pkg/cache"
	xhttp "snowroll/pkg/http"
	xlogger "snowroll/pkg/logger"
	"snowroll/pkg/util"

	"github.com/labstack/echo/v4"
)

const coverageCacheKey = "coverage:meta"

// FillRequest triggers a single-date backfill across the watchlist.
type FillRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// CoverageEchoHandler exposes coverage reads and ingestion triggers over Echo.
type CoverageEchoHandler struct {
	logger   *xlogger.Logger
	engine   *usecase.Engine
	coverage *repository.CoverageStore
	cache    cache.Service
	cacheTTL time.Duration
}

func NewCoverageEchoHandler(
	logger *xlogger.Logger,
	engine *usecase.Engine,
	coverage *repository.CoverageStore,
	c cache.Service,
	cacheTTL time.Duration,
) *CoverageEchoHandler {
	return &CoverageEchoHandler{
		logger:   logger,
		engine:   engine,
		coverage: coverage,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

func (h *CoverageEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/coverage", h.Coverage)
	g.GET("/coverage/:symbol", h.SymbolCoverage)
	g.POST("/ingest/roll", h.Roll)
	g.POST("/ingest/fill", h.Fill)
}

func (h *CoverageEchoHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Coverage returns the aggregate coverage document. Reads go through the
// cache so a polling dashboard does not hammer the rescan path.
func (h *CoverageEchoHandler) Coverage(c echo.Context) error {
	ctx := c.Request().Context()

	if h.cache != nil {
		var cached map[string]interface{}
		if err := h.cache.Get(ctx, coverageCacheKey, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		}
	}

	meta := h.coverage.Meta()
	if h.cache != nil {
		if err := h.cache.Set(ctx, coverageCacheKey, meta, h.cacheTTL); err != nil {
			h.logger.Warn("coverage cache set failed", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, meta)
}

func (h *CoverageEchoHandler) SymbolCoverage(c echo.Context) error {
	symbol := c.Param("symbol")
	rec, ok := h.coverage.Get(symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no coverage for symbol %s", symbol))
	}
	return xhttp.SuccessResponse(c, rec)
}

// Roll advances every watched symbol by one trading day.
func (h *CoverageEchoHandler) Roll(c echo.Context) error {
	report, err := h.engine.Roll(c.Request().Context())
	if err != nil {
		h.logger.Error("roll failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("roll failed: %v", err))
	}
	h.invalidate(c)
	return xhttp.SuccessResponse(c, report)
}

// Fill ingests one specific date for every symbol whose coverage spans it.
func (h *CoverageEchoHandler) Fill(c echo.Context) error {
	req := &FillRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	date, err := util.ParseDay(req.Date)
	if err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestErrorf("invalid date %q", req.Date))
	}

	report, err := h.engine.FillDate(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("fill failed", xlogger.String("date", req.Date), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("fill failed: %v", err))
	}
	h.invalidate(c)
	return xhttp.SuccessResponse(c, report)
}

func (h *CoverageEchoHandler) invalidate(c echo.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(c.Request().Context(), coverageCacheKey); err != nil {
		h.logger.Warn("coverage cache invalidation failed", xlogger.Error(err))
	}
}
