package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"snowroll/internal/domain/models"
	"snowroll/internal/service/ratelimit"
	xhttp "snowroll/pkg/http"
	"snowroll/pkg/logger"
)

// Client fetches 1-minute bars from the Yahoo Finance chart API. The API
// retains roughly 30 days of 1-minute data and caps a request span at 7
// days; both limits are the caller's problem (the backfill windowing), the
// client only paces requests through the shared limiter.
type Client struct {
	http    *xhttp.Client
	baseURL string
	limiter *ratelimit.Limiter
	rps     float64
	burst   float64
	log     *logger.Logger
}

const limiterKey = "yahoo"

func New(baseURL string, timeout time.Duration, limiter *ratelimit.Limiter, rps float64, burst int, log *logger.Logger) *Client {
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: baseURL,
		limiter: limiter,
		rps:     rps,
		burst:   float64(burst),
		log:     log,
	}
}

// Fetch retrieves bars for every symbol over [start, end). The chart API is
// single-symbol, so a multi-symbol call walks the list through the rate
// limiter; one symbol's failure does not stop the rest. The returned error
// joins the per-symbol failures, alongside whatever partial map was built.
func (c *Client) Fetch(ctx context.Context, symbols []string, start, end time.Time) (map[string][]models.Bar, error) {
	out := make(map[string][]models.Bar, len(symbols))
	var errs []error
	for _, symbol := range symbols {
		if err := c.limiter.Wait(ctx, limiterKey, c.burst, c.rps); err != nil {
			return out, err
		}
		bars, err := c.fetchOne(ctx, symbol, start, end)
		if err != nil {
			c.log.Warn("provider fetch failed",
				logger.String("symbol", symbol), logger.Error(err))
			errs = append(errs, &models.ProviderError{Symbol: symbol, Start: start, End: end, Err: err})
			continue
		}
		out[symbol] = bars
	}
	return out, errors.Join(errs...)
}

// chartResponse mirrors the slice of the chart payload we care about.
// Quote arrays are nullable: halted minutes come back as nulls.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchOne(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"period1":        {strconv.FormatInt(start.Unix(), 10)},
			"period2":        {strconv.FormatInt(end.Unix(), 10)},
			"interval":       {"1m"},
			"includePrePost": {"false"},
		},
		Headers: map[string]string{"User-Agent": "snowroll/1.0"},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("chart error %s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h := deref(quote.Open, i), deref(quote.High, i)
		l, cl := deref(quote.Low, i), deref(quote.Close, i)
		v := deref(quote.Volume, i)
		if o == nil && h == nil && l == nil && cl == nil && v == nil {
			continue // all-missing row
		}
		bars = append(bars, models.Bar{
			Ts:     time.Unix(ts, 0).UTC(),
			Open:   val(o),
			High:   val(h),
			Low:    val(l),
			Close:  val(cl),
			Volume: val(v),
		})
	}
	return bars, nil
}

func deref(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
