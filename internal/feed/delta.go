package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"tidemark/internal/domain"
	"tidemark/internal/util"
)

// Compile-time interface check.
var _ Source = (*DeltaClient)(nil)

// DefaultDeltaBaseURL is the public Delta Exchange history endpoint.
const DefaultDeltaBaseURL = "https://cdn.india.deltaex.org/v2/history"

// deltaPageLimit is the maximum candles the API returns per request.
const deltaPageLimit = 2000

// DeltaClient fetches historical candles from the Delta Exchange history
// API. The API serves at most one page of candles per request, so long
// ranges are walked backwards from the end timestamp until the start is
// reached. Requests are rate limited and retried with backoff.
type DeltaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewDeltaClient creates a DeltaClient. An empty baseURL selects the public
// endpoint; ratePerMin bounds the request rate (0 means 120/min).
func NewDeltaClient(baseURL string, ratePerMin int) *DeltaClient {
	if baseURL == "" {
		baseURL = DefaultDeltaBaseURL
	}
	if ratePerMin <= 0 {
		ratePerMin = 120
	}
	return &DeltaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    util.NewRateLimiter(ratePerMin),
		log:        slog.Default().With("component", "delta-feed"),
	}
}

// deltaCandle matches one entry of the history API's result array.
type deltaCandle struct {
	Time   int64   `json:"time"` // Unix seconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// FetchBars pages backwards through the candle history and returns the
// bars sorted ascending, deduplicated, and clipped to [start, end].
func (c *DeltaClient) FetchBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	secs, err := domain.TimeframeSeconds(timeframe)
	if err != nil {
		return nil, err
	}

	startTS := start.Unix()
	endTS := end.Unix()
	seen := make(map[int64]deltaCandle)

	cur := endTS
	for cur > startTS {
		reqStart := cur - int64(deltaPageLimit*secs)
		if reqStart < startTS {
			reqStart = startTS
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var page []deltaCandle
		err := util.Retry(ctx, 3, 500*time.Millisecond, func() error {
			var rerr error
			page, rerr = c.getCandles(ctx, symbol, timeframe, reqStart, cur)
			return rerr
		})
		if err != nil {
			return nil, fmt.Errorf("fetching candles for %s: %w", symbol, err)
		}
		if len(page) == 0 {
			break
		}

		earliest := page[0].Time
		for _, cd := range page {
			if cd.Time < earliest {
				earliest = cd.Time
			}
			seen[cd.Time] = cd
		}
		c.log.Debug("fetched candle page", "symbol", symbol, "candles", len(page),
			"earliest", time.Unix(earliest, 0).UTC())

		// Move backwards past the earliest candle of this page.
		cur = earliest - 1
	}

	bars := make([]domain.Bar, 0, len(seen))
	for ts, cd := range seen {
		if ts < startTS || ts > endTS {
			continue
		}
		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: time.Unix(cd.Time, 0).UTC(),
			Open:      cd.Open,
			High:      cd.High,
			Low:       cd.Low,
			Close:     cd.Close,
			Volume:    cd.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars, nil
}

// getCandles performs one history request.
func (c *DeltaClient) getCandles(ctx context.Context, symbol, resolution string, start, end int64) ([]deltaCandle, error) {
	q := url.Values{}
	q.Set("resolution", resolution)
	q.Set("symbol", symbol)
	q.Set("start", strconv.FormatInt(start, 10))
	q.Set("end", strconv.FormatInt(end, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/candles?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candles request returned status %d", resp.StatusCode)
	}

	var body struct {
		Result []deltaCandle `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding candles response: %w", err)
	}
	return body.Result, nil
}
