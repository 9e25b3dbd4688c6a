package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	yahooQuotePath = "/v7/finance/quote"
	yahooChartPath = "/v8/finance/chart/"
	yahooCrumbPath = "/v1/test/getcrumb"

	defaultCookieURL = "https://fc.yahoo.com"
)

// YahooOptions parameterise the Yahoo Finance fetcher.
type YahooOptions struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	HistoryRange string
	// CookieURL issues the session cookie the crumb is bound to.
	CookieURL string
}

// Yahoo fetches quotes and daily history from Yahoo Finance.
type Yahoo struct {
	opts    YahooOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string

	mu    sync.Mutex
	crumb string
}

// NewYahoo constructs a Yahoo Finance fetcher.
func NewYahoo(opts YahooOptions, logger zerolog.Logger) *Yahoo {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if opts.HistoryRange == "" {
		opts.HistoryRange = "1mo"
	}

	if opts.CookieURL == "" {
		opts.CookieURL = defaultCookieURL
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}

	// cookiejar.New only fails on a bad PublicSuffixList.
	jar, _ := cookiejar.New(nil)

	return &Yahoo{
		opts:    opts,
		logger:  logger.With().Str("component", "yahoo_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout, Jar: jar},
		baseURL: baseURL,
	}
}

// FetchQuotes retrieves live quotes for all symbols with a single request.
// The session crumb is obtained on first use and refreshed once when rejected.
func (y *Yahoo) FetchQuotes(ctx context.Context, symbols []string) (map[string]QuoteResult, error) {
	if len(symbols) == 0 {
		return map[string]QuoteResult{}, nil
	}

	res, err := y.fetchQuotes(ctx, symbols)
	if errors.Is(err, ErrUnauthorized) {
		y.logger.Debug().Err(err).Msg("crumb rejected; refreshing session")
		y.resetCrumb()
		res, err = y.fetchQuotes(ctx, symbols)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}

	bySymbol := make(map[string]quoteItem, len(res.QuoteResponse.Result))
	for _, item := range res.QuoteResponse.Result {
		bySymbol[strings.ToUpper(item.Symbol)] = item
	}

	out := make(map[string]QuoteResult, len(symbols))
	for _, sym := range symbols {
		item, ok := bySymbol[strings.ToUpper(sym)]
		if !ok {
			out[sym] = QuoteResult{Err: fmt.Errorf("%s: %w", sym, ErrSymbolNotFound)}
			continue
		}
		if item.RegularMarketPrice == nil {
			out[sym] = QuoteResult{Err: fmt.Errorf("%s: %w", sym, ErrNoData)}
			continue
		}
		out[sym] = QuoteResult{Quote: Quote{
			Last:      *item.RegularMarketPrice,
			PrevClose: deref(item.RegularMarketPreviousClose),
			DayHigh:   deref(item.RegularMarketDayHigh),
			DayLow:    deref(item.RegularMarketDayLow),
		}}
	}
	return out, nil
}

func (y *Yahoo) fetchQuotes(ctx context.Context, symbols []string) (*quoteResponse, error) {
	crumb, err := y.sessionCrumb(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))
	query.Set("crumb", crumb)

	var res quoteResponse
	if err := y.getJSON(ctx, y.baseURL+yahooQuotePath+"?"+query.Encode(), &res); err != nil {
		return nil, err
	}
	if res.QuoteResponse.Error != nil {
		return nil, errors.New(res.QuoteResponse.Error.String())
	}
	return &res, nil
}

// sessionCrumb returns the cached crumb, performing the cookie and crumb
// handshake when none is cached.
func (y *Yahoo) sessionCrumb(ctx context.Context) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.crumb != "" {
		return y.crumb, nil
	}

	// The cookie endpoint answers with an error status; only the Set-Cookie matters.
	if _, _, err := y.get(ctx, y.opts.CookieURL, "*/*"); err != nil {
		return "", fmt.Errorf("yahoo session cookie: %w", err)
	}

	status, payload, err := y.get(ctx, y.baseURL+yahooCrumbPath, "text/plain")
	if err != nil {
		return "", fmt.Errorf("yahoo crumb: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("yahoo crumb: %w", parseHTTPError(status, payload))
	}
	crumb := strings.TrimSpace(string(payload))
	if crumb == "" {
		return "", errors.New("yahoo crumb: empty response")
	}

	y.crumb = crumb
	y.logger.Debug().Msg("yahoo session established")
	return crumb, nil
}

func (y *Yahoo) resetCrumb() {
	y.mu.Lock()
	y.crumb = ""
	y.mu.Unlock()
}

// FetchHistory retrieves daily bars for the configured history range. A chart
// without usable bars yields an empty slice; callers fall back to the quote.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string) ([]Bar, error) {
	query := url.Values{}
	query.Set("range", y.opts.HistoryRange)
	query.Set("interval", "1d")

	endpoint := y.baseURL + yahooChartPath + url.PathEscape(symbol) + "?" + query.Encode()

	var res chartResponse
	if err := y.getJSON(ctx, endpoint, &res); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}
	if res.Chart.Error != nil {
		return nil, fmt.Errorf("fetch history %s: %s", symbol, res.Chart.Error)
	}
	if len(res.Chart.Result) == 0 || len(res.Chart.Result[0].Indicators.Quote) == 0 {
		return []Bar{}, nil
	}

	result := res.Chart.Result[0]
	series := result.Indicators.Quote[0]
	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		high, low, closing := at(series.High, i), at(series.Low, i), at(series.Close, i)
		if high == nil || low == nil || closing == nil {
			continue
		}
		bars = append(bars, Bar{
			Time:  time.Unix(ts, 0).UTC(),
			High:  *high,
			Low:   *low,
			Close: *closing,
		})
	}
	return bars, nil
}

func (y *Yahoo) getJSON(ctx context.Context, endpoint string, dst any) error {
	status, payload, err := y.get(ctx, endpoint, "application/json")
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return parseHTTPError(status, payload)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	y.logger.Debug().Str("url", endpoint).Int("bytes", len(payload)).Msg("yahoo response")
	return nil
}

func (y *Yahoo) get(ctx context.Context, endpoint, accept string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", accept)
	if ua := strings.TrimSpace(y.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "marketwatch/1.0")
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, payload, nil
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) String() string {
	if e.Description != "" {
		return fmt.Sprintf("yahoo api error: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("yahoo api error: %s", e.Code)
}

type quoteItem struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
	RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        *float64 `json:"regularMarketDayLow"`
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteItem `json:"result"`
		Error  *apiError   `json:"error"`
	} `json:"quoteResponse"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High  []*float64 `json:"high"`
					Low   []*float64 `json:"low"`
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

func parseHTTPError(status int, payload []byte) error {
	var wrapped struct {
		Chart struct {
			Error *apiError `json:"error"`
		} `json:"chart"`
		Finance struct {
			Error *apiError `json:"error"`
		} `json:"finance"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil {
		if e := wrapped.Chart.Error; e != nil {
			if status == http.StatusNotFound {
				return fmt.Errorf("%w (%d): %s", ErrSymbolNotFound, status, e.Description)
			}
			return fmt.Errorf("yahoo api error (%d): %s", status, e.Description)
		}
		if e := wrapped.Finance.Error; e != nil {
			if status == http.StatusUnauthorized {
				return fmt.Errorf("%w (%d): %s", ErrUnauthorized, status, e.Description)
			}
			return fmt.Errorf("yahoo api error (%d): %s", status, e.Description)
		}
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w (%d)", ErrUnauthorized, status)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w (%d)", ErrSymbolNotFound, status)
	}
	if len(payload) > 0 {
		return fmt.Errorf("yahoo api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("yahoo api error (%d)", status)
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

var _ Source = (*Yahoo)(nil)
