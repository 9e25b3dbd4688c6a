package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const (
	testCookiePath = "/cookie"
	testCrumb      = "crumb-1"
)

// yahooSession serves the cookie and crumb endpoints and hands every other
// request to next.
type yahooSession struct {
	crumbCalls int32
	crumbs     []string
	next       http.HandlerFunc
}

func (s *yahooSession) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case testCookiePath:
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusNotFound)
	case yahooCrumbPath:
		if _, err := r.Cookie("A3"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		n := int(atomic.AddInt32(&s.crumbCalls, 1))
		crumb := testCrumb
		if n <= len(s.crumbs) {
			crumb = s.crumbs[n-1]
		}
		_, _ = w.Write([]byte(crumb))
	default:
		s.next(w, r)
	}
}

func newTestYahooSession(t *testing.T, session *yahooSession) *Yahoo {
	t.Helper()
	srv := httptest.NewServer(session)
	t.Cleanup(srv.Close)
	return NewYahoo(YahooOptions{
		BaseURL:   srv.URL,
		CookieURL: srv.URL + testCookiePath,
		Timeout:   time.Second,
		UserAgent: "test",
	}, zerolog.Nop())
}

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *Yahoo {
	t.Helper()
	return newTestYahooSession(t, &yahooSession{next: handler})
}

func TestFetchQuotesSingleRequest(t *testing.T) {
	var calls int32
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != yahooQuotePath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "AAPL,BTC-USD,NOPE" {
			t.Errorf("unexpected symbols %q", got)
		}
		if got := r.URL.Query().Get("crumb"); got != testCrumb {
			t.Errorf("unexpected crumb %q", got)
		}
		if _, err := r.Cookie("A3"); err != nil {
			t.Errorf("session cookie not sent")
		}
		if r.Header.Get("User-Agent") != "test" {
			t.Errorf("user agent not forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[
			{"symbol":"AAPL","regularMarketPrice":190.5,"regularMarketPreviousClose":188,"regularMarketDayHigh":191,"regularMarketDayLow":187.2},
			{"symbol":"BTC-USD","regularMarketPrice":64000}
		],"error":null}}`))
	})

	quotes, err := y.FetchQuotes(context.Background(), []string{"AAPL", "BTC-USD", "NOPE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one round trip, got %d", calls)
	}

	aapl := quotes["AAPL"]
	if aapl.Err != nil || aapl.Quote.Last != 190.5 || aapl.Quote.PrevClose != 188 || aapl.Quote.DayHigh != 191 || aapl.Quote.DayLow != 187.2 {
		t.Fatalf("AAPL quote wrong: %+v", aapl)
	}
	if btc := quotes["BTC-USD"]; btc.Err != nil || btc.Quote.Last != 64000 || btc.Quote.PrevClose != 0 {
		t.Fatalf("BTC-USD quote wrong: %+v", btc)
	}
	if !errors.Is(quotes["NOPE"].Err, ErrSymbolNotFound) {
		t.Fatalf("missing symbol should carry ErrSymbolNotFound, got %v", quotes["NOPE"].Err)
	}
}

func TestFetchQuotesHTTPError(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"finance":{"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`))
	})

	_, err := y.FetchQuotes(context.Background(), []string{"AAPL"})
	if !errors.Is(err, ErrUnauthorized) || !strings.Contains(err.Error(), "Invalid Crumb") {
		t.Fatalf("expected crumb error, got %v", err)
	}
}

func TestFetchQuotesServerError(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"finance":{"error":{"code":"Internal","description":"boom"}}}`))
	})

	_, err := y.FetchQuotes(context.Background(), []string{"AAPL"})
	if err == nil || errors.Is(err, ErrUnauthorized) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestFetchQuotesReusesCrumb(t *testing.T) {
	session := &yahooSession{next: func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"AAPL","regularMarketPrice":1}]}}`))
	}}
	y := newTestYahooSession(t, session)

	for i := 0; i < 3; i++ {
		if _, err := y.FetchQuotes(context.Background(), []string{"AAPL"}); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&session.crumbCalls); n != 1 {
		t.Fatalf("crumb should be fetched once, got %d", n)
	}
}

func TestFetchQuotesRefreshesRejectedCrumb(t *testing.T) {
	var quoteCalls int32
	session := &yahooSession{crumbs: []string{"stale", "fresh"}}
	session.next = func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&quoteCalls, 1)
		if r.URL.Query().Get("crumb") != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"finance":{"result":null,"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"AAPL","regularMarketPrice":190}]}}`))
	}
	y := newTestYahooSession(t, session)

	quotes, err := y.FetchQuotes(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quotes["AAPL"].Quote.Last != 190 {
		t.Fatalf("unexpected quote %+v", quotes["AAPL"])
	}
	if n := atomic.LoadInt32(&quoteCalls); n != 2 {
		t.Fatalf("expected one retry, got %d quote calls", n)
	}
	if n := atomic.LoadInt32(&session.crumbCalls); n != 2 {
		t.Fatalf("expected crumb refresh, got %d crumb calls", n)
	}
}

func TestFetchQuotesEmptyDoesNotCall(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	quotes, err := y.FetchQuotes(context.Background(), nil)
	if err != nil || len(quotes) != 0 {
		t.Fatalf("expected empty result, got %v %v", quotes, err)
	}
}

func TestFetchHistorySkipsNullBars(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != yahooChartPath+"ETH-USD" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("range") != "1mo" || r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"timestamp":[1700000000,1700086400,1700172800],
			"indicators":{"quote":[{"high":[11,null,13],"low":[9,8,10],"close":[10,9,12]}]}
		}],"error":null}}`))
	})

	bars, err := y.FetchHistory(context.Background(), "ETH-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[1].High != 13 || bars[1].Low != 10 || bars[1].Close != 12 {
		t.Fatalf("unexpected bar %+v", bars[1])
	}
	if !bars[0].Time.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unexpected time %v", bars[0].Time)
	}
}

func TestFetchHistoryNotFound(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := y.FetchHistory(context.Background(), "ZZZZ")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestFetchHistoryEmptyIsNotAnError(t *testing.T) {
	for name, body := range map[string]string{
		"no timestamps": `{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`,
		"all null":      `{"chart":{"result":[{"timestamp":[1700000000],"indicators":{"quote":[{"high":[null],"low":[null],"close":[null]}]}}],"error":null}}`,
		"no result":     `{"chart":{"result":[],"error":null}}`,
	} {
		t.Run(name, func(t *testing.T) {
			y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			bars, err := y.FetchHistory(context.Background(), "AAPL")
			if err != nil {
				t.Fatalf("empty history should not fail, got %v", err)
			}
			if len(bars) != 0 {
				t.Fatalf("expected no bars, got %d", len(bars))
			}
		})
	}
}

func TestFetchHistoryHonoursContext(t *testing.T) {
	y := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := y.FetchHistory(ctx, "AAPL"); err == nil {
		t.Fatal("expected timeout error")
	}
}
