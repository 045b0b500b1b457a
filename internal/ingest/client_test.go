package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketpulse-go/internal/util"
)

const dailySeriesFixture = `{
  "Meta Data": {"2. Symbol": "AAPL"},
  "Time Series (Daily)": {
    "2024-01-05": {"1. open": "103", "2. high": "104", "3. low": "102", "4. close": "103.5", "5. adjusted close": "103.1", "6. volume": "3000"},
    "2024-01-04": {"1. open": "102", "2. high": "103", "3. low": "101", "4. close": "102.5", "5. adjusted close": "102.1", "6. volume": "2000"},
    "2024-01-03": {"1. open": "101", "2. high": "102", "3. low": "100", "4. close": "bad", "5. adjusted close": "101.1", "6. volume": "1500"},
    "2024-01-02": {"1. open": "100", "2. high": "101", "3. low": "99", "4. close": "100.5", "5. adjusted close": "100.1", "6. volume": "1000"}
  }
}`

func TestDailyHistory(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = map[string]string{
			"function":   r.URL.Query().Get("function"),
			"symbol":     r.URL.Query().Get("symbol"),
			"outputsize": r.URL.Query().Get("outputsize"),
			"apikey":     r.URL.Query().Get("apikey"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(dailySeriesFixture))
	}))
	defer srv.Close()

	client := NewClient(util.NewLogger("disabled"), srv.URL, "test-key")
	since := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars, err := client.DailyHistory(context.Background(), "AAPL", since)
	if err != nil {
		t.Fatalf("DailyHistory returned error: %v", err)
	}

	if gotQuery["function"] != "TIME_SERIES_DAILY_ADJUSTED" ||
		gotQuery["symbol"] != "AAPL" ||
		gotQuery["outputsize"] != "full" ||
		gotQuery["apikey"] != "test-key" {
		t.Fatalf("unexpected query params: %+v", gotQuery)
	}

	// 2024-01-02 filtered by since, 2024-01-03 dropped (bad close); the
	// remaining two come back date ascending.
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d: %+v", len(bars), bars)
	}
	if !bars[0].Date.Before(bars[1].Date) {
		t.Fatalf("bars not sorted ascending: %s then %s", bars[0].Date, bars[1].Date)
	}
	if bars[0].Close != 102.5 || bars[1].Close != 103.5 {
		t.Fatalf("unexpected closes: %v, %v", bars[0].Close, bars[1].Close)
	}
	if bars[0].Ticker != "AAPL" || bars[0].Volume != 2000 {
		t.Fatalf("unexpected first bar: %+v", bars[0])
	}
}

func TestDailyHistoryThrottled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	}))
	defer srv.Close()

	client := NewClient(util.NewLogger("disabled"), srv.URL, "test-key")
	if _, err := client.DailyHistory(context.Background(), "AAPL", time.Time{}); err == nil {
		t.Fatalf("expected throttle error")
	}
}

func TestDailyHistoryProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Error Message": "Invalid API call."}`))
	}))
	defer srv.Close()

	client := NewClient(util.NewLogger("disabled"), srv.URL, "test-key")
	if _, err := client.DailyHistory(context.Background(), "NOPE", time.Time{}); err == nil {
		t.Fatalf("expected provider error")
	}
}
