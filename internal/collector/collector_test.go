package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"SignalSentinel/internal/cache"
	"SignalSentinel/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC) }

const klineBody = `{"rc":0,"data":{"code":"600489","market":1,"name":"中金黄金","klines":[
"2024-03-13,10.10,10.25,10.30,10.05,523412,536712345.00",
"2024-03-14,10.25,10.18,10.40,10.12,611234,627812345.00",
"bad line",
"2024-03-15,10.18,10.52,10.60,10.15,902345,941234567.00"]}}`

func TestEastMoney_FetchDailyBars(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"secid": q.Get("secid"), "klt": q.Get("klt"), "fqt": q.Get("fqt"),
			"beg": q.Get("beg"), "end": q.Get("end"), "fields2": q.Get("fields2"),
		}
		if r.Header.Get("Referer") == "" || r.Header.Get("User-Agent") == "" {
			t.Error("expected browser headers")
		}
		w.Write([]byte(klineBody))
	}))
	defer srv.Close()

	f := NewEastMoneyFetcher("", nil)
	f.KLineURL = srv.URL
	f.Now = fixedNow

	bars, err := f.FetchDailyBars(context.Background(), "600489", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	b := bars[2]
	if !b.Time.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", b.Time)
	}
	if b.Open != 10.18 || b.Close != 10.52 || b.High != 10.60 || b.Low != 10.15 || b.Volume != 902345 || b.Amount != 941234567 {
		t.Errorf("unexpected bar %+v", b)
	}
	want := map[string]string{
		"secid": "1.600489", "klt": "101", "fqt": "1",
		"beg": "20231206", "end": "20240315", "fields2": klineFields,
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s = %q, want %q", k, gotQuery[k], v)
		}
	}
}

func TestEastMoney_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(klineBody))
	}))
	defer srv.Close()

	f := NewEastMoneyFetcher("", nil)
	f.KLineURL = srv.URL
	f.Now = fixedNow
	if _, err := f.FetchDailyBars(context.Background(), "000001", 30); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestEastMoney_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rc":0,"data":null}`))
	}))
	defer srv.Close()

	f := NewEastMoneyFetcher("", nil)
	f.KLineURL = srv.URL
	if _, err := f.FetchDailyBars(context.Background(), "999999", 30); err == nil {
		t.Error("expected error for missing klines")
	}
}

func TestEastMoney_FetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("secid") != "0.000001" || r.URL.Query().Get("fltt") != "2" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":{"f43":10.52,"f44":10.6,"f45":10.15,"f46":10.18,"f47":902345,"f48":941234567,"f57":"000001","f58":"平安银行","f60":10.18,"f170":3.34}}`))
	}))
	defer srv.Close()

	f := NewEastMoneyFetcher("", nil)
	f.QuoteURL = srv.URL
	q, err := f.FetchQuote(context.Background(), "000001")
	if err != nil {
		t.Fatal(err)
	}
	if q.Name != "平安银行" || q.Price != 10.52 || q.ChangePct != 3.34 || q.PreClose != 10.18 {
		t.Errorf("unexpected quote %+v", q)
	}
}

func TestSecIDAndYahooSymbol(t *testing.T) {
	tests := []struct{ code, secid, yahoo string }{
		{"600489", "1.600489", "600489.SS"},
		{"510300", "1.510300", "510300.SS"},
		{"000001", "0.000001", "000001.SZ"},
		{"300750", "0.300750", "300750.SZ"},
		{"^GSPC", "0.^GSPC", "^GSPC"},
	}
	for _, tt := range tests {
		if got := SecID(tt.code); got != tt.secid {
			t.Errorf("SecID(%s) = %s, want %s", tt.code, got, tt.secid)
		}
		if got := YahooSymbol(tt.code); got != tt.yahoo {
			t.Errorf("YahooSymbol(%s) = %s, want %s", tt.code, got, tt.yahoo)
		}
	}
}

func TestYahoo_FetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/600489.SS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// 2024-03-14 and 2024-03-15 09:30 +08:00, plus a null bar.
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1710466200,1710379800,1710552600],
		"indicators":{"quote":[{"open":[10.18,10.25,null],"high":[10.6,10.4,null],"low":[10.15,10.12,null],
		"close":[10.52,10.18,null],"volume":[902345,611234,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL + "/"
	f.Now = fixedNow
	bars, err := f.FetchDailyBars(context.Background(), "600489", 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if !bars[0].Time.Equal(time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)) || bars[1].Close != 10.52 {
		t.Errorf("unexpected bars %+v", bars)
	}
}

type countingFetcher struct {
	MockFetcher
	calls int32
	delay time.Duration
}

func (c *countingFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.delay):
		}
	}
	return c.MockFetcher.FetchDailyBars(ctx, symbol, days)
}

func TestCollector_SortsAndCaches(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
	f := &countingFetcher{MockFetcher: MockFetcher{DailyData: []model.OHLCV{
		{Time: d(14), Close: 2}, {Time: d(12), Close: 1}, {Time: d(15), Close: 3},
	}}}
	c := NewCollector(f, cache.NewMemory(), time.Minute, time.Second, nil)
	ctx := context.Background()

	bars, err := c.Series(ctx, "600489", 100)
	if err != nil {
		t.Fatal(err)
	}
	if bars[0].Close != 1 || bars[2].Close != 3 {
		t.Errorf("bars not sorted: %+v", bars)
	}
	again, err := c.Series(ctx, "600489", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 3 || !again[1].Time.Equal(d(14)) {
		t.Errorf("unexpected cached bars %+v", again)
	}
	if f.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", f.calls)
	}
	if _, err := c.Series(ctx, "600489", 200); err != nil {
		t.Fatal(err)
	}
	if f.calls != 2 {
		t.Errorf("different days must use a different cache key, got %d fetches", f.calls)
	}
}

func TestCollector_Errors(t *testing.T) {
	ctx := context.Background()

	c := NewCollector(&MockFetcher{Err: errors.New("boom")}, nil, 0, 0, nil)
	if _, err := c.Series(ctx, "600489", 100); !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}

	c = NewCollector(&MockFetcher{DailyData: []model.OHLCV{}}, nil, 0, 0, nil)
	if _, err := c.Series(ctx, "600489", 100); !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable for empty series, got %v", err)
	}

	slow := &countingFetcher{delay: time.Second}
	c = NewCollector(slow, nil, 0, 20*time.Millisecond, nil)
	start := time.Now()
	if _, err := c.Series(ctx, "600489", 100); !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable on timeout, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("fetch timeout not enforced")
	}
}

// barsOnly has no live quote.
type barsOnly struct{ bars []model.OHLCV }

func (b barsOnly) Name() string { return "bars" }
func (b barsOnly) FetchDailyBars(context.Context, string, int) ([]model.OHLCV, error) {
	return b.bars, nil
}

func TestCollector_QuoteFallsBackToBars(t *testing.T) {
	bars := []model.OHLCV{
		{Time: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), Close: 10},
		{Time: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Close: 10.5},
	}
	c := NewCollector(barsOnly{bars}, nil, 0, 0, nil)
	q, err := c.Quote(context.Background(), "600489")
	if err != nil {
		t.Fatal(err)
	}
	if q.Price != 10.5 || q.PreClose != 10 || q.ChangePct != 5 {
		t.Errorf("unexpected quote %+v", q)
	}
}

func TestMockFetcher_GeneratesWeekdays(t *testing.T) {
	m := &MockFetcher{Price: 20, Now: fixedNow}
	bars, err := m.FetchDailyBars(context.Background(), "600489", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) < 60 || len(bars) > 75 {
		t.Errorf("expected about 70 weekdays in 100 calendar days, got %d", len(bars))
	}
	for _, b := range bars {
		if b.Time.Weekday() == time.Saturday || b.Time.Weekday() == time.Sunday {
			t.Fatalf("weekend bar %v", b.Time)
		}
	}
}

func TestNewFetcher(t *testing.T) {
	for provider, name := range map[string]string{"": "eastmoney", "eastmoney": "eastmoney", "yahoo": "yahoo", "mock": "mock"} {
		f, err := NewFetcher(provider, "", nil)
		if err != nil || f.Name() != name {
			t.Errorf("NewFetcher(%q) = %v, %v", provider, f, err)
		}
	}
	if _, err := NewFetcher("tushare", "", nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
