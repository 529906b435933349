package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"SignalSentinel/internal/model"
)

const (
	EastMoneyKLineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	EastMoneyQuoteURL = "https://push2.eastmoney.com/api/qt/stock/get"

	eastMoneyRetries    = 3
	eastMoneyRetryDelay = 500 * time.Millisecond
	eastMoneyDelay429   = 5 * time.Second

	// f51 date, f52 open, f53 close, f54 high, f55 low, f56 volume, f57 amount
	klineFields = "f51,f52,f53,f54,f55,f56,f57"
	// f43 price, f44 high, f45 low, f46 open, f47 volume, f48 amount,
	// f57 code, f58 name, f60 previous close, f170 change percent
	quoteFields = "f43,f44,f45,f46,f47,f48,f57,f58,f60,f170"

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer        = "https://quote.eastmoney.com/"
	acceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
)

// EastMoneyFetcher reads forward-adjusted daily klines and live quotes from
// the EastMoney public API.
type EastMoneyFetcher struct {
	KLineURL string
	QuoteURL string
	Client   *http.Client
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewEastMoneyFetcher creates a fetcher with optional proxy support.
func NewEastMoneyFetcher(proxyURL string, logger *zap.Logger) *EastMoneyFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EastMoneyFetcher{
		KLineURL: EastMoneyKLineURL,
		QuoteURL: EastMoneyQuoteURL,
		Client:   newHTTPClient(proxyURL, 10*time.Second),
		Logger:   logger.With(zap.String("component", "eastmoney")),
		Now:      time.Now,
	}
}

func (f *EastMoneyFetcher) Name() string { return "eastmoney" }

// SecID converts a six-digit code to EastMoney's market-prefixed id:
// 1.xxxxxx for Shanghai, 0.xxxxxx for Shenzhen and Beijing.
func SecID(code string) string {
	code = strings.TrimSpace(code)
	if IsShanghai(code) {
		return "1." + code
	}
	return "0." + code
}

func (f *EastMoneyFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	if symbol == "" || days <= 0 {
		return nil, errors.New("eastmoney: invalid symbol or days")
	}
	now := f.Now()
	q := url.Values{}
	q.Set("secid", SecID(symbol))
	q.Set("fields1", "f1,f2,f3,f4,f5,f6")
	q.Set("fields2", klineFields)
	q.Set("klt", "101") // daily
	q.Set("fqt", "1")   // forward-adjusted
	q.Set("beg", startDate(now, days).Format("20060102"))
	q.Set("end", now.Format("20060102"))

	body, err := f.get(ctx, f.KLineURL+"?"+q.Encode())
	if err != nil {
		return nil, errors.Wrapf(err, "eastmoney klines %s", symbol)
	}
	return parseKlines(body, symbol)
}

func parseKlines(body []byte, symbol string) ([]model.OHLCV, error) {
	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || !klines.IsArray() {
		return nil, fmt.Errorf("eastmoney: no data.klines for %s", symbol)
	}
	arr := klines.Array()
	bars := make([]model.OHLCV, 0, len(arr))
	for _, v := range arr {
		parts := strings.Split(strings.TrimSpace(v.String()), ",")
		if len(parts) < 6 {
			continue
		}
		day, err := time.Parse("2006-01-02", parts[0])
		if err != nil {
			continue
		}
		bar := model.OHLCV{Time: day}
		bar.Open, _ = strconv.ParseFloat(parts[1], 64)
		bar.Close, _ = strconv.ParseFloat(parts[2], 64)
		bar.High, _ = strconv.ParseFloat(parts[3], 64)
		bar.Low, _ = strconv.ParseFloat(parts[4], 64)
		bar.Volume, _ = strconv.ParseFloat(parts[5], 64)
		if len(parts) > 6 {
			bar.Amount, _ = strconv.ParseFloat(parts[6], 64)
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("eastmoney: no klines for %s", symbol)
	}
	return bars, nil
}

// FetchQuote returns the live quote. fltt=2 makes prices plain decimals.
func (f *EastMoneyFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	q := url.Values{}
	q.Set("secid", SecID(symbol))
	q.Set("fltt", "2")
	q.Set("fields", quoteFields)
	body, err := f.get(ctx, f.QuoteURL+"?"+q.Encode())
	if err != nil {
		return nil, errors.Wrapf(err, "eastmoney quote %s", symbol)
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return nil, fmt.Errorf("eastmoney: no quote for %s", symbol)
	}
	return &model.Quote{
		Code:      symbol,
		Name:      data.Get("f58").String(),
		Price:     data.Get("f43").Float(),
		ChangePct: data.Get("f170").Float(),
		Volume:    data.Get("f47").Float(),
		Amount:    data.Get("f48").Float(),
		High:      data.Get("f44").Float(),
		Low:       data.Get("f45").Float(),
		Open:      data.Get("f46").Float(),
		PreClose:  data.Get("f60").Float(),
		Timestamp: f.Now(),
	}, nil
}

// get performs a GET with browser headers, retrying transport errors and
// non-200 responses. A 429 waits longer before the next attempt.
func (f *EastMoneyFetcher) get(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	var lastStatus int
	for attempt := 0; attempt < eastMoneyRetries; attempt++ {
		if attempt > 0 {
			backoff := eastMoneyRetryDelay
			if lastStatus == http.StatusTooManyRequests {
				backoff = eastMoneyDelay429
			}
			f.Logger.Warn("retrying request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Referer", referer)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Accept-Language", acceptLanguage)

		resp, err := f.Client.Do(req)
		if err != nil {
			lastErr = err
			lastStatus = 0
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			continue
		}
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}
	return nil, lastErr
}
