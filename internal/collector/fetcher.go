package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"SignalSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
//
// days is a calendar lookback: the fetcher returns the daily bars dated within
// the last days calendar days, so non-trading days yield fewer bars.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// Quoter is implemented by fetchers that can return a live quote.
type Quoter interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// newHTTPClient builds a client that optionally routes through proxyURL.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// IsShanghai reports whether an A-share code is listed in Shanghai.
func IsShanghai(code string) bool {
	return code != "" && (code[0] == '6' || code[0] == '5' || code[0] == '9')
}

// startDate is the first calendar day covered by a lookback of days ending at now.
func startDate(now time.Time, days int) time.Time {
	y, m, d := now.AddDate(0, 0, -days).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewFetcher builds the fetcher named by provider: eastmoney, yahoo or mock.
func NewFetcher(provider, proxyURL string, logger *zap.Logger) (Fetcher, error) {
	switch provider {
	case "", "eastmoney":
		return NewEastMoneyFetcher(proxyURL, logger), nil
	case "yahoo":
		return NewYahooFetcher(proxyURL), nil
	case "mock":
		return &MockFetcher{Price: 20}, nil
	}
	return nil, fmt.Errorf("unknown data provider %q", provider)
}
