package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SignalSentinel/internal/backtest"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/monitor"
)

func sampleResult(call model.Call) *model.AggregateResult {
	return &model.AggregateResult{
		Symbol:      "600489",
		Name:        "中金黄金",
		Timestamp:   time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC),
		Price:       10.52,
		ChangePct:   3.34,
		BuySignals:  4,
		SellSignals: 1,
		FinalCall:   call,
		SignalCount: 4,
		Indicators: &model.Snapshot{
			MACD: model.MACDReading{DIF: model.Defined(0.12), DEA: model.Defined(0.08), Signal: model.SignalGoldenCross},
			RSI:  model.RSIReading{Signal: model.SignalUndefined},
		},
	}
}

func newTestTelegram(url string) *TelegramNotifier {
	tn := NewTelegramNotifier("TOKEN", "42", "", nil)
	tn.BaseURL = url
	tn.Backoff = time.Millisecond
	return tn
}

func TestTelegram_Send(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := newTestTelegram(srv.URL).Notify(context.Background(), sampleResult(model.CallBuy)); err != nil {
		t.Fatal(err)
	}
	if payload["chat_id"] != "42" || payload["parse_mode"] != "HTML" {
		t.Errorf("unexpected payload %v", payload)
	}
	if !strings.Contains(payload["text"], "买入信号") || !strings.Contains(payload["text"], "4个买入信号, 1个卖出信号") {
		t.Errorf("unexpected text %q", payload["text"])
	}
}

func TestTelegram_SendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := newTestTelegram(srv.URL)
	if err := tn.SendWithRetry(context.Background(), "hi", 3); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	atomic.StoreInt32(&calls, -10)
	if err := tn.SendWithRetry(context.Background(), "hi", 1); err == nil {
		t.Error("expected error after retries exhausted")
	}
}

func TestTelegram_PollingRoutesCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var polled int32
	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&polled, 1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /ping "}}]}`))
				return
			}
			if r.URL.Query().Get("offset") != "8" {
				t.Errorf("expected offset 8, got %s", r.URL.Query().Get("offset"))
			}
			<-r.Context().Done()
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			replies <- p["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := newTestTelegram(srv.URL)
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string { return "pong:" + cmd })
		close(done)
	}()

	select {
	case got := <-replies:
		if got != "pong:/ping" {
			t.Errorf("unexpected reply %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestWebhook(t *testing.T) {
	var got struct {
		Type string                `json:"type"`
		Data model.AggregateResult `json:"data"`
	}
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("expected JSON content type")
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(srv.URL)
	if err := wh.Notify(context.Background(), sampleResult(model.CallSell)); err != nil {
		t.Fatal(err)
	}
	if got.Type != "signal" || got.Data.FinalCall != model.CallSell || got.Data.Symbol != "600489" {
		t.Errorf("unexpected payload %+v", got)
	}

	status = http.StatusInternalServerError
	if err := wh.Notify(context.Background(), sampleResult(model.CallSell)); err == nil {
		t.Error("expected error on non-2xx")
	}
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subj string, data []byte) error {
	f.subject, f.data = subj, data
	return f.err
}

func TestNATSNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATSNotifier(pub, "")
	if err := n.Notify(context.Background(), sampleResult(model.CallBuy)); err != nil {
		t.Fatal(err)
	}
	if pub.subject != "sentinel.signals.600489" {
		t.Errorf("unexpected subject %s", pub.subject)
	}
	var res model.AggregateResult
	if err := json.Unmarshal(pub.data, &res); err != nil || res.FinalCall != model.CallBuy {
		t.Errorf("unexpected message %s (%v)", pub.data, err)
	}

	pub.err = errors.New("closed")
	if err := n.Notify(context.Background(), sampleResult(model.CallBuy)); err == nil {
		t.Error("expected publish error")
	}
}

type fakeWatcher struct {
	mu       sync.Mutex
	symbol   string
	name     string
	evalErr  error
	alerts   []model.Alert
	switched []string
}

func (w *fakeWatcher) EvaluateNow(context.Context) (*model.AggregateResult, error) {
	if w.evalErr != nil {
		return nil, w.evalErr
	}
	return sampleResult(model.CallHold), nil
}

func (w *fakeWatcher) RecentAlerts(context.Context, int) ([]model.Alert, error) {
	return w.alerts, nil
}

func (w *fakeWatcher) SwitchSymbol(code, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.symbol, w.name = code, name
	w.switched = append(w.switched, code)
}

func (w *fakeWatcher) State() monitor.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return monitor.State{Symbol: w.symbol, Name: w.name}
}

type fakeBacktester struct {
	req backtest.Request
	err error
}

func (b *fakeBacktester) Run(_ context.Context, req backtest.Request) (*model.BacktestSummary, error) {
	b.req = req
	if b.err != nil {
		return nil, b.err
	}
	return &model.BacktestSummary{Symbol: req.Symbol, Indicators: req.Indicators, HoldDays: 5, TotalSignals: 3, WinRate: 66.67}, nil
}

func TestCommandRouter(t *testing.T) {
	w := &fakeWatcher{symbol: "600489", alerts: []model.Alert{
		{Symbol: "600489", Call: model.CallBuy, SignalCount: 4, Price: 10.5, Timestamp: time.Now()},
	}}
	bt := &fakeBacktester{}
	r := NewCommandRouter(w, bt, nil)
	ctx := context.Background()

	tests := []struct {
		cmd  string
		want string
	}{
		{"/signal", "观望"},
		{"/signal@sentinel_bot", "观望"},
		{"/alerts", "BUY ×4 @ 10.50"},
		{"/backtest macd,kdj 10", "胜率: 66.67%"},
		{"/backtest", "用法"},
		{"/backtest macd x", "持有天数无效"},
		{"hello", "可用命令"},
		{"", "可用命令"},
	}
	for _, tt := range tests {
		if got := r.Handle(ctx, tt.cmd); !strings.Contains(got, tt.want) {
			t.Errorf("%q: expected reply containing %q, got %q", tt.cmd, tt.want, got)
		}
	}
	if bt.req.Symbol != "600489" || bt.req.HoldDays != 10 || len(bt.req.Indicators) != 2 {
		t.Errorf("unexpected backtest request %+v", bt.req)
	}

	if got := r.Handle(ctx, "/switch 000001 平安银行"); !strings.Contains(got, "000001") {
		t.Errorf("unexpected switch reply %q", got)
	}
	if st := w.State(); st.Symbol != "000001" || st.Name != "平安银行" {
		t.Errorf("switch not applied: %+v", st)
	}

	w.evalErr = model.ErrDataUnavailable
	if got := r.Handle(ctx, "/signal"); !strings.Contains(got, "计算失败") {
		t.Errorf("expected failure reply, got %q", got)
	}
}

func TestFormatters(t *testing.T) {
	msg := FormatAlert(sampleResult(model.CallBuy))
	for _, want := range []string{"600489", "10.52 (+3.34%)", "MACD: 金叉 (DIF 0.12, DEA 0.08)", "RSI: 无数据 (-)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("alert missing %q:\n%s", want, msg)
		}
	}
	if got := FormatAlerts("600489", nil); !strings.Contains(got, "暂无") {
		t.Errorf("unexpected empty alerts text %q", got)
	}
	bt := FormatBacktest(&model.BacktestSummary{Symbol: "600489", Indicators: []string{"macd", "kdj"}, AvgReturn: -1.5})
	if !strings.Contains(bt, "macd+kdj") || !strings.Contains(bt, "-1.50%") {
		t.Errorf("unexpected backtest text %q", bt)
	}
}

