package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/notifier"
	"CryptoAdvisor/internal/portfolio"
)

type fakeSignals struct {
	signals []model.TradeSignal
	at      time.Time
	ticks   []model.PriceTick
	fg      *model.FearGreed
	sum     model.NotificationSummary
	err     error
}

func (f *fakeSignals) Latest() ([]model.TradeSignal, time.Time)      { return f.signals, f.at }
func (f *fakeSignals) Market() ([]model.PriceTick, *model.FearGreed) { return f.ticks, f.fg }
func (f *fakeSignals) Summary(context.Context) (model.NotificationSummary, error) {
	return f.sum, f.err
}

type fakePortfolio struct {
	holdings  []model.Holding
	alerts    []model.TradeSignal
	settings  model.NotificationSettings
	updateErr error
}

func (f *fakePortfolio) Holdings() []model.Holding            { return f.holdings }
func (f *fakePortfolio) Alerts() []model.TradeSignal          { return f.alerts }
func (f *fakePortfolio) Settings() model.NotificationSettings { return f.settings }
func (f *fakePortfolio) UpdateSettings(s model.NotificationSettings) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.settings = s
	return nil
}

type fakeHistory struct {
	signals []model.TradeSignal
	limit   int
	err     error
}

func (f *fakeHistory) RecentSignals(limit int) ([]model.TradeSignal, error) {
	f.limit = limit
	return f.signals, f.err
}

type fakeDeliverer struct {
	alerts []notifier.Alert
	dests  []string
	err    error
}

func (f *fakeDeliverer) Deliver(_ context.Context, a notifier.Alert, dest string) error {
	f.alerts = append(f.alerts, a)
	f.dests = append(f.dests, dest)
	return f.err
}

func newTestServer(sig *fakeSignals, pf *fakePortfolio, d *fakeDeliverer) *Server {
	return newTestServerWithHistory(sig, pf, &fakeHistory{}, d)
}

func newTestServerWithHistory(sig *fakeSignals, pf *fakePortfolio, hist *fakeHistory, d *fakeDeliverer) *Server {
	gin.SetMode(gin.TestMode)
	s := NewServer(":0", nil, sig, pf, hist, d)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeSignals{}, &fakePortfolio{}, &fakeDeliverer{})
	w := do(t, s, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"ok","timestamp":"2026-01-02T03:04:05Z"}`, w.Body.String())
}

func TestSignals(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	sig := &fakeSignals{
		signals: []model.TradeSignal{{Symbol: "BTC", Action: model.ActionBuy, Score: 80, Primary: true}},
		at:      at,
		ticks:   []model.PriceTick{{Symbol: "BTC", Price: 15000000}},
		fg:      &model.FearGreed{Value: 18, Classification: "Extreme Fear"},
	}
	s := newTestServer(sig, &fakePortfolio{}, &fakeDeliverer{})
	w := do(t, s, http.MethodGet, "/api/signals", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp signalsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Signals, 1)
	assert.Equal(t, "BTC", resp.Signals[0].Symbol)
	assert.Equal(t, model.ActionBuy, resp.Signals[0].Action)
	require.Len(t, resp.Prices, 1)
	require.NotNil(t, resp.FearGreed)
	assert.Equal(t, 18, resp.FearGreed.Value)
	require.NotNil(t, resp.LastRun)
	assert.True(t, at.Equal(*resp.LastRun))
}

func TestSignalsBeforeFirstPass(t *testing.T) {
	s := newTestServer(&fakeSignals{}, &fakePortfolio{}, &fakeDeliverer{})
	w := do(t, s, http.MethodGet, "/api/signals", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"signals":[],"prices":[],"fearGreed":null,"lastRun":null}`, w.Body.String())
}

func TestHoldingsAndAlerts(t *testing.T) {
	pf := &fakePortfolio{
		holdings: []model.Holding{{ID: "h1", Symbol: "ETH", Amount: 1, PurchasePrice: 400000}},
	}
	s := newTestServer(&fakeSignals{}, pf, &fakeDeliverer{})

	w := do(t, s, http.MethodGet, "/api/holdings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var holdings struct {
		Holdings []model.Holding `json:"holdings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &holdings))
	require.Len(t, holdings.Holdings, 1)
	assert.Equal(t, "h1", holdings.Holdings[0].ID)

	w = do(t, s, http.MethodGet, "/api/alerts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"alerts":[]}`, w.Body.String())
}

func TestNotificationSummary(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		sig := &fakeSignals{sum: model.NotificationSummary{
			TotalCount: 2,
			ByType:     map[model.NotificationType]int{model.NotifyBuy: 2},
		}}
		s := newTestServer(sig, &fakePortfolio{}, &fakeDeliverer{})
		w := do(t, s, http.MethodGet, "/api/notifications/summary", "")

		require.Equal(t, http.StatusOK, w.Code)
		var sum model.NotificationSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
		assert.Equal(t, 2, sum.TotalCount)
		assert.Equal(t, 2, sum.ByType[model.NotifyBuy])
	})

	t.Run("store error", func(t *testing.T) {
		s := newTestServer(&fakeSignals{err: errors.New("redis down")}, &fakePortfolio{}, &fakeDeliverer{})
		w := do(t, s, http.MethodGet, "/api/notifications/summary", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "redis down")
	})
}

func TestDataStore(t *testing.T) {
	s := newTestServer(&fakeSignals{}, &fakePortfolio{}, &fakeDeliverer{})

	w := do(t, s, http.MethodGet, "/api/data/layout", "")
	assert.JSONEq(t, `{"data":null}`, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/data/layout", `{"data":{"cols":3}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = do(t, s, http.MethodGet, "/api/data/layout", "")
	assert.JSONEq(t, `{"data":{"cols":3}}`, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/data/layout", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestWebhook(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		deliverErr error
		wantStatus int
		wantSent   bool
	}{
		{name: "delivered", body: `{"webhookUrl":"https://discord.com/api/webhooks/1"}`, wantStatus: http.StatusOK, wantSent: true},
		{name: "missing url", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "delivery fails", body: `{"webhookUrl":"https://hooks.slack.com/x"}`, deliverErr: errors.New("status 404"), wantStatus: http.StatusBadGateway, wantSent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDeliverer{err: tt.deliverErr}
			s := newTestServer(&fakeSignals{}, &fakePortfolio{}, d)
			w := do(t, s, http.MethodPost, "/api/test-webhook", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if !tt.wantSent {
				assert.Empty(t, d.alerts)
				return
			}
			require.Len(t, d.alerts, 1)
			assert.Equal(t, notifier.KindTest, d.alerts[0].Kind)
			assert.Contains(t, d.alerts[0].Title, "Test notification #")
		})
	}
}

func TestTestWebhookIDsDiffer(t *testing.T) {
	d := &fakeDeliverer{}
	s := newTestServer(&fakeSignals{}, &fakePortfolio{}, d)
	do(t, s, http.MethodPost, "/api/test-webhook", `{"webhookUrl":"https://example.com/hook"}`)
	do(t, s, http.MethodPost, "/api/test-webhook", `{"webhookUrl":"https://example.com/hook"}`)

	require.Len(t, d.alerts, 2)
	assert.NotEqual(t, d.alerts[0].Title, d.alerts[1].Title)
}

func TestSendWebhook(t *testing.T) {
	d := &fakeDeliverer{}
	s := newTestServer(&fakeSignals{}, &fakePortfolio{}, d)

	w := do(t, s, http.MethodPost, "/api/send-webhook", `{"webhookUrl":"https://example.com/hook","message":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, d.alerts, 1)
	assert.Equal(t, "hello", d.alerts[0].Title)
	assert.Equal(t, notifier.KindMessage, d.alerts[0].Kind)
	assert.Equal(t, "https://example.com/hook", d.dests[0])

	w = do(t, s, http.MethodPost, "/api/send-webhook", `{"webhookUrl":"https://example.com/hook"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSRestrictedOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(":0", []string{"http://localhost:5173"}, &fakeSignals{}, &fakePortfolio{}, &fakeHistory{}, &fakeDeliverer{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSignalHistory(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		hist       *fakeHistory
		wantStatus int
		wantLimit  int
	}{
		{name: "default limit", hist: &fakeHistory{signals: []model.TradeSignal{{Symbol: "BTC"}}}, wantStatus: http.StatusOK, wantLimit: defaultHistoryLimit},
		{name: "explicit limit", query: "?limit=5", hist: &fakeHistory{}, wantStatus: http.StatusOK, wantLimit: 5},
		{name: "limit capped", query: "?limit=100000", hist: &fakeHistory{}, wantStatus: http.StatusOK, wantLimit: maxHistoryLimit},
		{name: "bad limit", query: "?limit=abc", hist: &fakeHistory{}, wantStatus: http.StatusBadRequest},
		{name: "store error", hist: &fakeHistory{err: errors.New("db closed")}, wantStatus: http.StatusInternalServerError, wantLimit: defaultHistoryLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServerWithHistory(&fakeSignals{}, &fakePortfolio{}, tt.hist, &fakeDeliverer{})
			w := do(t, s, http.MethodGet, "/api/signals/history"+tt.query, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantLimit, tt.hist.limit)
			if tt.wantStatus == http.StatusOK {
				var body struct {
					Signals []model.TradeSignal `json:"signals"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Len(t, body.Signals, len(tt.hist.signals))
			}
		})
	}
}

func TestSettings(t *testing.T) {
	pf := &fakePortfolio{settings: model.DefaultNotificationSettings()}
	s := newTestServer(&fakeSignals{}, pf, &fakeDeliverer{})

	w := do(t, s, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got model.NotificationSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, model.DefaultNotificationSettings(), got)

	body := `{"enabled":true,"buySignals":false,"sellSignals":true,"priceAlerts":true,"profitTargets":[25],"lossLimits":[5,15]}`
	w = do(t, s, http.MethodPut, "/api/settings", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, pf.settings.BuySignals)
	assert.Equal(t, []float64{25}, pf.settings.ProfitTargets)
	assert.Equal(t, []float64{5, 15}, pf.settings.LossLimits)

	w = do(t, s, http.MethodPut, "/api/settings", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pf.updateErr = portfolio.ErrInvalidSettings
	w = do(t, s, http.MethodPut, "/api/settings", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pf.updateErr = errors.New("disk full")
	w = do(t, s, http.MethodPut, "/api/settings", body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
