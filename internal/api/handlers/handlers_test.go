package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/retailpulse/internal/contracts"
	"github.com/wonny/retailpulse/pkg/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type listData struct {
	RunID string            `json:"runId"`
	Count int               `json:"count"`
	Items []json.RawMessage `json:"items"`
}

func sampleRun() *contracts.RunResult {
	return &contracts.RunResult{
		RunID:         "run-1",
		ReferenceDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Metric:        contracts.MetricUnits,
		Quality: &contracts.QualityReport{
			CleanHeaders:    make([]contracts.TransactionHeader, 3),
			RejectedHeaders: make([]contracts.RejectedHeader, 1),
		},
		PromotionDaily: []contracts.PromotionDailyMetric{
			{PromotionID: "PR1", Period: contracts.PeriodPre},
			{PromotionID: "PR1", Period: contracts.PeriodDuring},
			{PromotionID: "PR2", Period: contracts.PeriodDuring},
		},
		TopProducts: []contracts.ProductSales{
			{ProductID: "P1", TotalSales: decimal.NewFromInt(300)},
			{ProductID: "P2", TotalSales: decimal.NewFromInt(200)},
			{ProductID: "P3", TotalSales: decimal.NewFromInt(100)},
		},
		Loyalty: []contracts.LoyaltyResult{
			{TransactionID: "T1", CustomerID: "C001", Earned: 20, NewBalance: 20},
			{TransactionID: "T2", CustomerID: "C002", Earned: 1, Redeemed: 1, NewBalance: 2000},
		},
		ClosingBalances: contracts.Balances{"C001": 20, "C002": 2000},
		Segments: []contracts.RFMRecord{
			{CustomerID: "C001", Segment: contracts.SegmentHighSpenders},
			{CustomerID: "C002", Segment: contracts.SegmentCore},
		},
		Events: []contracts.Event{
			{Type: contracts.EventTransaction, CustomerID: "C001"},
			{Type: contracts.EventCoinsEarned, CustomerID: "C001"},
			{Type: contracts.EventTransaction, CustomerID: "C002"},
		},
		Notifications: []contracts.Notification{
			{CustomerID: "C001", Template: contracts.TemplateVIPEarned},
			{CustomerID: "C002", Template: contracts.TemplateStandardEarned},
		},
		Inventory: []contracts.InventoryRiskRecord{
			{StoreID: "S1", ProductID: "P1", Risk: contracts.RiskCritical},
			{StoreID: "S2", ProductID: "P1", Risk: contracts.RiskSafe},
		},
		Stages: []contracts.StageResult{{Stage: contracts.StageQuality, InputCount: 4, OutputCount: 3}},
	}
}

func newTestRouter(store *ResultStore) *mux.Router {
	h := NewResultsHandler(store, logger.Nop())
	r := mux.NewRouter()
	r.HandleFunc("/run", h.GetRun)
	r.HandleFunc("/quality", h.GetQuality)
	r.HandleFunc("/promotions/daily", h.GetPromotionDaily)
	r.HandleFunc("/products/top", h.GetTopProducts)
	r.HandleFunc("/loyalty", h.GetLoyalty)
	r.HandleFunc("/segments", h.GetSegments)
	r.HandleFunc("/customers/{id}", h.GetCustomer)
	r.HandleFunc("/events", h.GetEvents)
	r.HandleFunc("/notifications", h.GetNotifications)
	r.HandleFunc("/inventory", h.GetInventory)
	r.HandleFunc("/inventory/regions", h.GetRegionRisk)
	return r
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func getList(t *testing.T, h http.Handler, target string) listData {
	t.Helper()
	rec, env := get(t, h, target)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, env.Success)

	var data listData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, data.Count, len(data.Items))
	return data
}

func TestResultsHandler_NoRunPublished(t *testing.T) {
	r := newTestRouter(NewResultStore())

	rec, env := get(t, r, "/segments")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestResultsHandler_Filters(t *testing.T) {
	store := NewResultStore()
	store.Publish(sampleRun())
	r := newTestRouter(store)

	tests := []struct {
		target string
		want   int
	}{
		{"/promotions/daily", 3},
		{"/promotions/daily?promotion_id=PR1", 2},
		{"/promotions/daily?promotion_id=PR1&period=during", 1},
		{"/loyalty?customer_id=C002", 1},
		{"/segments?segment=Core", 1},
		{"/segments?segment=At-Risk", 0},
		{"/events?type=transaction", 2},
		{"/events?type=transaction&customer_id=C001", 1},
		{"/notifications?template=VIP_Earned", 1},
		{"/inventory?risk=Critical", 1},
		{"/inventory?store_id=S2", 1},
		{"/inventory/regions", 0},
		{"/products/top?limit=2", 2},
		{"/products/top?limit=10", 3},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			data := getList(t, r, tt.target)
			assert.Equal(t, "run-1", data.RunID)
			assert.Equal(t, tt.want, data.Count)
		})
	}
}

func TestResultsHandler_InvalidLimit(t *testing.T) {
	store := NewResultStore()
	store.Publish(sampleRun())
	r := newTestRouter(store)

	rec, _ := get(t, r, "/products/top?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, r, "/products/top?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultsHandler_Run(t *testing.T) {
	store := NewResultStore()
	store.Publish(sampleRun())
	r := newTestRouter(store)

	rec, env := get(t, r, "/run")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary RunSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, "2026-06-01", summary.ReferenceDate)
	assert.Equal(t, 0.75, summary.CleanRate)
	assert.Equal(t, 2, summary.Counts["loyalty"])
	assert.Equal(t, 1, summary.Counts["rejectedHeaders"])
	assert.Len(t, summary.Stages, 1)
}

func TestResultsHandler_QualitySummary(t *testing.T) {
	store := NewResultStore()
	store.Publish(sampleRun())
	r := newTestRouter(store)

	rec, env := get(t, r, "/quality?view=summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, float64(3), data["cleanHeaders"])
	assert.Equal(t, float64(1), data["rejectedHeaders"])
}

func TestResultsHandler_Customer(t *testing.T) {
	store := NewResultStore()
	store.Publish(sampleRun())
	r := newTestRouter(store)

	rec, env := get(t, r, "/customers/C002")
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Balance int64                     `json:"balance"`
		RFM     contracts.RFMRecord       `json:"rfm"`
		Loyalty []contracts.LoyaltyResult `json:"loyalty"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(2000), data.Balance)
	assert.Equal(t, contracts.SegmentCore, data.RFM.Segment)
	assert.Len(t, data.Loyalty, 1)

	rec, _ = get(t, r, "/customers/C999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultStore_Publish(t *testing.T) {
	store := NewResultStore()
	_, ok := store.Latest()
	assert.False(t, ok)
	assert.True(t, store.PublishedAt().IsZero())

	run := sampleRun()
	store.Publish(run)

	got, ok := store.Latest()
	require.True(t, ok)
	assert.Same(t, run, got)
	assert.False(t, store.PublishedAt().IsZero())
}

type fakeRefresher struct {
	calls  int
	reload bool
	err    error
}

func (f *fakeRefresher) Refresh(ctx context.Context, reload bool) (*contracts.RunResult, error) {
	f.calls++
	f.reload = reload
	if f.err != nil {
		return nil, f.err
	}
	return sampleRun(), nil
}

func post(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	h(rec, req)
	return rec
}

func TestRefreshHandler_Refresh(t *testing.T) {
	f := &fakeRefresher{}
	h := NewRefreshHandler(f, 10, logger.Nop())

	rec := post(h.Refresh, "/refresh", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.calls)
	assert.False(t, f.reload)

	rec = post(h.Refresh, "/refresh", `{"reload": true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.reload)

	rec = post(h.Refresh, "/refresh?reload=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.reload)
}

func TestRefreshHandler_BadInput(t *testing.T) {
	f := &fakeRefresher{}
	h := NewRefreshHandler(f, 10, logger.Nop())

	assert.Equal(t, http.StatusBadRequest, post(h.Refresh, "/refresh", "{not json").Code)
	assert.Equal(t, http.StatusBadRequest, post(h.Refresh, "/refresh?reload=maybe", "").Code)
	assert.Equal(t, 0, f.calls)
}

func TestRefreshHandler_Errors(t *testing.T) {
	f := &fakeRefresher{err: &contracts.SchemaError{Table: contracts.TableStores, Missing: []string{"store_city"}}}
	h := NewRefreshHandler(f, 10, logger.Nop())
	assert.Equal(t, http.StatusUnprocessableEntity, post(h.Refresh, "/refresh", "").Code)

	f.err = errors.New("connection refused")
	assert.Equal(t, http.StatusInternalServerError, post(h.Refresh, "/refresh", "").Code)
}

func TestRefreshHandler_RateLimited(t *testing.T) {
	f := &fakeRefresher{}
	h := NewRefreshHandler(f, 1, logger.Nop())

	assert.Equal(t, http.StatusOK, post(h.Refresh, "/refresh", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(h.Refresh, "/refresh", "").Code)
	assert.Equal(t, 1, f.calls)
}
