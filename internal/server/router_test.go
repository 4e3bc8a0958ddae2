package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/STTM-NSU/portfolio-alerts/internal/dashboard"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/STTM-NSU/portfolio-alerts/internal/rules"
	"github.com/STTM-NSU/portfolio-alerts/internal/setalg"
	"github.com/STTM-NSU/portfolio-alerts/internal/source"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (http.Handler, *rules.MemoryStore) {
	t.Helper()

	sources := []source.Source{
		source.NewStaticSource("AngelOne", []map[string]any{
			{"symbol": "AAA", "qty": 10, "avg_price": 100, "ltp": 90},
			{"symbol": "COM", "qty": 5, "avg_price": 200, "ltp": 220},
		}),
		source.NewStaticSource("Zerodha", []map[string]any{
			{"symbol": "COM", "qty": 1, "avg_price": 200, "ltp": 190},
		}),
	}
	store := rules.NewMemoryStore()
	nop := logger.NewNopLogger()
	d := dashboard.NewService(sources, store, 0, nop)

	return NewHandler(d, store, nop).Router(), store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_Healthz(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRouter_Portfolios(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/v1/portfolios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]dashboard.PortfolioSummary](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, "AngelOne", got[0].Name)
	assert.Equal(t, 2000.0, got[0].TotalInvested)
}

func TestRouter_Holdings(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/v1/portfolios/AngelOne/holdings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]model.Holding](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, -100.0, got[0].PnLAbs)

	rec = do(t, h, http.MethodGet, "/api/v1/portfolios/Groww/holdings", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown portfolio")
}

func TestRouter_HoldingsCSV(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/v1/portfolios/Zerodha/holdings?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Zerodha_holdings.csv")
	assert.Equal(t,
		"instrument,quantity,avg_price,last_price,invested,pnl_abs,pnl_pct\n"+
			"COM,1,200.00,190.00,200.00,-10.00,-5.00\n",
		rec.Body.String())
}

func TestRouter_HighlightsCompareStocks(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/v1/portfolios/AngelOne/highlights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	hl := decode[model.Highlights](t, rec)
	assert.Len(t, hl.TopCapital, 2)

	rec = do(t, h, http.MethodGet, "/api/v1/compare", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cmp := decode[setalg.Result](t, rec)
	assert.Equal(t, []string{"COM"}, cmp.Common)
	assert.Equal(t, []string{"AAA"}, cmp.Unique["AngelOne"])
	assert.Empty(t, cmp.Unique["Zerodha"])

	rec = do(t, h, http.MethodGet, "/api/v1/stocks?portfolio=AngelOne&portfolio=Zerodha", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stocks := decode[[]model.StockRow](t, rec)
	require.Len(t, stocks, 1)
	assert.Equal(t, 2.5, stocks[0].AvgPnLPct)

	rec = do(t, h, http.MethodGet, "/api/v1/stocks?portfolio=Groww", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RulesAndAlerts(t *testing.T) {
	h, store := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/v1/rules", `{
		"scope": "Unique",
		"direction": "Loss",
		"pl_comparator": "Greater Than",
		"pl_from": 5,
		"inv_comparator": "Greater Than",
		"inv_from": 0,
		"message": "review"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[model.Rule](t, rec)
	assert.Equal(t, int64(1), created.ID)

	rec = do(t, h, http.MethodGet, "/api/v1/alerts?portfolio=AngelOne", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []model.Alert{
		{Instrument: "AAA", Portfolio: "AngelOne", Rule: "Rule 1", Message: "review"},
	}, decode[[]model.Alert](t, rec))

	created.Name = "losers"
	body, err := sonic.MarshalString(created)
	require.NoError(t, err)
	rec = do(t, h, http.MethodPut, "/api/v1/rules/1", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/alerts?rule=losers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Alert](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/api/v1/rules/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "losers", decode[model.Rule](t, rec).Name)

	rec = do(t, h, http.MethodDelete, "/api/v1/rules/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/rules/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err = store.Add(context.Background(), model.Rule{Name: "draft"})
	require.NoError(t, err)
	rec = do(t, h, http.MethodDelete, "/api/v1/rules", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRouter_BadRequests(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{name: "malformed json", method: http.MethodPost, target: "/api/v1/rules", body: `{"name":`, code: http.StatusBadRequest},
		{name: "unknown field", method: http.MethodPost, target: "/api/v1/rules", body: `{"colour":"red"}`, code: http.StatusBadRequest},
		{name: "empty body", method: http.MethodPost, target: "/api/v1/rules", code: http.StatusBadRequest},
		{name: "bad id", method: http.MethodGet, target: "/api/v1/rules/abc", code: http.StatusBadRequest},
		{name: "save missing", method: http.MethodPut, target: "/api/v1/rules/42", body: `{"name":"x"}`, code: http.StatusNotFound},
		{name: "delete missing", method: http.MethodDelete, target: "/api/v1/rules/42", code: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRouter_Refresh(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/api/v1/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"AngelOne", "Zerodha"}, decode[refreshResponse](t, rec).Portfolios)
}

type failingDashboard struct{ Dashboard }

func (failingDashboard) Portfolios(context.Context) ([]dashboard.PortfolioSummary, error) {
	return nil, errors.New("boom")
}

func TestRouter_InternalError(t *testing.T) {
	h := NewHandler(failingDashboard{}, rules.NewMemoryStore(), logger.NewNopLogger()).Router()

	rec := do(t, h, http.MethodGet, "/api/v1/portfolios", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, `{"error":"boom"}`, rec.Body.String())
}
