package server

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/STTM-NSU/portfolio-alerts/internal/dashboard"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/model"
	"github.com/STTM-NSU/portfolio-alerts/internal/rules"
	"github.com/STTM-NSU/portfolio-alerts/internal/setalg"
	"github.com/STTM-NSU/portfolio-alerts/internal/tools"
	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Dashboard interface {
	Refresh(ctx context.Context) (dashboard.Snapshot, error)
	Portfolios(ctx context.Context) ([]dashboard.PortfolioSummary, error)
	Holdings(ctx context.Context, name string) ([]model.Holding, error)
	Highlights(ctx context.Context, name string) (model.Highlights, error)
	Compare(ctx context.Context) (setalg.Result, error)
	Stocks(ctx context.Context, filter []string) ([]model.StockRow, error)
	Alerts(ctx context.Context, filter dashboard.AlertFilter) ([]model.Alert, error)
}

var _decoder = sonic.Config{DisallowUnknownFields: true}.Froze()

type Handler struct {
	dashboard Dashboard
	rules     rules.Store
	logger    logger.Logger
}

func NewHandler(d Dashboard, store rules.Store, logger logger.Logger) *Handler {
	return &Handler{dashboard: d, rules: store, logger: logger}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/portfolios", h.handleListPortfolios)
		r.Get("/portfolios/{name}/holdings", h.handleHoldings)
		r.Get("/portfolios/{name}/highlights", h.handleHighlights)
		r.Get("/compare", h.handleCompare)
		r.Get("/stocks", h.handleStocks)
		r.Get("/alerts", h.handleAlerts)
		r.Post("/refresh", h.handleRefresh)

		r.Get("/rules", h.handleListRules)
		r.Post("/rules", h.handleCreateRule)
		r.Delete("/rules", h.handleResetRules)
		r.Get("/rules/{id}", h.handleGetRule)
		r.Put("/rules/{id}", h.handleSaveRule)
		r.Delete("/rules/{id}", h.handleDeleteRule)
	})

	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debugf("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(), time.Since(start),
			middleware.GetReqID(r.Context()))
	})
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"can't encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

// writeFailure maps domain errors to status codes.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rules.NotFoundError), errors.Is(err, dashboard.UnknownPortfolioError):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Errorf("%s: request failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSONBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("empty request body")
	}
	return _decoder.Unmarshal(body, dst)
}

func parseIDParam(r *http.Request) (int64, error) {
	value := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid rule id %q", value)
	}
	return id, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (h *Handler) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.dashboard.Portfolios(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(summaries))
}

var _holdingsHeader = []string{"instrument", "quantity", "avg_price", "last_price", "invested", "pnl_abs", "pnl_pct"}

func (h *Handler) handleHoldings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	holdings, err := h.dashboard.Holdings(r.Context(), name)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		writeJSON(w, http.StatusOK, orEmpty(holdings))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"_holdings.csv"))
	cw := csv.NewWriter(w)
	_ = cw.Write(_holdingsHeader)
	for _, hl := range holdings {
		_ = cw.Write([]string{
			hl.Instrument,
			strconv.FormatFloat(hl.Quantity, 'f', -1, 64),
			tools.FormatFixed(hl.AvgPrice, 2),
			tools.FormatFixed(hl.LastPrice, 2),
			tools.FormatFixed(hl.Invested, 2),
			tools.FormatFixed(hl.PnLAbs, 2),
			tools.FormatFixed(hl.PnLPct, 2),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Errorf("%s: can't write holdings csv", err)
	}
}

func (h *Handler) handleHighlights(w http.ResponseWriter, r *http.Request) {
	hl, err := h.dashboard.Highlights(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hl)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	res, err := h.dashboard.Compare(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	res.Common = orEmpty(res.Common)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleStocks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.dashboard.Stocks(r.Context(), r.URL.Query()["portfolio"])
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(rows))
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.dashboard.Alerts(r.Context(), dashboard.AlertFilter{
		Portfolio: q.Get("portfolio"),
		Rule:      q.Get("rule"),
	})
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

type refreshResponse struct {
	Portfolios []string  `json:"portfolios"`
	FetchedAt  time.Time `json:"fetched_at"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dashboard.Refresh(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Portfolios: orEmpty(snap.Portfolios.Names()),
		FetchedAt:  snap.FetchedAt,
	})
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	list, err := h.rules.List(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule model.Rule
	if err := decodeJSONBody(r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.rules.Add(r.Context(), rule)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleResetRules(w http.ResponseWriter, r *http.Request) {
	if err := h.rules.Reset(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := h.rules.Get(r.Context(), id)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleSaveRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rule model.Rule
	if err := decodeJSONBody(r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule.ID = id

	if err := h.rules.Save(r.Context(), rule); err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.rules.Delete(r.Context(), id); err != nil {
		h.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
