// Package http exposes the reporting and order API over HTTP.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/service"
)

// Handler handles HTTP requests for the application.
type Handler struct {
	orderSvc     *service.OrderService
	analyticsSvc *service.AnalyticsService
	forecastSvc  *service.ForecastService
}

func NewHandler(
	orderSvc *service.OrderService,
	analyticsSvc *service.AnalyticsService,
	forecastSvc *service.ForecastService,
) *Handler {
	return &Handler{
		orderSvc:     orderSvc,
		analyticsSvc: analyticsSvc,
		forecastSvc:  forecastSvc,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleGetProducts)
	mux.HandleFunc("POST /api/sales", h.handleCreateSale)
	mux.HandleFunc("GET /api/sales", h.handleGetSales)
	mux.HandleFunc("GET /api/analytics/summary", h.handleSummary)
	mux.HandleFunc("GET /api/analytics/revenue/daily", h.handleRevenueByDay)
	mux.HandleFunc("GET /api/analytics/revenue/monthly", h.handleRevenueByMonth)
	mux.HandleFunc("GET /api/analytics/revenue/yearly", h.handleRevenueByYear)
	mux.HandleFunc("GET /api/analytics/forecast", h.handleForecast)
	mux.HandleFunc("GET /api/analytics/top-products", h.handleTopProducts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, entity.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, entity.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		slog.Error("Request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func (h *Handler) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.orderSvc.GetProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type createSaleRequest struct {
	ProductID string `json:"product_id"`
	StaffID   string `json:"staff_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sale, err := h.orderSvc.RecordSale(r.Context(), req.ProductID, req.StaffID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleGetSales(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 50)
	sales, err := h.orderSvc.GetRecentSales(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analyticsSvc.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleRevenueByDay(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be YYYY-MM-DD"})
		return
	}
	days := intQuery(r, "days", 30)

	series, err := h.analyticsSvc.RevenueByDay(r.Context(), start, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *Handler) handleRevenueByMonth(w http.ResponseWriter, r *http.Request) {
	year := intQuery(r, "year", time.Now().UTC().Year())
	series, err := h.analyticsSvc.RevenueByMonth(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *Handler) handleRevenueByYear(w http.ResponseWriter, r *http.Request) {
	years := intQuery(r, "years", 5)
	series, err := h.analyticsSvc.RevenueByYear(r.Context(), years)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (h *Handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 7)
	forecasts, err := h.forecastSvc.ForecastNextDays(r.Context(), days)
	if errors.Is(err, entity.ErrInsufficientData) {
		// Thin history is a normal outcome for the dashboard, not a failure.
		writeJSON(w, http.StatusOK, map[string]any{
			"forecasts": []entity.ForecastPoint{},
			"message":   "not enough sales history to forecast",
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forecasts": forecasts})
}

func (h *Handler) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 10)
	top, err := h.analyticsSvc.TopProducts(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// EnableCORS is a middleware to allow the dashboard frontend to connect.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
