package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/go-retail-backoffice/internal/entity"
	"github.com/egannguyen/go-retail-backoffice/internal/repository"
	"github.com/egannguyen/go-retail-backoffice/internal/repository/memory"
	"github.com/egannguyen/go-retail-backoffice/internal/service"
)

type noopNotifier struct{}

func (noopNotifier) NotifySaleCreated(entity.Sale) {}

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	mem := memory.New(time.Second)
	ctx := context.Background()

	require.NoError(t, mem.Seed(ctx, []entity.Product{
		{ID: "p1", Name: "Beans", Price: 1000, Stock: 5},
	}))
	require.NoError(t, mem.StaffRepo().Seed(ctx, []entity.StaffRef{
		{ID: "staff-a", Username: "anna", Role: "staff"},
	}))

	handler := NewHandler(
		service.NewOrderService(mem, mem, mem, noopNotifier{}),
		service.NewAnalyticsService(mem),
		service.NewForecastService(mem),
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := httptest.NewServer(EnableCORS(mux))
	t.Cleanup(srv.Close)
	return srv, mem
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestCreateSale(t *testing.T) {
	srv, mem := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/sales",
		`{"product_id":"p1","staff_id":"staff-a","quantity":2}`)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sale entity.Sale
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sale))
	assert.Equal(t, int64(2000), sale.TotalAmount)

	p, err := mem.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestCreateSale_ErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"insufficient stock", `{"product_id":"p1","staff_id":"staff-a","quantity":99}`, http.StatusConflict},
		{"unknown product", `{"product_id":"ghost","staff_id":"staff-a","quantity":1}`, http.StatusNotFound},
		{"unknown staff", `{"product_id":"p1","staff_id":"ghost","quantity":1}`, http.StatusNotFound},
		{"zero quantity", `{"product_id":"p1","staff_id":"staff-a","quantity":0}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/sales", tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestRevenueByDayEndpoint(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()

	err := mem.InTx(ctx, func(tx repository.SaleTx) error {
		return tx.InsertSale(ctx, &entity.Sale{
			ID: "s1", ProductID: "p1", StaffID: "staff-a",
			Quantity: 1, TotalAmount: 1000,
			SoldAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		})
	})
	require.NoError(t, err)

	var series []entity.DailyRevenue
	resp := getJSON(t, srv.URL+"/api/analytics/revenue/daily?start=2024-01-01&days=3", &series)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, series, 3)
	assert.Equal(t, int64(1000), series[0].Revenue)
	assert.Equal(t, int64(0), series[1].Revenue)
}

func TestRevenueByDayEndpoint_BadStart(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := getJSON(t, srv.URL+"/api/analytics/revenue/daily?start=01-01-2024", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestForecastEndpoint_ThinHistoryIsNotAnError(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Forecasts []entity.ForecastPoint `json:"forecasts"`
		Message   string                 `json:"message"`
	}
	resp := getJSON(t, srv.URL+"/api/analytics/forecast", &body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body.Forecasts)
	assert.NotEmpty(t, body.Message)
}

func TestSummaryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var summary entity.Summary
	resp := getJSON(t, srv.URL+"/api/analytics/summary", &summary)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, summary.RevenueChangePct)
	assert.Zero(t, *summary.RevenueChangePct)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/sales", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
