package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/normalize"
)

// stubGateway lets each test script the gateway outcome.
type stubGateway struct {
	markets    []domain.Market
	market     domain.Market
	openInt    string
	summary    domain.TradeSummary
	report     normalize.Report
	err        error
	gotTradeID string
	gotLimit   int
}

func (s *stubGateway) FetchMarkets(ctx context.Context) ([]domain.Market, normalize.Report, error) {
	return s.markets, s.report, s.err
}

func (s *stubGateway) FetchMarketDetail(ctx context.Context, id string) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubGateway) FetchOpenInterest(ctx context.Context, id string) (string, error) {
	return s.openInt, s.err
}

func (s *stubGateway) FetchTrades(ctx context.Context, id string, limit int) (domain.TradeSummary, normalize.Report, error) {
	s.gotTradeID = id
	s.gotLimit = limit
	return s.summary, s.report, s.err
}

// newMarketMux routes requests the way the server does, so path parameters
// resolve.
func newMarketMux(g MarketGateway) *http.ServeMux {
	h := NewMarketHandler(g, slog.Default())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/markets", h.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", h.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/orders", h.GetMarketOrders)
	mux.HandleFunc("GET /api/markets/{id}/trades", h.GetMarketTrades)
	return mux
}

func doGet(t *testing.T, mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListMarkets(t *testing.T) {
	stub := &stubGateway{
		markets: []domain.Market{{ID: "m1", Question: "q"}},
		report:  normalize.Report{Dropped: []normalize.Drop{{Index: 3, Reason: "expired"}}},
	}
	rec := doGet(t, newMarketMux(stub), "/api/markets")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp listMarketsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Markets) != 1 {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Dropped) != 1 || resp.Dropped[0].Reason != "expired" {
		t.Errorf("dropped = %+v", resp.Dropped)
	}
}

func TestGetMarketTrades_LimitParam(t *testing.T) {
	stub := &stubGateway{summary: domain.TradeSummary{Volume: "0"}}
	mux := newMarketMux(stub)

	doGet(t, mux, "/api/markets/m1/trades?limit=25")
	if stub.gotTradeID != "m1" || stub.gotLimit != 25 {
		t.Errorf("gateway got id=%q limit=%d", stub.gotTradeID, stub.gotLimit)
	}

	doGet(t, mux, "/api/markets/m1/trades")
	if stub.gotLimit != 100 {
		t.Errorf("default limit = %d, want 100", stub.gotLimit)
	}

	doGet(t, mux, "/api/markets/m1/trades?limit=99999")
	if stub.gotLimit != 1000 {
		t.Errorf("capped limit = %d, want 1000", stub.gotLimit)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
		{"connection", domain.ErrConnection, http.StatusServiceUnavailable},
		{"decode", domain.ErrDecode, http.StatusInternalServerError},
		{"schema", domain.ErrSchema, http.StatusInternalServerError},
		{"upstream status forwarded", &domain.UpstreamError{Status: http.StatusBadGateway}, http.StatusBadGateway},
		{"wrapped sentinel", fmt.Errorf("gateway: fetch market m1: %w", domain.ErrRateLimited), http.StatusTooManyRequests},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubGateway{err: tc.err}
			rec := doGet(t, newMarketMux(stub), "/api/markets/m1")
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body["error"] == "" {
				t.Error("error body missing error field")
			}
		})
	}
}

func TestGetMarketOrders(t *testing.T) {
	stub := &stubGateway{openInt: "1234.5"}
	rec := doGet(t, newMarketMux(stub), "/api/markets/m7/orders")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["market_id"] != "m7" || body["open_interest"] != "1234.5" {
		t.Errorf("body = %v", body)
	}
}
