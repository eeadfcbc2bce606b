package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/gateway"
	"github.com/alanyoungcy/marketlens/internal/normalize"
)

type stubEventGateway struct {
	markets        []domain.Market
	market         domain.Market
	classified     []gateway.ClassifiedMarket
	err            error
	gotCurrentOnly bool
}

func (s *stubEventGateway) FetchEvents(ctx context.Context, currentOnly bool) ([]domain.Market, normalize.Report, error) {
	s.gotCurrentOnly = currentOnly
	return s.markets, normalize.Report{}, s.err
}

func (s *stubEventGateway) FetchEvent(ctx context.Context, id string) (domain.Market, error) {
	return s.market, s.err
}

func (s *stubEventGateway) FetchClassifiedMarkets(ctx context.Context) ([]gateway.ClassifiedMarket, error) {
	return s.classified, s.err
}

func newEventMux(g EventGateway) *http.ServeMux {
	h := NewEventHandler(g, slog.Default())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gamma/markets", h.ListEvents)
	mux.HandleFunc("GET /gamma/markets/{id}", h.GetEvent)
	mux.HandleFunc("GET /gamma/sports-markets", h.ListSportsMarkets)
	return mux
}

func TestListEvents_CurrentOnlyFlag(t *testing.T) {
	stub := &stubEventGateway{}
	mux := newEventMux(stub)

	doGet(t, mux, "/gamma/markets")
	if !stub.gotCurrentOnly {
		t.Error("current_only should default to true")
	}

	doGet(t, mux, "/gamma/markets?current_only=false")
	if stub.gotCurrentOnly {
		t.Error("current_only=false not passed through")
	}

	doGet(t, mux, "/gamma/markets?current_only=true")
	if !stub.gotCurrentOnly {
		t.Error("current_only=true not passed through")
	}
}

func TestGetEvent(t *testing.T) {
	stub := &stubEventGateway{market: domain.Market{ID: "e1", Question: "q"}}
	rec := doGet(t, newEventMux(stub), "/gamma/markets/e1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var m domain.Market
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if m.ID != "e1" {
		t.Errorf("market = %+v", m)
	}
}

func TestListSportsMarkets(t *testing.T) {
	stub := &stubEventGateway{
		classified: []gateway.ClassifiedMarket{
			{
				Market:         domain.Market{ID: "s1", Question: "Super Bowl winner"},
				Classification: domain.Classification{Sports: true, Matched: []string{"super bowl"}},
			},
		},
	}
	rec := doGet(t, newEventMux(stub), "/gamma/sports-markets")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp listSportsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || !resp.Markets[0].Classification.Sports {
		t.Errorf("response = %+v", resp)
	}
}

func TestListSportsMarkets_GatewayError(t *testing.T) {
	stub := &stubEventGateway{err: domain.ErrRateLimited}
	rec := doGet(t, newEventMux(stub), "/gamma/sports-markets")

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}
