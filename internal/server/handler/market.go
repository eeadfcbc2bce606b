package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/normalize"
)

// MarketGateway defines what the market handler needs from the gateway. It is
// declared locally so the handler package does not depend on the concrete
// gateway implementation.
type MarketGateway interface {
	FetchMarkets(ctx context.Context) ([]domain.Market, normalize.Report, error)
	FetchMarketDetail(ctx context.Context, id string) (domain.Market, error)
	FetchOpenInterest(ctx context.Context, id string) (string, error)
	FetchTrades(ctx context.Context, id string, limit int) (domain.TradeSummary, normalize.Report, error)
}

// MarketHandler serves the order-book market endpoints.
type MarketHandler struct {
	gateway MarketGateway
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(gateway MarketGateway, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// listMarketsResponse wraps the listing output with skip metadata.
type listMarketsResponse struct {
	Markets []domain.Market  `json:"markets"`
	Total   int              `json:"total"`
	Dropped []normalize.Drop `json:"dropped,omitempty"`
}

// ListMarkets returns the normalized market listing.
// GET /api/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, report, err := h.gateway.FetchMarkets(r.Context())
	if err != nil {
		writeGatewayError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   len(markets),
		Dropped: report.Dropped,
	})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	market, err := h.gateway.FetchMarketDetail(r.Context(), id)
	if err != nil {
		writeGatewayError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, market)
}

// GetMarketOrders returns the order-book aggregates of a market, currently
// its open interest.
// GET /api/markets/{id}/orders
func (h *MarketHandler) GetMarketOrders(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	oi, err := h.gateway.FetchOpenInterest(r.Context(), id)
	if err != nil {
		writeGatewayError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"market_id":     id,
		"open_interest": oi,
	})
}

// GetMarketTrades returns the summarized recent trades of a market.
// GET /api/markets/{id}/trades?limit=100
func (h *MarketHandler) GetMarketTrades(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}
	limit := parseLimit(r, 100, 1000)

	summary, _, err := h.gateway.FetchTrades(r.Context(), id, limit)
	if err != nil {
		writeGatewayError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
