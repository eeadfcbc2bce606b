package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/gateway"
	"github.com/alanyoungcy/marketlens/internal/normalize"
)

// EventGateway defines what the event handler needs from the gateway.
type EventGateway interface {
	FetchEvents(ctx context.Context, currentOnly bool) ([]domain.Market, normalize.Report, error)
	FetchEvent(ctx context.Context, id string) (domain.Market, error)
	FetchClassifiedMarkets(ctx context.Context) ([]gateway.ClassifiedMarket, error)
}

// EventHandler serves the event-metadata endpoints.
type EventHandler struct {
	gateway EventGateway
	logger  *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(gateway EventGateway, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// ListEvents returns events as normalized markets. Closed events are excluded
// unless current_only=false is passed.
// GET /gamma/markets?current_only=false
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	currentOnly := r.URL.Query().Get("current_only") != "false"

	markets, report, err := h.gateway.FetchEvents(r.Context(), currentOnly)
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

// GetEvent returns a single event as a normalized market.
// GET /gamma/markets/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	market, err := h.gateway.FetchEvent(r.Context(), id)
	if err != nil {
		writeGatewayError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, market)
}

// listSportsResponse wraps the classified listing.
type listSportsResponse struct {
	Markets []gateway.ClassifiedMarket `json:"markets"`
	Total   int                        `json:"total"`
}

// ListSportsMarkets returns the current events classified as sports, sorted
// by open interest descending.
// GET /gamma/sports-markets
func (h *EventHandler) ListSportsMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.gateway.FetchClassifiedMarkets(r.Context())
	if err != nil {
		writeGatewayError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, listSportsResponse{
		Markets: markets,
		Total:   len(markets),
	})
}
