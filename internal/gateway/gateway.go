// Package gateway composes the upstream clients, the normalizer, and the
// topic classifier into the application-facing market API. Handlers talk to
// the Gateway only; they never see raw upstream payloads except for trade
// pass-through.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/marketlens/internal/classify"
	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/normalize"
	"github.com/alanyoungcy/marketlens/internal/platform/clob"
	"github.com/alanyoungcy/marketlens/internal/platform/gamma"
	"github.com/alanyoungcy/marketlens/internal/platform/subgraph"
)

// historyResolution is the bucket size used for the open-interest history
// fallback.
const historyResolution = "1D"

// ClassifiedMarket is a market together with its topic classification.
type ClassifiedMarket struct {
	domain.Market
	Classification domain.Classification `json:"classification"`
}

// Gateway is the composition root over the three upstream clients.
type Gateway struct {
	clob       *clob.Client
	gamma      *gamma.Client
	subgraph   *subgraph.Client
	classifier *classify.Classifier
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Gateway. logger may be nil.
func New(clobClient *clob.Client, gammaClient *gamma.Client, subgraphClient *subgraph.Client, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		clob:       clobClient,
		gamma:      gammaClient,
		subgraph:   subgraphClient,
		classifier: classify.New(),
		logger:     logger.With(slog.String("component", "gateway")),
		now:        time.Now,
	}
}

// FetchMarkets returns the canonical order-book market listing.
func (g *Gateway) FetchMarkets(ctx context.Context) ([]domain.Market, normalize.Report, error) {
	raw, err := g.clob.GetMarkets(ctx)
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("gateway: fetch markets: %w", err)
	}

	markets, report, err := normalize.FromOrderBookListing(raw, g.now())
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("gateway: fetch markets: %w", err)
	}
	g.logDrops(ctx, "markets", report)
	return markets, report, nil
}

// FetchMarketDetail returns a single market by id from the subgraph, enriched
// with the order-book open interest when the subgraph carries none.
func (g *Gateway) FetchMarketDetail(ctx context.Context, id string) (domain.Market, error) {
	raw, err := g.subgraph.GetMarketMaker(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("gateway: fetch market %s: %w", id, err)
	}
	m, err := normalize.MarketFromMarketMaker(raw, g.now())
	if err != nil {
		return domain.Market{}, fmt.Errorf("gateway: fetch market %s: %w", id, err)
	}
	return m, nil
}

// FetchOpenInterest returns the open interest of a market as a decimal
// string. The market detail payload is preferred; when it lacks the field the
// trailing-day history is consulted instead, per the order-book API's
// behavior of omitting open_interest from thin markets.
func (g *Gateway) FetchOpenInterest(ctx context.Context, id string) (string, error) {
	raw, err := g.clob.GetMarket(ctx, id)
	if err != nil {
		return "", fmt.Errorf("gateway: fetch open interest %s: %w", id, err)
	}
	if oi, ok := normalize.OpenInterestFromMarket(raw); ok {
		return oi, nil
	}

	g.logger.DebugContext(ctx, "open interest missing from detail, falling back to history",
		slog.String("market_id", id),
	)
	history, err := g.clob.GetMarketHistory(ctx, id, historyResolution, 1, g.now())
	if err != nil {
		return "", fmt.Errorf("gateway: fetch open interest history %s: %w", id, err)
	}
	oi, err := normalize.OpenInterestFromHistory(history)
	if err != nil {
		return "", fmt.Errorf("gateway: fetch open interest %s: %w", id, err)
	}
	return oi, nil
}

// FetchTrades returns the summarized recent trades of a market.
func (g *Gateway) FetchTrades(ctx context.Context, id string, limit int) (domain.TradeSummary, normalize.Report, error) {
	raw, err := g.clob.GetMarketTrades(ctx, id, limit)
	if err != nil {
		return domain.TradeSummary{}, normalize.Report{}, fmt.Errorf("gateway: fetch trades %s: %w", id, err)
	}

	summary, report, err := normalize.SummarizeTrades(raw, limit)
	if err != nil {
		return domain.TradeSummary{}, normalize.Report{}, fmt.Errorf("gateway: fetch trades %s: %w", id, err)
	}
	g.logDrops(ctx, "trades", report)
	return summary, report, nil
}

// FetchEvents returns the canonical event listing. When currentOnly is true,
// closed events are excluded upstream.
func (g *Gateway) FetchEvents(ctx context.Context, currentOnly bool) ([]domain.Market, normalize.Report, error) {
	raw, err := g.gamma.GetEvents(ctx, !currentOnly)
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("gateway: fetch events: %w", err)
	}

	markets, report, err := normalize.FromEventListing(raw)
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("gateway: fetch events: %w", err)
	}
	g.logDrops(ctx, "events", report)
	return markets, report, nil
}

// FetchEvent returns a single event as a canonical market.
func (g *Gateway) FetchEvent(ctx context.Context, id string) (domain.Market, error) {
	raw, err := g.gamma.GetEvent(ctx, id)
	if err != nil {
		return domain.Market{}, fmt.Errorf("gateway: fetch event %s: %w", id, err)
	}
	m, err := normalize.MarketFromEvent(raw)
	if err != nil {
		return domain.Market{}, fmt.Errorf("gateway: fetch event %s: %w", id, err)
	}
	return m, nil
}

// FetchSubgraphMarkets returns canonical markets from the market-maker
// subgraph, limited by first.
func (g *Gateway) FetchSubgraphMarkets(ctx context.Context, first int) ([]domain.Market, normalize.Report, error) {
	raw, err := g.subgraph.ListMarketMakers(ctx, first)
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("gateway: fetch subgraph markets: %w", err)
	}

	markets, report, err := normalize.FromMarketMakerListing(raw, g.now())
	if err != nil {
		return nil, normalize.Report{}, fmt.Errorf("gateway: fetch subgraph markets: %w", err)
	}
	g.logDrops(ctx, "subgraph markets", report)
	return markets, report, nil
}

// FetchAllMarkets fetches the order-book and subgraph listings concurrently
// and merges them. A failing source contributes nothing but does not abort
// the other; the call errors only when both sources fail.
func (g *Gateway) FetchAllMarkets(ctx context.Context) ([]domain.Market, error) {
	var (
		mu       sync.Mutex
		merged   []domain.Market
		failures []error
	)
	collect := func(markets []domain.Market, err error, source string) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			g.logger.WarnContext(ctx, "market source failed",
				slog.String("source", source),
				slog.String("error", err.Error()),
			)
			failures = append(failures, err)
			return
		}
		merged = append(merged, markets...)
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		markets, _, err := g.FetchMarkets(grpCtx)
		collect(markets, err, "clob")
		return nil
	})
	grp.Go(func() error {
		markets, _, err := g.FetchSubgraphMarkets(grpCtx, 100)
		collect(markets, err, "subgraph")
		return nil
	})
	_ = grp.Wait()

	if len(failures) == 2 {
		return nil, fmt.Errorf("gateway: fetch all markets: %w", failures[0])
	}
	return merged, nil
}

// FetchClassifiedMarkets returns the current events classified as sports,
// sorted by open interest, highest first. Markets whose open interest does
// not parse sort as zero.
func (g *Gateway) FetchClassifiedMarkets(ctx context.Context) ([]ClassifiedMarket, error) {
	markets, _, err := g.FetchEvents(ctx, true)
	if err != nil {
		return nil, err
	}

	classified := make([]ClassifiedMarket, 0, len(markets))
	for _, m := range markets {
		c := g.classifier.Classify(m.Question + " " + m.Description)
		if !c.Sports {
			continue
		}
		classified = append(classified, ClassifiedMarket{Market: m, Classification: c})
	}

	sort.SliceStable(classified, func(i, j int) bool {
		return openInterestValue(classified[i].Market) > openInterestValue(classified[j].Market)
	})
	return classified, nil
}

// logDrops surfaces best-effort record skips from a normalization pass.
func (g *Gateway) logDrops(ctx context.Context, source string, report normalize.Report) {
	if report.DroppedCount() == 0 {
		return
	}
	dropped, _ := json.Marshal(report.Dropped)
	g.logger.InfoContext(ctx, "records dropped during normalization",
		slog.String("source", source),
		slog.Int("count", report.DroppedCount()),
		slog.String("dropped", string(dropped)),
	)
}

// openInterestValue parses a market's open interest for sorting; unparsable
// values rank as zero.
func openInterestValue(m domain.Market) float64 {
	v, err := strconv.ParseFloat(m.OpenInterest, 64)
	if err != nil {
		return 0
	}
	return v
}
