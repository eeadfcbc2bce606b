// Package normalize reconciles the three upstream payload shapes (CLOB market
// listing, Gamma event listing, subgraph market-maker listing) into the
// canonical Market model and summarizes raw trade batches.
//
// All mapping functions are pure: they take a raw payload plus the caller's
// notion of now and perform no I/O. A malformed individual record inside a
// batch is dropped and reported, never raised; a malformed top-level payload
// fails the whole call with domain.ErrSchema.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// Drop records one skipped record and the reason it was excluded.
type Drop struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Report accumulates the records a normalization pass dropped, so callers can
// observe best-effort skips instead of losing them to a debug log line.
type Report struct {
	Dropped []Drop `json:"dropped,omitempty"`
}

func (r *Report) drop(i int, reason string) {
	r.Dropped = append(r.Dropped, Drop{Index: i, Reason: reason})
}

// DroppedCount returns the number of records skipped.
func (r Report) DroppedCount() int { return len(r.Dropped) }

// listingEntries splits raw into individual records. It accepts either a bare
// JSON array or an object wrapping the array under field; anything else is a
// top-level shape mismatch.
func listingEntries(raw json.RawMessage, field string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("normalize: empty payload: %w", domain.ErrSchema)
	}

	switch trimmed[0] {
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("normalize: decode listing: %w", domain.ErrSchema)
		}
		return entries, nil
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("normalize: decode listing wrapper: %w", domain.ErrSchema)
		}
		inner, ok := wrapper[field]
		if !ok {
			return nil, fmt.Errorf("normalize: wrapper missing %q field: %w", field, domain.ErrSchema)
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(inner, &entries); err != nil {
			return nil, fmt.Errorf("normalize: decode %q field: %w", field, domain.ErrSchema)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("normalize: listing is neither array nor object: %w", domain.ErrSchema)
	}
}

// ---------------------------------------------------------------------------
// CLOB market listing
// ---------------------------------------------------------------------------

// clobMarket mirrors one entry of the order-book market listing.
type clobMarket struct {
	ConditionID  flexString `json:"condition_id"`
	ID           flexString `json:"id"`
	Question     string     `json:"question"`
	Description  string     `json:"description"`
	Volume       flexString `json:"volume"`
	OpenInterest flexString `json:"open_interest"`
	TraderCount  flexString `json:"trader_count"`
	ExpiresAt    flexString `json:"expires_at"`
	Category     string     `json:"category"`
}

// FromOrderBookListing maps an order-book-style market listing (bare array or
// {"markets": [...]}) into canonical Markets. Entries without an id or
// question are dropped, as are entries whose expiry is already in the past.
func FromOrderBookListing(raw json.RawMessage, now time.Time) ([]domain.Market, Report, error) {
	entries, err := listingEntries(raw, "markets")
	if err != nil {
		return nil, Report{}, err
	}

	var report Report
	markets := make([]domain.Market, 0, len(entries))

	for i, entry := range entries {
		var cm clobMarket
		if err := json.Unmarshal(entry, &cm); err != nil {
			report.drop(i, "malformed record")
			continue
		}

		id := cm.ConditionID.orDefault(cm.ID.String())
		m := domain.Market{
			ID:           id,
			Question:     cm.Question,
			Description:  cm.Description,
			Volume:       cm.Volume.orDefault("0"),
			OpenInterest: cm.OpenInterest.orDefault("0"),
			Tokens:       []domain.MarketToken{},
			IsActive:     true,
			Category:     cm.Category,
		}
		if !m.Valid() {
			report.drop(i, "missing id or question")
			continue
		}

		if n, ok := cm.TraderCount.int64Value(); ok {
			m.TraderCount = int(n)
		}

		if cm.ExpiresAt != "" {
			if ts, ok := cm.ExpiresAt.int64Value(); ok {
				expires := time.Unix(ts, 0).UTC()
				if expires.Before(now) {
					report.drop(i, "expired")
					continue
				}
				m.ExpiresAt = expires.Format(time.RFC3339)
			}
		}

		markets = append(markets, m)
	}

	return markets, report, nil
}

// ---------------------------------------------------------------------------
// Gamma event listing
// ---------------------------------------------------------------------------

// gammaOutcome mirrors one outcome of a Gamma event.
type gammaOutcome struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Probability flexString `json:"probability"`
}

// gammaEvent mirrors one event of the Gamma event listing.
type gammaEvent struct {
	ID          flexString     `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Volume      flexString     `json:"volume"`
	Liquidity   flexString     `json:"liquidity"`
	Active      bool           `json:"active"`
	Category    string         `json:"category"`
	CreatedAt   string         `json:"created_at"`
	ExpiresAt   string         `json:"expires_at"`
	Outcomes    []gammaOutcome `json:"outcomes"`
}

// toMarket converts a decoded event into the canonical model.
func (e gammaEvent) toMarket() domain.Market {
	tokens := make([]domain.MarketToken, 0, len(e.Outcomes))
	for _, o := range e.Outcomes {
		tokens = append(tokens, domain.MarketToken{
			TokenID: o.ID.String(),
			Name:    o.Title,
			Price:   o.Probability.orDefault("0"),
		})
	}
	return domain.Market{
		ID:           e.ID.String(),
		Question:     e.Title,
		Description:  e.Description,
		Volume:       e.Volume.orDefault("0"),
		OpenInterest: e.Liquidity.orDefault("0"),
		Tokens:       tokens,
		IsActive:     e.Active,
		Category:     e.Category,
		CreatedAt:    e.CreatedAt,
		ExpiresAt:    e.ExpiresAt,
	}
}

// MarketFromEvent maps a single Gamma event object into a canonical Market.
func MarketFromEvent(raw json.RawMessage) (domain.Market, error) {
	var e gammaEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.Market{}, fmt.Errorf("normalize: decode event: %w", domain.ErrSchema)
	}
	m := e.toMarket()
	if !m.Valid() {
		return domain.Market{}, fmt.Errorf("normalize: event missing id or title: %w", domain.ErrSchema)
	}
	return m, nil
}

// FromEventListing maps a Gamma event listing into canonical Markets. The
// listing must be a bare array; individually malformed events are dropped.
// FromEventListing is pure: applying it twice to the same input yields
// identical output.
func FromEventListing(raw json.RawMessage) ([]domain.Market, Report, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, Report{}, fmt.Errorf("normalize: event listing is not an array: %w", domain.ErrSchema)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, Report{}, fmt.Errorf("normalize: decode event listing: %w", domain.ErrSchema)
	}

	var report Report
	markets := make([]domain.Market, 0, len(entries))

	for i, entry := range entries {
		var e gammaEvent
		if err := json.Unmarshal(entry, &e); err != nil {
			report.drop(i, "malformed record")
			continue
		}
		m := e.toMarket()
		if !m.Valid() {
			report.drop(i, "missing id or title")
			continue
		}
		markets = append(markets, m)
	}

	return markets, report, nil
}

// ---------------------------------------------------------------------------
// Subgraph market-maker listing
// ---------------------------------------------------------------------------

// marketMaker mirrors one fixedProductMarketMaker entry from the subgraph.
type marketMaker struct {
	ID                     string       `json:"id"`
	CreationTimestamp      flexString   `json:"creationTimestamp"`
	CollateralVolume       flexString   `json:"collateralVolume"`
	ScaledCollateralVolume flexString   `json:"scaledCollateralVolume"`
	OutcomeTokenPrices     []flexString `json:"outcomeTokenPrices"`
	TradesQuantity         flexString   `json:"tradesQuantity"`
	Condition              *struct {
		ID                  string     `json:"id"`
		Question            string     `json:"question"`
		ResolutionTimestamp flexString `json:"resolutionTimestamp"`
		Resolved            bool       `json:"resolved"`
	} `json:"condition"`
}

// toMarket converts a market-maker entry. It assumes the condition has been
// checked for presence.
func (mm marketMaker) toMarket(resolution time.Time) domain.Market {
	tokens := make([]domain.MarketToken, 0, len(mm.OutcomeTokenPrices))
	for i, price := range mm.OutcomeTokenPrices {
		tokens = append(tokens, domain.MarketToken{
			TokenID: mm.ID + ":" + strconv.Itoa(i),
			Price:   price.orDefault("0"),
		})
	}

	m := domain.Market{
		ID:           mm.ID,
		Question:     mm.Condition.Question,
		Volume:       mm.ScaledCollateralVolume.orDefault("0"),
		OpenInterest: mm.CollateralVolume.orDefault("0"),
		Tokens:       tokens,
		IsActive:     true,
		ExpiresAt:    resolution.UTC().Format(time.RFC3339),
	}
	if n, ok := mm.TradesQuantity.int64Value(); ok {
		m.TraderCount = int(n)
	}
	if ts, ok := mm.CreationTimestamp.int64Value(); ok {
		m.CreatedAt = time.Unix(ts, 0).UTC().Format(time.RFC3339)
	}
	return m
}

// FromMarketMakerListing maps a subgraph fixedProductMarketMakers array into
// canonical Markets. An entry is included only when its condition is present,
// unresolved, and resolves in the future; everything else is dropped with a
// reason.
func FromMarketMakerListing(raw json.RawMessage, now time.Time) ([]domain.Market, Report, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, Report{}, fmt.Errorf("normalize: market-maker listing is not an array: %w", domain.ErrSchema)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, Report{}, fmt.Errorf("normalize: decode market-maker listing: %w", domain.ErrSchema)
	}

	var report Report
	markets := make([]domain.Market, 0, len(entries))

	for i, entry := range entries {
		var mm marketMaker
		if err := json.Unmarshal(entry, &mm); err != nil {
			report.drop(i, "malformed record")
			continue
		}
		if mm.Condition == nil {
			report.drop(i, "missing condition")
			continue
		}
		ts, ok := mm.Condition.ResolutionTimestamp.int64Value()
		if !ok {
			report.drop(i, "unparsable resolution timestamp")
			continue
		}
		resolution := time.Unix(ts, 0).UTC()
		// Both conditions required: an expired-but-unresolved market is excluded.
		if mm.Condition.Resolved || !resolution.After(now) {
			report.drop(i, "resolved or past resolution")
			continue
		}

		m := mm.toMarket(resolution)
		if !m.Valid() {
			report.drop(i, "missing id or question")
			continue
		}
		markets = append(markets, m)
	}

	return markets, report, nil
}

// MarketFromMarketMaker maps a single subgraph entry into a canonical Market.
// Unlike the listing mapper it does not exclude resolved or expired markets;
// IsActive reflects the resolution state instead.
func MarketFromMarketMaker(raw json.RawMessage, now time.Time) (domain.Market, error) {
	var mm marketMaker
	if err := json.Unmarshal(raw, &mm); err != nil {
		return domain.Market{}, fmt.Errorf("normalize: decode market maker: %w", domain.ErrSchema)
	}
	if mm.Condition == nil {
		return domain.Market{}, fmt.Errorf("normalize: market maker missing condition: %w", domain.ErrSchema)
	}
	ts, ok := mm.Condition.ResolutionTimestamp.int64Value()
	if !ok {
		return domain.Market{}, fmt.Errorf("normalize: unparsable resolution timestamp: %w", domain.ErrSchema)
	}
	resolution := time.Unix(ts, 0).UTC()

	m := mm.toMarket(resolution)
	m.IsActive = !mm.Condition.Resolved && resolution.After(now)
	if !m.Valid() {
		return domain.Market{}, fmt.Errorf("normalize: market maker missing id or question: %w", domain.ErrSchema)
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Open interest extraction
// ---------------------------------------------------------------------------

// openInterestField mirrors the open_interest field of a market detail or
// history payload.
type openInterestField struct {
	OpenInterest flexString `json:"open_interest"`
}

// OpenInterestFromMarket extracts open_interest from a market detail payload.
func OpenInterestFromMarket(raw json.RawMessage) (string, bool) {
	var f openInterestField
	if err := json.Unmarshal(raw, &f); err != nil || f.OpenInterest == "" {
		return "", false
	}
	return f.OpenInterest.String(), true
}

// OpenInterestFromHistory extracts open_interest from a history payload,
// which is either an object carrying the field directly or a series of data
// points, in which case the most recent point wins. Absent data defaults to
// "0".
func OpenInterestFromHistory(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "0", nil
	}

	switch trimmed[0] {
	case '{':
		var f openInterestField
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return "", fmt.Errorf("normalize: decode history: %w", domain.ErrSchema)
		}
		return f.OpenInterest.orDefault("0"), nil
	case '[':
		var points []openInterestField
		if err := json.Unmarshal(trimmed, &points); err != nil {
			return "", fmt.Errorf("normalize: decode history series: %w", domain.ErrSchema)
		}
		if len(points) == 0 {
			return "0", nil
		}
		return points[len(points)-1].OpenInterest.orDefault("0"), nil
	default:
		return "", fmt.Errorf("normalize: history is neither object nor array: %w", domain.ErrSchema)
	}
}

// ---------------------------------------------------------------------------
// Trade summarization
// ---------------------------------------------------------------------------

// tradeRecord mirrors the address and amount fields of one raw trade. The
// remaining fields pass through untouched in TradeSummary.Trades.
type tradeRecord struct {
	Maker      string     `json:"maker"`
	Taker      string     `json:"taker"`
	UserWallet string     `json:"user_wallet"`
	Amount     flexString `json:"amount"`
}

// SummarizeTrades builds a TradeSummary from a raw trades payload (bare array
// or {"trades": [...]}), truncated to limit when limit > 0. Unique traders is
// the cardinality of the union of every trade's maker/taker/user_wallet
// fields; hex wallet addresses are canonicalized before dedup so casing
// variants count once. Numeric amounts are summed once each into volume;
// non-numeric amounts are skipped. A malformed trade record never aborts
// summarization of the rest.
func SummarizeTrades(raw json.RawMessage, limit int) (domain.TradeSummary, Report, error) {
	entries, err := listingEntries(raw, "trades")
	if err != nil {
		return domain.TradeSummary{}, Report{}, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	var report Report
	traders := make(map[string]struct{})
	volume := 0.0
	trades := make([]json.RawMessage, 0, len(entries))

	for i, entry := range entries {
		var tr tradeRecord
		if err := json.Unmarshal(entry, &tr); err != nil {
			report.drop(i, "malformed record")
			continue
		}
		trades = append(trades, entry)

		for _, addr := range []string{tr.Maker, tr.Taker, tr.UserWallet} {
			if addr != "" {
				traders[canonicalAddress(addr)] = struct{}{}
			}
		}
		if amt, ok := tr.Amount.floatValue(); ok {
			volume += amt
		}
	}

	return domain.TradeSummary{
		Trades:        trades,
		UniqueTraders: len(traders),
		Volume:        strconv.FormatFloat(volume, 'f', -1, 64),
	}, report, nil
}

// canonicalAddress normalizes hex wallet addresses to their EIP-55 form so
// that casing variants dedup to one trader. Non-hex identifiers are kept
// verbatim.
func canonicalAddress(s string) string {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s).Hex()
	}
	return s
}
