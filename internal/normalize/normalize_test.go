package normalize

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestFromOrderBookListing_DropsInvalidRecords(t *testing.T) {
	raw := json.RawMessage(`[
		{"condition_id": "0xabc", "question": "Will it rain?", "volume": "1000"},
		{"condition_id": "0xdef"},
		{"id": "42", "question": "Will it snow?"}
	]`)

	markets, report, err := FromOrderBookListing(raw, testNow)
	if err != nil {
		t.Fatalf("FromOrderBookListing: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("markets = %d, want 2", len(markets))
	}
	if report.DroppedCount() != 1 {
		t.Fatalf("dropped = %d, want 1", report.DroppedCount())
	}
	if report.Dropped[0].Index != 1 {
		t.Errorf("dropped index = %d, want 1", report.Dropped[0].Index)
	}

	if markets[0].ID != "0xabc" || markets[1].ID != "42" {
		t.Errorf("ids = %q, %q", markets[0].ID, markets[1].ID)
	}
	if markets[1].Volume != "0" {
		t.Errorf("missing volume should default to %q, got %q", "0", markets[1].Volume)
	}
}

func TestFromOrderBookListing_DropsExpired(t *testing.T) {
	past := testNow.Add(-time.Hour).Unix()
	future := testNow.Add(time.Hour).Unix()
	raw := json.RawMessage(`[
		{"condition_id": "old", "question": "q", "expires_at": ` + jsonInt(past) + `},
		{"condition_id": "new", "question": "q", "expires_at": ` + jsonInt(future) + `}
	]`)

	markets, report, err := FromOrderBookListing(raw, testNow)
	if err != nil {
		t.Fatalf("FromOrderBookListing: %v", err)
	}
	if len(markets) != 1 || markets[0].ID != "new" {
		t.Fatalf("markets = %+v, want only the unexpired one", markets)
	}
	if report.DroppedCount() != 1 || report.Dropped[0].Reason != "expired" {
		t.Errorf("report = %+v, want one expired drop", report)
	}
}

func TestFromOrderBookListing_AcceptsWrapperObject(t *testing.T) {
	raw := json.RawMessage(`{"markets": [{"condition_id": "a", "question": "q"}]}`)
	markets, _, err := FromOrderBookListing(raw, testNow)
	if err != nil {
		t.Fatalf("FromOrderBookListing: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("markets = %d, want 1", len(markets))
	}
}

func TestFromOrderBookListing_TopLevelMismatchIsSchemaError(t *testing.T) {
	_, _, err := FromOrderBookListing(json.RawMessage(`"nope"`), testNow)
	if !errors.Is(err, domain.ErrSchema) {
		t.Fatalf("error = %v, want ErrSchema", err)
	}
}

func TestFromEventListing_Idempotent(t *testing.T) {
	raw := json.RawMessage(`[
		{"id": 7, "title": "Finals winner", "liquidity": 2500.5, "active": true,
		 "outcomes": [{"id": "o1", "title": "Yes", "probability": 0.4}]},
		{"title": "no id, dropped"}
	]`)

	first, report1, err := FromEventListing(raw)
	if err != nil {
		t.Fatalf("FromEventListing: %v", err)
	}
	second, report2, err := FromEventListing(raw)
	if err != nil {
		t.Fatalf("FromEventListing (second pass): %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two passes over the same payload differ")
	}
	if !reflect.DeepEqual(report1, report2) {
		t.Error("two passes produced different reports")
	}

	if len(first) != 1 {
		t.Fatalf("markets = %d, want 1", len(first))
	}
	m := first[0]
	if m.ID != "7" {
		t.Errorf("numeric id not coerced: %q", m.ID)
	}
	if m.OpenInterest != "2500.5" {
		t.Errorf("liquidity should land in open interest, got %q", m.OpenInterest)
	}
	if len(m.Tokens) != 1 || m.Tokens[0].Price != "0.4" {
		t.Errorf("tokens = %+v", m.Tokens)
	}
}

func TestMarketFromEvent(t *testing.T) {
	raw := json.RawMessage(`{"id": "e1", "title": "Cup winner", "active": false}`)
	m, err := MarketFromEvent(raw)
	if err != nil {
		t.Fatalf("MarketFromEvent: %v", err)
	}
	if m.ID != "e1" || m.IsActive {
		t.Errorf("market = %+v", m)
	}

	if _, err := MarketFromEvent(json.RawMessage(`{"title": "no id"}`)); !errors.Is(err, domain.ErrSchema) {
		t.Errorf("error = %v, want ErrSchema", err)
	}
}

func TestFromMarketMakerListing_Filters(t *testing.T) {
	future := testNow.Add(24 * time.Hour).Unix()
	past := testNow.Add(-24 * time.Hour).Unix()
	raw := json.RawMessage(`[
		{"id": "mm1", "collateralVolume": "9000", "scaledCollateralVolume": "9",
		 "tradesQuantity": "12", "outcomeTokenPrices": ["0.6", "0.4"],
		 "condition": {"id": "c1", "question": "Open market?", "resolved": false,
		               "resolutionTimestamp": ` + jsonInt(future) + `}},
		{"id": "mm2",
		 "condition": {"id": "c2", "question": "Resolved market", "resolved": true,
		               "resolutionTimestamp": ` + jsonInt(future) + `}},
		{"id": "mm3",
		 "condition": {"id": "c3", "question": "Past market", "resolved": false,
		               "resolutionTimestamp": ` + jsonInt(past) + `}},
		{"id": "mm4"}
	]`)

	markets, report, err := FromMarketMakerListing(raw, testNow)
	if err != nil {
		t.Fatalf("FromMarketMakerListing: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("markets = %d, want 1", len(markets))
	}
	if report.DroppedCount() != 3 {
		t.Errorf("dropped = %d, want 3", report.DroppedCount())
	}

	m := markets[0]
	if m.ID != "mm1" || m.Question != "Open market?" {
		t.Errorf("market = %+v", m)
	}
	if m.Volume != "9" || m.OpenInterest != "9000" {
		t.Errorf("volume = %q, open interest = %q", m.Volume, m.OpenInterest)
	}
	if m.TraderCount != 12 {
		t.Errorf("trader count = %d, want 12", m.TraderCount)
	}
	if len(m.Tokens) != 2 || m.Tokens[0].TokenID != "mm1:0" {
		t.Errorf("tokens = %+v", m.Tokens)
	}
}

func TestMarketFromMarketMaker_KeepsResolved(t *testing.T) {
	past := testNow.Add(-24 * time.Hour).Unix()
	raw := json.RawMessage(`{"id": "mm9",
		"condition": {"id": "c9", "question": "Done deal", "resolved": true,
		              "resolutionTimestamp": ` + jsonInt(past) + `}}`)

	m, err := MarketFromMarketMaker(raw, testNow)
	if err != nil {
		t.Fatalf("MarketFromMarketMaker: %v", err)
	}
	if m.IsActive {
		t.Error("resolved market should not be active")
	}
	if m.ID != "mm9" {
		t.Errorf("id = %q", m.ID)
	}
}

func TestSummarizeTrades_UniqueTraders(t *testing.T) {
	raw := json.RawMessage(`[
		{"maker": "A", "taker": "B", "amount": "10"},
		{"maker": "B", "taker": "C", "amount": "5.5"},
		{"user_wallet": "D", "amount": "4.5"}
	]`)

	summary, report, err := SummarizeTrades(raw, 0)
	if err != nil {
		t.Fatalf("SummarizeTrades: %v", err)
	}
	if report.DroppedCount() != 0 {
		t.Fatalf("dropped = %d", report.DroppedCount())
	}
	if summary.UniqueTraders != 4 {
		t.Errorf("unique traders = %d, want 4", summary.UniqueTraders)
	}
	if summary.Volume != "20" {
		t.Errorf("volume = %q, want 20", summary.Volume)
	}
	if len(summary.Trades) != 3 {
		t.Errorf("trades = %d, want 3", len(summary.Trades))
	}
}

func TestSummarizeTrades_HexAddressCasingDedups(t *testing.T) {
	raw := json.RawMessage(`[
		{"maker": "0x52908400098527886e0f7030069857d2e4169ee7", "amount": "1"},
		{"maker": "0x52908400098527886E0F7030069857D2E4169EE7", "amount": "1"}
	]`)

	summary, _, err := SummarizeTrades(raw, 0)
	if err != nil {
		t.Fatalf("SummarizeTrades: %v", err)
	}
	if summary.UniqueTraders != 1 {
		t.Errorf("unique traders = %d, want 1 (casing variants are one wallet)", summary.UniqueTraders)
	}
}

func TestSummarizeTrades_LimitAndMalformed(t *testing.T) {
	raw := json.RawMessage(`{"trades": [
		{"maker": "A", "amount": "1"},
		"not an object",
		{"maker": "B", "amount": "not a number"}
	]}`)

	summary, report, err := SummarizeTrades(raw, 10)
	if err != nil {
		t.Fatalf("SummarizeTrades: %v", err)
	}
	if report.DroppedCount() != 1 {
		t.Errorf("dropped = %d, want 1", report.DroppedCount())
	}
	if summary.UniqueTraders != 2 {
		t.Errorf("unique traders = %d, want 2", summary.UniqueTraders)
	}
	if summary.Volume != "1" {
		t.Errorf("volume = %q, want 1 (non-numeric amounts skipped)", summary.Volume)
	}

	truncated, _, err := SummarizeTrades(raw, 1)
	if err != nil {
		t.Fatalf("SummarizeTrades: %v", err)
	}
	if len(truncated.Trades) != 1 {
		t.Errorf("trades = %d, want 1 after limit", len(truncated.Trades))
	}
}

func TestOpenInterestFromMarket(t *testing.T) {
	if oi, ok := OpenInterestFromMarket(json.RawMessage(`{"open_interest": 123.5}`)); !ok || oi != "123.5" {
		t.Errorf("got %q, %v", oi, ok)
	}
	if _, ok := OpenInterestFromMarket(json.RawMessage(`{"volume": "1"}`)); ok {
		t.Error("missing field should report absent")
	}
}

func TestOpenInterestFromHistory(t *testing.T) {
	oi, err := OpenInterestFromHistory(json.RawMessage(`{"open_interest": "77"}`))
	if err != nil || oi != "77" {
		t.Errorf("object form: got %q, %v", oi, err)
	}

	oi, err = OpenInterestFromHistory(json.RawMessage(`[{"open_interest": "1"}, {"open_interest": "2"}]`))
	if err != nil || oi != "2" {
		t.Errorf("series form: got %q, %v (want last point)", oi, err)
	}

	oi, err = OpenInterestFromHistory(json.RawMessage(`[]`))
	if err != nil || oi != "0" {
		t.Errorf("empty series: got %q, %v", oi, err)
	}

	if _, err := OpenInterestFromHistory(json.RawMessage(`"nope"`)); !errors.Is(err, domain.ErrSchema) {
		t.Errorf("error = %v, want ErrSchema", err)
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
