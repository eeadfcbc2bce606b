package domain

import "encoding/json"

// TradeSummary aggregates the recent trades of one market. Trades are kept in
// upstream order and untouched; the derived fields are computed by the
// normalizer.
type TradeSummary struct {
	Trades        []json.RawMessage `json:"trades"`
	UniqueTraders int               `json:"unique_traders"`
	Volume        string            `json:"volume"`
}
