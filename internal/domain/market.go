package domain

// MarketToken is one tradable outcome token of a market. Immutable once built.
type MarketToken struct {
	TokenID string `json:"token_id"`
	Name    string `json:"name"`
	Price   string `json:"price"`
}

// Market is the canonical representation of a prediction market, regardless of
// which upstream produced it. Volume and open interest are kept as decimal
// strings exactly as the upstreams report them.
type Market struct {
	ID           string        `json:"id"`
	Question     string        `json:"question"`
	Description  string        `json:"description,omitempty"`
	Volume       string        `json:"volume"`
	OpenInterest string        `json:"open_interest"`
	Tokens       []MarketToken `json:"tokens"`
	IsActive     bool          `json:"is_active"`
	Category     string        `json:"category,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	ExpiresAt    string        `json:"expires_at,omitempty"`
	TraderCount  int           `json:"trader_count"`
}

// Valid reports whether the market satisfies the canonical invariant: both ID
// and Question must be non-empty. Records failing this are dropped by the
// normalizer rather than propagated.
func (m Market) Valid() bool {
	return m.ID != "" && m.Question != ""
}
