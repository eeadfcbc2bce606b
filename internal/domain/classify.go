package domain

// Classification is the outcome of running market text through the topic
// classifier. Matched holds the keyword terms that fired, for diagnostics.
type Classification struct {
	Sports  bool     `json:"sports"`
	Matched []string `json:"matched,omitempty"`
}
