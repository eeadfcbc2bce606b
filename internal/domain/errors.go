package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrDecode      = errors.New("undecodable response body")
	ErrConnection  = errors.New("upstream connection failed")
	ErrSchema      = errors.New("unrecognized payload shape")
)

// UpstreamError is a non-throttling, non-2xx response from an upstream API.
// It is terminal: the executor never retries it.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream HTTP %d: %s", e.Status, e.Body)
}

// AsUpstreamError unwraps err into an *UpstreamError if one is in the chain.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	ok := errors.As(err, &ue)
	return ue, ok
}
