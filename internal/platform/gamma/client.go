// Package gamma is the REST client for the event-metadata API.
package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/alanyoungcy/marketlens/internal/upstream"
)

// Client wraps the shared request executor for the Gamma host.
type Client struct {
	exec *upstream.Executor
}

// NewClient creates a Gamma client over the given executor.
func NewClient(exec *upstream.Executor) *Client {
	return &Client{exec: exec}
}

// GetEvents returns the raw event listing. When includeClosed is false only
// open events are requested.
func (g *Client) GetEvents(ctx context.Context, includeClosed bool) (json.RawMessage, error) {
	var params url.Values
	if !includeClosed {
		params = url.Values{}
		params.Set("closed", "false")
	}

	body, err := g.exec.Execute(ctx, http.MethodGet, "/events", params, nil)
	if err != nil {
		return nil, fmt.Errorf("gamma: get events: %w", err)
	}
	return body, nil
}

// GetEvent returns the raw payload of a single event.
func (g *Client) GetEvent(ctx context.Context, id string) (json.RawMessage, error) {
	body, err := g.exec.Execute(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("gamma: get event %s: %w", id, err)
	}
	return body, nil
}
