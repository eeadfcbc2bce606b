package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketlens/internal/cache/memory"
	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/upstream"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(upstream.NewExecutor(upstream.Options{
		BaseURL:     srv.URL,
		Cache:       memory.New(time.Minute, 0),
		Governor:    upstream.NewGovernor(0),
		MaxRetries:  1,
		BackoffBase: time.Millisecond,
	}))
}

func TestListMarketMakers(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"data": {"fixedProductMarketMakers": [{"id": "mm1"}]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	raw, err := c.ListMarketMakers(context.Background(), 25)
	require.NoError(t, err)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "mm1", entries[0]["id"])

	// The request must be a GraphQL envelope carrying the first variable.
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &req))
	require.Contains(t, req.Query, "fixedProductMarketMakers")
	require.EqualValues(t, 25, req.Variables["first"])
}

func TestGetMarketMaker_NullIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"fixedProductMarketMaker": null}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GetMarketMaker(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDoQuery_GraphQLErrorsAreSchemaErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "field does not exist"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ListMarketMakers(context.Background(), 5)
	require.True(t, errors.Is(err, domain.ErrSchema), "error = %v", err)
	require.Contains(t, err.Error(), "field does not exist")
}

func TestListMarketMakers_MissingFieldIsSchemaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.ListMarketMakers(context.Background(), 5)
	require.ErrorIs(t, err, domain.ErrSchema)
}
