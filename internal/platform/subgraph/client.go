// Package subgraph is the GraphQL client for the market-maker subgraph
// indexer, used to list fixedProductMarketMaker entries with their condition
// and volume aggregates.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alanyoungcy/marketlens/internal/domain"
	"github.com/alanyoungcy/marketlens/internal/upstream"
)

// Client wraps the shared request executor for the subgraph endpoint. The
// endpoint path is part of the executor's base URL; every query is a POST to
// its root. Keyed endpoints carry their Authorization header on the executor.
type Client struct {
	exec *upstream.Executor
}

// NewClient creates a subgraph client over the given executor.
func NewClient(exec *upstream.Executor) *Client {
	return &Client{exec: exec}
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ListMarketMakers returns the raw fixedProductMarketMakers array, newest
// first, limited by first.
func (c *Client) ListMarketMakers(ctx context.Context, first int) (json.RawMessage, error) {
	query := `
		query MarketMakers($first: Int!) {
			fixedProductMarketMakers(first: $first, orderBy: creationTimestamp, orderDirection: desc) {
				id
				creationTimestamp
				collateralVolume
				scaledCollateralVolume
				outcomeTokenPrices
				tradesQuantity
				condition {
					id
					question
					resolutionTimestamp
					resolved
				}
			}
		}
	`

	data, err := c.doQuery(ctx, query, map[string]any{"first": first})
	if err != nil {
		return nil, fmt.Errorf("subgraph: list market makers: %w", err)
	}

	var result struct {
		FixedProductMarketMakers json.RawMessage `json:"fixedProductMarketMakers"`
	}
	if err := json.Unmarshal(data, &result); err != nil || result.FixedProductMarketMakers == nil {
		return nil, fmt.Errorf("subgraph: response missing fixedProductMarketMakers: %w", domain.ErrSchema)
	}
	return result.FixedProductMarketMakers, nil
}

// GetMarketMaker returns the raw fixedProductMarketMaker object for id. A
// null result maps to domain.ErrNotFound.
func (c *Client) GetMarketMaker(ctx context.Context, id string) (json.RawMessage, error) {
	query := `
		query MarketMaker($marketId: String!) {
			fixedProductMarketMaker(id: $marketId) {
				id
				creationTimestamp
				collateralVolume
				scaledCollateralVolume
				outcomeTokenPrices
				tradesQuantity
				condition {
					id
					question
					resolutionTimestamp
					resolved
				}
			}
		}
	`

	data, err := c.doQuery(ctx, query, map[string]any{"marketId": id})
	if err != nil {
		return nil, fmt.Errorf("subgraph: get market maker %s: %w", id, err)
	}

	var result struct {
		FixedProductMarketMaker json.RawMessage `json:"fixedProductMarketMaker"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("subgraph: decode market maker: %w", domain.ErrSchema)
	}
	if len(bytes.TrimSpace(result.FixedProductMarketMaker)) == 0 || string(result.FixedProductMarketMaker) == "null" {
		return nil, fmt.Errorf("subgraph: market maker %s: %w", id, domain.ErrNotFound)
	}
	return result.FixedProductMarketMaker, nil
}

// doQuery executes a GraphQL query through the executor and returns the raw
// "data" field. GraphQL-level errors are schema errors: the HTTP exchange
// succeeded but the payload is unusable.
func (c *Client) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := c.exec.Execute(ctx, http.MethodPost, "", nil, graphqlRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, err
	}

	var resp graphqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode graphql envelope: %w", domain.ErrSchema)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s: %w", resp.Errors[0].Message, domain.ErrSchema)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("graphql response missing data: %w", domain.ErrSchema)
	}
	return resp.Data, nil
}
