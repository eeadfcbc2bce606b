// Package upstream implements the resilient request pipeline shared by every
// market-data client: response caching, minimum-interval rate governing, and
// retry with capped exponential backoff on throttling or anti-bot blocking.
package upstream

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/alanyoungcy/marketlens/internal/domain"
)

// Options configures an Executor. Zero fields fall back to the documented
// defaults.
type Options struct {
	// BaseURL is the upstream root, e.g. "https://clob.polymarket.com".
	BaseURL string

	Cache    domain.ResponseCache
	Governor domain.RateGovernor
	Logger   *slog.Logger

	// MaxRetries is the total attempt budget (default 3).
	MaxRetries int

	// BackoffBase and BackoffCap shape the pre-attempt cooldown:
	// min(BackoffCap, BackoffBase * 2^attempt). Defaults 30s / 120s.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// AttemptTimeout bounds a single HTTP exchange (default 30s). The caller
	// context bounds the whole retry sequence.
	AttemptTimeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// ExtraHeaders are set on every request after the fixed header set,
	// e.g. an Authorization header for keyed subgraph endpoints.
	ExtraHeaders map[string]string
}

// Executor issues HTTP calls against one upstream host through the cache and
// rate governor, retrying throttled or blocked attempts. It is safe for
// concurrent use; identical in-flight requests are collapsed into one
// upstream call.
type Executor struct {
	baseURL     string
	cache       domain.ResponseCache
	governor    domain.RateGovernor
	logger      *slog.Logger
	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration
	timeout     time.Duration
	client      *http.Client
	extra       map[string]string
	group       singleflight.Group
}

// NewExecutor creates an Executor from opts.
func NewExecutor(opts Options) *Executor {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 30 * time.Second
	}
	if opts.BackoffCap <= 0 {
		opts.BackoffCap = 120 * time.Second
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Executor{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		cache:       opts.Cache,
		governor:    opts.Governor,
		logger:      opts.Logger,
		maxRetries:  opts.MaxRetries,
		backoffBase: opts.BackoffBase,
		backoffCap:  opts.BackoffCap,
		timeout:     opts.AttemptTimeout,
		client:      opts.HTTPClient,
		extra:       opts.ExtraHeaders,
	}
}

// Execute issues method against path with the given query parameters and
// optional JSON body, and returns the validated raw JSON response. Concurrent
// calls with the same request key share one upstream exchange; waiters whose
// own context expires return early, and a waiter whose context is still live
// when the initiating caller cancels re-executes rather than inheriting the
// foreign cancellation.
func (e *Executor) Execute(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("upstream: marshal request body: %w", err)
		}
	}

	fullURL := e.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	key := requestKey(method, fullURL, bodyBytes)

	for {
		ch := e.group.DoChan(key, func() (any, error) {
			return e.do(ctx, method, fullURL, bodyBytes, key)
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// The shared execution runs on the initiating caller's
				// context. A context error with our own context live means
				// the initiator cancelled, not us: drop the dead flight and
				// run our own.
				if isContextError(res.Err) && ctx.Err() == nil {
					e.group.Forget(key)
					continue
				}
				return nil, res.Err
			}
			return res.Val.(json.RawMessage), nil
		}
	}
}

// isContextError reports whether err is a context cancellation or deadline.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// do runs the attempt loop for one logical request.
func (e *Executor) do(ctx context.Context, method, fullURL string, bodyBytes []byte, key string) (json.RawMessage, error) {
	logger := e.logger.With(
		slog.String("call_id", uuid.NewString()),
		slog.String("method", method),
		slog.String("url", fullURL),
	)

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		// A concurrent caller may have populated the cache since the last
		// attempt, so the cache is consulted on every pass.
		if cached, ok := e.cache.Get(ctx, key); ok {
			logger.DebugContext(ctx, "cache hit", slog.Int("attempt", attempt))
			return cached, nil
		}

		// Cooldown after a rejected attempt, distinct from the steady-state
		// governor spacing.
		if attempt > 0 {
			delay := backoffDelay(e.backoffBase, e.backoffCap, attempt)
			logger.InfoContext(ctx, "retrying after backoff",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := e.governor.Throttle(ctx); err != nil {
			return nil, err
		}

		respBody, status, err := e.attempt(ctx, method, fullURL, bodyBytes)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Transport failures are retried like throttled outcomes.
			if attempt == e.maxRetries-1 {
				return nil, fmt.Errorf("upstream: %s %s: %v: %w", method, fullURL, err, domain.ErrConnection)
			}
			logger.WarnContext(ctx, "transport failure, will retry",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			continue
		}

		if status == http.StatusTooManyRequests || containsFold(respBody, antiBotMarker) {
			if attempt == e.maxRetries-1 {
				return nil, fmt.Errorf("upstream: %s %s: retries exhausted: %w", method, fullURL, domain.ErrRateLimited)
			}
			logger.WarnContext(ctx, "throttled or blocked, will retry",
				slog.Int("attempt", attempt),
				slog.Int("status", status),
			)
			continue
		}

		if status != http.StatusOK {
			return nil, &domain.UpstreamError{Status: status, Body: string(respBody)}
		}

		if !json.Valid(respBody) {
			return nil, fmt.Errorf("upstream: %s %s: %w", method, fullURL, domain.ErrDecode)
		}

		e.cache.Put(ctx, key, respBody)
		return json.RawMessage(respBody), nil
	}

	// The loop always exits through a terminal branch above; this is the
	// explicit absent result for a zero-attempt budget.
	return nil, fmt.Errorf("upstream: %s %s: no attempts made: %w", method, fullURL, domain.ErrRateLimited)
}

// attempt performs one HTTP exchange bounded by the per-attempt timeout.
func (e *Executor) attempt(ctx context.Context, method, fullURL string, bodyBytes []byte) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var reader io.Reader
	if bodyBytes != nil {
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, fullURL, reader)
	if err != nil {
		return nil, 0, err
	}
	applyHeaders(req)
	for k, v := range e.extra {
		req.Header.Set(k, v)
	}
	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return respBody, resp.StatusCode, nil
}

// backoffDelay computes the pre-attempt cooldown min(max, base * 2^attempt).
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base << uint(attempt)
	if d > max || d <= 0 {
		return max
	}
	return d
}

// requestKey derives the deterministic cache and dedup key for a logical
// request. url.Values.Encode sorts parameters, so identical requests always
// produce the same key; a body digest distinguishes GraphQL posts.
func requestKey(method, fullURL string, body []byte) string {
	key := method + " " + fullURL
	if len(body) > 0 {
		sum := sha256.Sum256(body)
		key += " " + hex.EncodeToString(sum[:8])
	}
	return key
}

// containsFold reports whether body contains the marker, case-insensitively.
func containsFold(body []byte, marker string) bool {
	return strings.Contains(strings.ToLower(string(body)), marker)
}
