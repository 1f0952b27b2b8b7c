package registrar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coursewatch/coursewatch/internal/core/domain"
	"github.com/coursewatch/coursewatch/internal/core/ports/driven"
	"github.com/coursewatch/coursewatch/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// searchPath is the paginated catalog search endpoint.
	searchPath = "/api/courses/search"

	// maxErrorBody bounds how much of an error response body is kept.
	maxErrorBody = 2048
)

// Ensure Client implements the port.
var _ driven.CatalogClient = (*Client)(nil)

// Client issues catalog searches against the registrar API. Every request
// obtains a valid session from the session manager and budget from the rate
// limiter before touching the network.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *SessionManager
	limiter  *RateLimiter
}

// NewClient creates a catalog client. The timeout bounds each request.
func NewClient(baseURL string, sessions *SessionManager, limiter *RateLimiter, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		sessions: sessions,
		limiter:  limiter,
	}
}

// Search issues one paginated search request. On a session rejection it
// invalidates the session and retries exactly once with a fresh one; any
// other failure surfaces as domain.ErrRequestFailed without retry - page
// retry policy belongs to the scraper.
func (c *Client) Search(ctx context.Context, query domain.SearchQuery, pageOffset int) (*domain.SearchResult, error) {
	result, err := c.searchOnce(ctx, query, pageOffset)
	if err == nil {
		return result, nil
	}
	if !IsUnauthorized(err) {
		return nil, err
	}

	// The upstream rejected the session mid-lifetime. Refresh once.
	logger.Debug("Search rejected with auth failure, refreshing session")
	result, err = c.searchOnce(ctx, query, pageOffset)
	if err == nil {
		return result, nil
	}
	if IsUnauthorized(err) {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidSession, err)
	}
	return nil, err
}

// searchOnce performs a single request attempt.
func (c *Client) searchOnce(ctx context.Context, query domain.SearchQuery, pageOffset int) (*domain.SearchResult, error) {
	sess, err := c.sessions.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := c.buildSearchRequest(ctx, query, pageOffset, sess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == 419:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining only
		c.sessions.Invalidate(sess)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    "session rejected",
			URL:        req.URL.String(),
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining only
		cooldown := ParseRetryAfter(resp)
		c.limiter.Cooldown(cooldown)
		logger.Warn("Upstream rate limited, cooling down for %s", c.limiter.CooldownRemaining())
		return nil, fmt.Errorf("%w: %w", domain.ErrRequestFailed,
			fmt.Errorf("%w: %w", domain.ErrRateLimited,
				&RateLimitError{ResetAt: time.Now().Add(c.limiter.CooldownRemaining())}))

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %w", domain.ErrRequestFailed, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			URL:        req.URL.String(),
		})
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %w", domain.ErrRequestFailed, err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: upstream reported failure for term %s offset %d",
			domain.ErrRequestFailed, query.Term, pageOffset)
	}

	return payload.toResult(query.Term), nil
}

// buildSearchRequest assembles the GET with pagination parameters and the
// session cookie attached.
func (c *Client) buildSearchRequest(ctx context.Context, query domain.SearchQuery, pageOffset int, sess domain.Session) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + searchPath)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("term", query.Term)
	if query.Subject != "" {
		q.Set("subject", query.Subject)
	}
	q.Set("pageOffset", strconv.Itoa(pageOffset))
	if query.PageMaxSize > 0 {
		q.Set("pageMaxSize", strconv.Itoa(query.PageMaxSize))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.Token})

	return req, nil
}
