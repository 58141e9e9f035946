// Package biorxiv retrieves preprint revision metadata from the bioRxiv
// (and medRxiv) details API.
package biorxiv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/rxivlink/internal/record"
)

const (
	// BaseURL is the bioRxiv API base URL.
	BaseURL = "https://api.biorxiv.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is the default request rate in requests per second.
	RateLimit = 1.0

	// PageSize is the number of records the details endpoint returns per
	// cursor step.
	PageSize = 100

	dateLayout = "2006-01-02"
)

// Servers accepted by the details endpoint.
var Servers = []string{"biorxiv", "medrxiv"}

var (
	// ErrInvalidRequest indicates bad server or date arguments.
	ErrInvalidRequest = errors.New("invalid bioRxiv request")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with bioRxiv")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from bioRxiv")

	// ErrAPIError indicates a non-success HTTP status.
	ErrAPIError = errors.New("bioRxiv API error")
)

// Client is a rate-limited HTTP client for the bioRxiv details API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRateLimit sets the request rate in requests per second.
// Non-positive values disable limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger used to report skipped pages.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new bioRxiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ValidateRange checks the server name and the from/to dates (YYYY-MM-DD).
func ValidateRange(server, from, to string) error {
	known := false
	for _, s := range Servers {
		if server == s {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown server %q (want one of %s)", ErrInvalidRequest, server, strings.Join(Servers, ", "))
	}

	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return fmt.Errorf("%w: from date %q: must be YYYY-MM-DD", ErrInvalidRequest, from)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return fmt.Errorf("%w: to date %q: must be YYYY-MM-DD", ErrInvalidRequest, to)
	}
	if t.Before(f) {
		return fmt.Errorf("%w: to date %s is before from date %s", ErrInvalidRequest, to, from)
	}
	return nil
}

// Details fetches one page of revisions starting at cursor.
func (c *Client) Details(ctx context.Context, server, from, to string, cursor int) (*DetailsResponse, error) {
	if err := ValidateRange(server, from, to); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/details/%s/%s/%s/%d/json", c.baseURL, server, from, to, cursor)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
	}

	var result DetailsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &result, nil
}

// FetchStats summarizes a FetchAll run.
type FetchStats struct {
	Total         int   `json:"total"`
	Pages         int   `json:"pages"`
	FailedPages   int   `json:"failed_pages"`
	Revisions     int   `json:"revisions"`
	FailedCursors []int `json:"failed_cursors,omitempty"`
}

// FetchAll walks every cursor page of the interval and passes each page's
// revisions to fn. A failure on the first page is returned since the total
// is unknown without it. Later page failures are logged and skipped. An
// error from fn stops the walk and is returned.
func (c *Client) FetchAll(ctx context.Context, server, from, to string, fn func([]record.Revision) error) (FetchStats, error) {
	var stats FetchStats

	first, err := c.Details(ctx, server, from, to, 0)
	if err != nil {
		return stats, fmt.Errorf("fetching first page: %w", err)
	}
	stats.Total = first.Total()
	stats.Pages = 1
	if err := emit(first, fn, &stats); err != nil {
		return stats, err
	}

	for cursor := PageSize; cursor < stats.Total; cursor += PageSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		page, err := c.Details(ctx, server, from, to, cursor)
		stats.Pages++
		if err != nil {
			stats.FailedPages++
			stats.FailedCursors = append(stats.FailedCursors, cursor)
			c.logger.Warn("skipping bioRxiv page",
				zap.Int("cursor", cursor),
				zap.Error(err))
			continue
		}
		if err := emit(page, fn, &stats); err != nil {
			return stats, err
		}
	}

	c.logger.Info("bioRxiv fetch complete",
		zap.String("server", server),
		zap.Int("total", stats.Total),
		zap.Int("revisions", stats.Revisions),
		zap.Int("failed_pages", stats.FailedPages))
	return stats, nil
}

func emit(page *DetailsResponse, fn func([]record.Revision) error, stats *FetchStats) error {
	if len(page.Collection) == 0 {
		return nil
	}
	revs := make([]record.Revision, 0, len(page.Collection))
	for _, p := range page.Collection {
		revs = append(revs, ToRevision(p))
	}
	stats.Revisions += len(revs)
	return fn(revs)
}
