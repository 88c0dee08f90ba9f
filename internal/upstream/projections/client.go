// Package projections fetches stat-line predictions from the projections
// service.
package projections

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

	"github.com/fortuna/pythia/internal/cache"
)

const (
	// DefaultPageSize matches the upstream default page window.
	DefaultPageSize = 50

	cacheTTL       = 30 * time.Second
	requestTimeout = 15 * time.Second
)

// Query selects projections. All fields are optional, but callers must
// supply at least one of PlayerName, StatType, or SportID.
type Query struct {
	PlayerName string
	StatType   string
	SportID    int
	Page       int
	PageSize   int
}

// Describe renders the query's filters for use in error and empty-result
// messages.
func (q Query) Describe() string {
	var parts []string
	if q.PlayerName != "" {
		parts = append(parts, fmt.Sprintf("player %q", q.PlayerName))
	}
	if q.StatType != "" {
		parts = append(parts, fmt.Sprintf("stat type %q", q.StatType))
	}
	if q.SportID != 0 {
		parts = append(parts, fmt.Sprintf("sport %d", q.SportID))
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, ", ")
}

// Client talks to the projections service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.ResponseCache
}

// New creates a projections client. The cache may be nil, in which case
// every fetch goes to the network.
func New(baseURL string, responseCache *cache.ResponseCache) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		cache: responseCache,
	}
}

// FetchProjections retrieves one page of projections matching the query.
func (c *Client) FetchProjections(ctx context.Context, q Query) (*Page, error) {
	params := url.Values{}
	if q.PlayerName != "" {
		params.Set("player_name", q.PlayerName)
	}
	if q.StatType != "" {
		params.Set("stat_type", q.StatType)
	}
	if q.SportID != 0 {
		params.Set("sport_id", strconv.Itoa(q.SportID))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}

	requestURL := c.baseURL + "/api/projections"
	if encoded := params.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	body, err := c.fetch(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, fmt.Errorf("decoding projections response: %w", err)
	}
	return page, nil
}

// FetchSports retrieves the catalog of supported sports.
func (c *Client) FetchSports(ctx context.Context) ([]Sport, error) {
	body, err := c.fetch(ctx, c.baseURL+"/api/sports")
	if err != nil {
		return nil, err
	}

	var sports []Sport
	if err := json.Unmarshal(body, &sports); err != nil {
		return nil, fmt.Errorf("decoding sports response: %w", err)
	}
	return sports, nil
}

func (c *Client) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	if cached, ok := c.cache.Get(ctx, requestURL); ok {
		return []byte(cached), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling projections service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("projections service returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	c.cache.Set(ctx, requestURL, string(body), cacheTTL)
	return body, nil
}

// decodePage accepts the canonical paginated envelope. An older protocol
// variant returns a bare array; that shape is folded into a single-page
// envelope here so nothing downstream ever sees it.
func decodePage(body []byte) (*Page, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var items []Projection
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		return &Page{
			Items: items,
			Pagination: Pagination{
				Page:       1,
				TotalPages: 1,
				TotalCount: len(items),
				HasNext:    false,
			},
		}, nil
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n])
}
