// Package hoops fetches player profiles and per-game box scores from the
// stats service.
package hoops

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
)

const requestTimeout = 15 * time.Second

// Client talks to the stats service. Every request carries the API key in
// the Authorization header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a stats service client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type playersEnvelope struct {
	Data []PlayerProfile `json:"data"`
}

type statsEnvelope struct {
	Data []GameStatLine `json:"data"`
}

// FindPlayers searches player profiles by first and last name.
func (c *Client) FindPlayers(ctx context.Context, firstName, lastName string) ([]PlayerProfile, error) {
	params := url.Values{}
	params.Set("first_name", firstName)
	params.Set("last_name", lastName)

	body, err := c.get(ctx, "/players", params)
	if err != nil {
		return nil, err
	}

	var envelope playersEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding players response: %w", err)
	}
	return envelope.Data, nil
}

// FetchGameStats retrieves per-game stat lines for one player and season.
func (c *Client) FetchGameStats(ctx context.Context, playerID, season, perPage int) ([]GameStatLine, error) {
	params := url.Values{}
	params.Set("player_ids[]", strconv.Itoa(playerID))
	params.Set("seasons[]", strconv.Itoa(season))
	params.Set("per_page", strconv.Itoa(perPage))

	body, err := c.get(ctx, "/stats", params)
	if err != nil {
		return nil, err
	}

	var envelope statsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding stats response: %w", err)
	}
	return envelope.Data, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	requestURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling stats service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats service returned %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n])
}
