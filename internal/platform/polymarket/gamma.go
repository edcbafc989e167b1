// Package polymarket is the REST client for the Polymarket Gamma API, which
// provides event discovery and metadata.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

// DefaultGammaURL is the public Gamma API root.
const DefaultGammaURL = "https://gamma-api.polymarket.com"

// GammaClient is the Gamma API client.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaURL
	}
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
	}
}

// ActiveEvents returns currently open events: active, not closed, not
// archived, and ending after now.
func (g *GammaClient) ActiveEvents(ctx context.Context, limit int) ([]domain.MarketEvent, error) {
	if limit <= 0 {
		limit = 200
	}
	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("archived", "false")
	params.Set("end_date_min", g.now().UTC().Format(time.RFC3339))
	params.Set("limit", strconv.Itoa(limit))

	path := "/events?" + params.Encode()

	body, err := g.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	var apiEvents []APIEvent
	if err := json.Unmarshal(body, &apiEvents); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}

	events := make([]domain.MarketEvent, 0, len(apiEvents))
	for i := range apiEvents {
		events = append(events, apiEvents[i].ToDomain())
	}
	return events, nil
}

// Event returns a single event by its ID.
func (g *GammaClient) Event(ctx context.Context, id string) (domain.MarketEvent, error) {
	path := fmt.Sprintf("/events/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return domain.MarketEvent{}, fmt.Errorf("polymarket/gamma: get event %s: %w", id, err)
	}

	var apiEvent APIEvent
	if err := json.Unmarshal(body, &apiEvent); err != nil {
		return domain.MarketEvent{}, fmt.Errorf("polymarket/gamma: decode event: %w", err)
	}
	return apiEvent.ToDomain(), nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
