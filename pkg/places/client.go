// Package places provides a client for the Google Places Nearby Search API
// (legacy maps.googleapis.com endpoint) honoring the provider's pagination
// contract: at most three pages per location and a settle delay before a
// continuation token becomes valid.
package places

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

	// defaultMaxPages caps pagination per coordinate (3 pages x 20 results).
	defaultMaxPages = 3

	// defaultPageDelay is the wait before a continuation token may be used.
	// The provider indexes tokens asynchronously and rejects immediate reuse.
	defaultPageDelay = 2 * time.Second
)

// ErrRateLimited indicates the provider throttled the request
// (OVER_QUERY_LIMIT). Callers may retry the whole scan later.
var ErrRateLimited = eris.New("places: rate limited by provider")

// Client performs Nearby Search queries against the places provider.
type Client interface {
	// NearbySearch returns up to maxPages pages of businesses near the
	// coordinate matching keyword, ranked by distance, in response order.
	// On a mid-pagination failure the pages already gathered are returned
	// alongside the error.
	NearbySearch(ctx context.Context, lat, lon float64, keyword string) ([]Place, error)
}

// Place is one Nearby Search result. Rating and UserRatingsTotal tolerate
// absent, null, or quoted values in the payload and decode to zero; a
// missing rating must not drop the record.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           LaxFloat `json:"rating"`
	UserRatingsTotal LaxInt   `json:"user_ratings_total"`
}

type nearbyResponse struct {
	Results       []Place `json:"results"`
	NextPageToken string  `json:"next_page_token"`
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a requests-per-second limit shared by all callers of
// this client.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPageDelay overrides the continuation-token settle delay.
func WithPageDelay(d time.Duration) Option {
	return func(c *httpClient) {
		c.pageDelay = d
	}
}

// WithMaxPages overrides the per-coordinate page cap.
func WithMaxPages(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	pageDelay time.Duration
	maxPages  int
}

// NewClient creates a Nearby Search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		pageDelay: defaultPageDelay,
		maxPages:  defaultMaxPages,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, lat, lon float64, keyword string) ([]Place, error) {
	var (
		all       []Place
		pageToken string
	)

	for page := 0; page < c.maxPages; page++ {
		if pageToken != "" {
			// The token is invalid until the provider has indexed it.
			select {
			case <-ctx.Done():
				return all, eris.Wrap(ctx.Err(), "places: wait for page token")
			case <-time.After(c.pageDelay):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return all, eris.Wrap(err, "places: rate limit wait")
			}
		}

		resp, err := c.fetchPage(ctx, lat, lon, keyword, pageToken)
		if err != nil {
			// Keep the pages already gathered.
			return all, err
		}

		all = append(all, resp.Results...)

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return all, nil
}

func (c *httpClient) fetchPage(ctx context.Context, lat, lon float64, keyword, pageToken string) (*nearbyResponse, error) {
	params := url.Values{
		"location": {strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)},
		"keyword":  {keyword},
		"rankby":   {"distance"},
		"key":      {c.apiKey},
	}
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, eris.Wrapf(ErrRateLimited, "places: status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result nearbyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	switch result.Status {
	case "OK", "ZERO_RESULTS":
		return &result, nil
	case "OVER_QUERY_LIMIT":
		return nil, eris.Wrapf(ErrRateLimited, "places: %s", result.ErrorMessage)
	default:
		return nil, eris.Errorf("places: provider status %s: %s", result.Status, result.ErrorMessage)
	}
}
