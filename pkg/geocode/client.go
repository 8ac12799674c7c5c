// Package geocode resolves free-form location strings to coordinates via
// the Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Client geocodes location strings.
type Client interface {
	// Geocode resolves a location like "Austin, TX" to coordinates.
	// An unrecognized location yields Matched == false, not an error.
	Geocode(ctx context.Context, location string) (*Result, error)
}

// Result holds the geocoding output for a location.
type Result struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Matched          bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.http = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type geocoder struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a geocoding Client.
func NewClient(apiKey string, opts ...Option) Client {
	g := &geocoder{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(10, 1),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *geocoder) Geocode(ctx context.Context, location string) (*Result, error) {
	if location == "" {
		return nil, eris.New("geocode: location is required")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	params := url.Values{
		"address": {location},
		"key":     {g.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed geocodeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}

	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return &Result{Matched: false}, nil
	}

	first := parsed.Results[0]
	return &Result{
		Latitude:         first.Geometry.Location.Lat,
		Longitude:        first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
		Matched:          true,
	}, nil
}
