// Package places talks to the Google Places Nearby Search API.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/validation"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"

	maxBodyBytes = 4 << 20
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type NearbyQuery struct {
	Latitude     float64
	Longitude    float64
	Keyword      string
	RadiusMeters int
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geometry struct {
	Location *Location `json:"location,omitempty"`
}

// Place is one Nearby Search result in the directory's own relevance order.
type Place struct {
	Name     string          `json:"name"`
	Rating   *float64        `json:"rating,omitempty"`
	Vicinity string          `json:"vicinity,omitempty"`
	Geometry *Geometry       `json:"geometry,omitempty"`
	Types    []string        `json:"types,omitempty"`
	PlaceID  string          `json:"place_id,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

type nearbyResponse struct {
	Results      []Place `json:"results"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

var responseContract = validation.MustContract[nearbyResponse]("places_nearby", validation.AllowAdditionalProperties())

// NearbySearch runs one keyword query. ZERO_RESULTS is an empty slice, any other
// non-OK status is a transport failure.
func (c *Client) NearbySearch(ctx context.Context, q NearbyQuery) ([]Place, error) {
	params := url.Values{}
	params.Set("location", strconv.FormatFloat(q.Latitude, 'f', -1, 64)+","+strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(q.RadiusMeters))
	params.Set("keyword", q.Keyword)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/nearbysearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportFailureError("places", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewTransportFailureError("places", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewTransportFailureError("places", fmt.Errorf("status %d", resp.StatusCode))
	}

	decoded, err := responseContract.Decode(body)
	if err != nil {
		return nil, err
	}

	switch decoded.Status {
	case statusOK:
	case statusZeroResults:
		return []Place{}, nil
	default:
		return nil, apperrors.NewTransportFailureError("places", fmt.Errorf("status %s: %s", decoded.Status, decoded.ErrorMessage))
	}

	var raw struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &raw); err == nil && len(raw.Results) == len(decoded.Results) {
		for i := range decoded.Results {
			decoded.Results[i].Raw = raw.Results[i]
		}
	}
	return decoded.Results, nil
}
