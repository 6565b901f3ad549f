package fetchnearbyresources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/common/places"
	"careplan-workers/internal/models"
)

type Query struct {
	Latitude     float64
	Longitude    float64
	Keyword      string
	RadiusMeters int
	Limit        int
}

// Directory is an external places directory. Results come back in the
// directory's own relevance order.
type Directory interface {
	Nearby(ctx context.Context, q Query) ([]models.GeoCandidate, error)
}

// ==========================
// Google Places
// ==========================

type PlacesDirectory struct {
	client *places.Client
}

func NewPlacesDirectory(client *places.Client) *PlacesDirectory {
	return &PlacesDirectory{client: client}
}

func (d *PlacesDirectory) Nearby(ctx context.Context, q Query) ([]models.GeoCandidate, error) {
	results, err := d.client.NearbySearch(ctx, places.NearbyQuery{
		Latitude:     q.Latitude,
		Longitude:    q.Longitude,
		Keyword:      q.Keyword,
		RadiusMeters: q.RadiusMeters,
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.GeoCandidate, 0, len(results))
	for _, p := range results {
		c := models.GeoCandidate{
			Name:       p.Name,
			Rating:     p.Rating,
			Address:    p.Vicinity,
			Types:      p.Types,
			PlaceID:    p.PlaceID,
			RawPayload: p.Raw,
		}
		if p.Geometry != nil && p.Geometry.Location != nil {
			lat, lng := p.Geometry.Location.Lat, p.Geometry.Location.Lng
			c.Latitude, c.Longitude = &lat, &lng
		}
		out = append(out, c)
	}
	return out, nil
}

// ==========================
// Elasticsearch
// ==========================

// ElasticsearchDirectory searches a curated index of local services with a
// geo_point "location" field.
type ElasticsearchDirectory struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchDirectory(client *elasticsearch.Client, index string) *ElasticsearchDirectory {
	return &ElasticsearchDirectory{client: client, index: index}
}

type serviceDoc struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Rating   *float64 `json:"rating"`
	Address  string   `json:"address"`
	Types    []string `json:"types"`
	Location *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"location"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildNearbyQuery(q Query) map[string]interface{} {
	point := map[string]interface{}{"lat": q.Latitude, "lon": q.Longitude}
	return map[string]interface{}{
		"size": q.Limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  strings.Join(strings.Fields(strings.ReplaceAll(q.Keyword, "|", " ")), " "),
							"fields": []string{"name^2", "services", "types"},
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{
						"geo_distance": map[string]interface{}{
							"distance": fmt.Sprintf("%dm", q.RadiusMeters),
							"location": point,
						},
					},
				},
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{
				"_geo_distance": map[string]interface{}{
					"location": point,
					"order":    "asc",
					"unit":     "m",
				},
			},
		},
	}
}

func (d *ElasticsearchDirectory) Nearby(ctx context.Context, q Query) ([]models.GeoCandidate, error) {
	body, err := json.Marshal(buildNearbyQuery(q))
	if err != nil {
		return nil, fmt.Errorf("marshal nearby query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{d.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return nil, apperrors.NewTransportFailureError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewTransportFailureError("elasticsearch", fmt.Errorf("search error: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewParseFailureError("elasticsearch_search", err)
	}

	out := make([]models.GeoCandidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var doc serviceDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil || doc.Name == "" {
			continue
		}
		c := models.GeoCandidate{
			Name:       doc.Name,
			Rating:     doc.Rating,
			Address:    doc.Address,
			Types:      doc.Types,
			PlaceID:    hit.ID,
			RawPayload: hit.Source,
		}
		if doc.Location != nil {
			lat, lon := doc.Location.Lat, doc.Location.Lon
			c.Latitude, c.Longitude = &lat, &lon
		}
		out = append(out, c)
	}
	return out, nil
}
