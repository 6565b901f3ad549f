// internal/models/resource.go
package models

import "encoding/json"

type Provenance string

const (
	ProvenanceCatalog Provenance = "catalog"
	ProvenanceGeo     Provenance = "geo"
)

const PriorityCritical = "Critical"

// ResourceEntry is one support resource in a plan's pathway.
type ResourceEntry struct {
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Description string     `json:"description,omitempty"`
	Data        string     `json:"data"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Provenance  Provenance `json:"provenance"`
}

// GeoCandidate is a raw nearby-service result before selection.
type GeoCandidate struct {
	Index      int             `json:"index"`
	Name       string          `json:"name"`
	Rating     *float64        `json:"rating,omitempty"`
	Address    string          `json:"address"`
	Latitude   *float64        `json:"latitude,omitempty"`
	Longitude  *float64        `json:"longitude,omitempty"`
	Types      []string        `json:"types,omitempty"`
	PlaceID    string          `json:"place_id,omitempty"`
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// CandidateSummary is what the reranker may show the reasoning service.
type CandidateSummary struct {
	Index   int      `json:"index"`
	Name    string   `json:"name"`
	Rating  *float64 `json:"rating,omitempty"`
	Address string   `json:"address"`
}

// Summary drops the provider payload and every field beyond index, name,
// rating and address.
func (c GeoCandidate) Summary() CandidateSummary {
	return CandidateSummary{
		Index:   c.Index,
		Name:    c.Name,
		Rating:  c.Rating,
		Address: c.Address,
	}
}

type Exercise struct {
	Title   string   `json:"title"`
	Steps   []string `json:"steps"`
	Benefit string   `json:"benefit"`
}
