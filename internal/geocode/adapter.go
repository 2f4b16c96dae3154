// Package geocode resolves free-form location queries into ranked coordinate
// candidates by fanning out to pluggable source adapters.
package geocode

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
)

// Mode selects how a query should be disambiguated by sources that
// distinguish structured lookup from fuzzy search.
type Mode string

const (
	// ModeAuto lets each adapter decide.
	ModeAuto Mode = "auto"
	// ModeLookup prefers exact, structured address matching.
	ModeLookup Mode = "lookup"
	// ModeSearch prefers fuzzy place-name search.
	ModeSearch Mode = "search"
)

// ParseMode converts a string into a Mode. The empty string means auto.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto":
		return ModeAuto, nil
	case "lookup":
		return ModeLookup, nil
	case "search":
		return ModeSearch, nil
	default:
		return "", eris.Errorf("geocode: unknown mode %q (valid: auto, lookup, search)", s)
	}
}

// Query is an immutable geocoding input.
type Query struct {
	Text string `json:"text"`
	Mode Mode   `json:"mode"`
}

// Result is one candidate coordinate produced by a single adapter
// invocation. Never mutated after creation.
type Result struct {
	Source      string          `json:"source"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	DisplayName string          `json:"display_name"`
	Confidence  float64         `json:"confidence"` // in [0,1]
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// RequestTarget is one HTTP request an adapter wants issued.
type RequestTarget struct {
	URL    string
	Header http.Header
}

// Adapter is a stateless geocoding source. Building requests and parsing
// responses are pure; the composite owns all I/O, pacing, and timeouts.
type Adapter interface {
	// Name identifies the source in results and logs.
	Name() string

	// RateLimit declares the source's request budget in requests per
	// second. Non-positive means the composite default.
	RateLimit() float64

	// Supports reports whether the adapter applies to the query.
	Supports(q Query) bool

	// BuildRequests returns the requests to issue for the query.
	BuildRequests(q Query) []RequestTarget

	// Parse converts one raw response body into zero or more results.
	Parse(body []byte, q Query) ([]Result, error)
}
