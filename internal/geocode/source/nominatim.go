// Package source contains the geocoding adapters shipped with the CLI. Each
// adapter is a stateless capability object: it declares a rate limit,
// decides whether it applies to a query, builds request targets, and parses
// raw responses. All I/O lives in the composite.
package source

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geo-cli/internal/geocode"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim geocodes against the OpenStreetMap Nominatim service.
type Nominatim struct {
	BaseURL   string
	UserAgent string
}

// NewNominatim creates a Nominatim adapter. The user agent is mandatory
// under the Nominatim usage policy.
func NewNominatim(userAgent string) *Nominatim {
	return &Nominatim{
		BaseURL:   nominatimBaseURL,
		UserAgent: userAgent,
	}
}

// Name implements geocode.Adapter.
func (n *Nominatim) Name() string { return "nominatim" }

// RateLimit declares the Nominatim policy limit of one request per second.
func (n *Nominatim) RateLimit() float64 { return 1 }

// Supports accepts every query; Nominatim handles both addresses and place
// names.
func (n *Nominatim) Supports(geocode.Query) bool { return true }

// BuildRequests implements geocode.Adapter.
func (n *Nominatim) BuildRequests(q geocode.Query) []geocode.RequestTarget {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("format", "jsonv2")
	params.Set("limit", "5")

	header := http.Header{}
	if n.UserAgent != "" {
		header.Set("User-Agent", n.UserAgent)
	}

	return []geocode.RequestTarget{{
		URL:    n.BaseURL + "/search?" + params.Encode(),
		Header: header,
	}}
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Parse converts a Nominatim response into candidates. The importance score
// is already roughly in [0,1]; it is clamped to be safe.
func (n *Nominatim) Parse(body []byte, _ geocode.Query) ([]geocode.Result, error) {
	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode response")
	}

	results := make([]geocode.Result, 0, len(places))
	for _, p := range places {
		lat, err1 := strconv.ParseFloat(p.Lat, 64)
		lon, err2 := strconv.ParseFloat(p.Lon, 64)
		if err1 != nil || err2 != nil {
			continue
		}

		confidence := p.Importance
		if confidence > 1 {
			confidence = 1
		}
		if confidence <= 0 {
			confidence = 0.5
		}

		raw, _ := json.Marshal(p)
		results = append(results, geocode.Result{
			Source:      n.Name(),
			Lat:         lat,
			Lon:         lon,
			DisplayName: p.DisplayName,
			Confidence:  confidence,
			Raw:         raw,
		})
	}
	return results, nil
}
