package source

import (
	"encoding/json"
	"net/url"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geo-cli/internal/geocode"
)

const censusBaseURL = "https://geocoding.geo.census.gov"

// USCensus geocodes street addresses against the Census Bureau geocoder.
// It only matches full US street addresses, so it declines fuzzy place-name
// searches.
type USCensus struct {
	BaseURL   string
	Benchmark string
}

// NewUSCensus creates a Census geocoder adapter.
func NewUSCensus() *USCensus {
	return &USCensus{
		BaseURL:   censusBaseURL,
		Benchmark: "Public_AR_Current",
	}
}

// Name implements geocode.Adapter.
func (c *USCensus) Name() string { return "us_census" }

// RateLimit implements geocode.Adapter.
func (c *USCensus) RateLimit() float64 { return 5 }

// Supports accepts address-looking queries only: the Census geocoder matches
// structured street addresses, not landmarks or place names.
func (c *USCensus) Supports(q geocode.Query) bool {
	if q.Mode == geocode.ModeSearch {
		return false
	}
	hasDigit := strings.IndexFunc(q.Text, unicode.IsDigit) >= 0
	return hasDigit && strings.Contains(q.Text, ",")
}

// BuildRequests implements geocode.Adapter.
func (c *USCensus) BuildRequests(q geocode.Query) []geocode.RequestTarget {
	params := url.Values{}
	params.Set("address", q.Text)
	params.Set("benchmark", c.Benchmark)
	params.Set("format", "json")

	return []geocode.RequestTarget{{
		URL: c.BaseURL + "/geocoder/locations/onelineaddress?" + params.Encode(),
	}}
}

type censusResponse struct {
	Result struct {
		AddressMatches []censusMatch `json:"addressMatches"`
	} `json:"result"`
}

type censusMatch struct {
	MatchedAddress string `json:"matchedAddress"`
	Coordinates    struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"coordinates"`
}

// Parse converts a Census geocoder response into candidates. The service
// returns no score, so matches carry a fixed high confidence: it only
// answers at all when the address matched a TIGER range.
func (c *USCensus) Parse(body []byte, _ geocode.Query) ([]geocode.Result, error) {
	var resp censusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "us_census: decode response")
	}

	results := make([]geocode.Result, 0, len(resp.Result.AddressMatches))
	for _, m := range resp.Result.AddressMatches {
		raw, _ := json.Marshal(m)
		results = append(results, geocode.Result{
			Source:      c.Name(),
			Lat:         m.Coordinates.Y,
			Lon:         m.Coordinates.X,
			DisplayName: m.MatchedAddress,
			Confidence:  0.9,
			Raw:         raw,
		})
	}
	return results, nil
}
