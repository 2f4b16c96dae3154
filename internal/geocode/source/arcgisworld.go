package source

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geo-cli/internal/geocode"
)

const arcgisWorldBaseURL = "https://geocode.arcgis.com"

// ArcGISWorld geocodes against the ArcGIS World Geocoding Service.
type ArcGISWorld struct {
	BaseURL      string
	MaxLocations int
}

// NewArcGISWorld creates an ArcGIS World Geocoder adapter.
func NewArcGISWorld() *ArcGISWorld {
	return &ArcGISWorld{
		BaseURL:      arcgisWorldBaseURL,
		MaxLocations: 5,
	}
}

// Name implements geocode.Adapter.
func (a *ArcGISWorld) Name() string { return "arcgis_world" }

// RateLimit implements geocode.Adapter.
func (a *ArcGISWorld) RateLimit() float64 { return 10 }

// Supports implements geocode.Adapter.
func (a *ArcGISWorld) Supports(geocode.Query) bool { return true }

// BuildRequests implements geocode.Adapter.
func (a *ArcGISWorld) BuildRequests(q geocode.Query) []geocode.RequestTarget {
	params := url.Values{}
	params.Set("f", "json")
	params.Set("singleLine", q.Text)
	params.Set("outFields", "*")
	params.Set("maxLocations", strconv.Itoa(a.MaxLocations))
	if q.Mode == geocode.ModeLookup {
		// Restrict to address categories for structured lookups.
		params.Set("category", "Address")
	}

	return []geocode.RequestTarget{{
		URL: a.BaseURL + "/arcgis/rest/services/World/GeocodeServer/findAddressCandidates?" + params.Encode(),
	}}
}

type arcgisCandidatesResponse struct {
	Candidates []arcgisCandidate `json:"candidates"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type arcgisCandidate struct {
	Address  string  `json:"address"`
	Score    float64 `json:"score"` // 0-100
	Location struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"location"`
}

// Parse converts a findAddressCandidates response into candidates, mapping
// the 0-100 match score onto [0,1].
func (a *ArcGISWorld) Parse(body []byte, _ geocode.Query) ([]geocode.Result, error) {
	var resp arcgisCandidatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "arcgis_world: decode response")
	}
	if resp.Error != nil {
		return nil, eris.Errorf("arcgis_world: service error: %s", resp.Error.Message)
	}

	results := make([]geocode.Result, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		raw, _ := json.Marshal(c)
		results = append(results, geocode.Result{
			Source:      a.Name(),
			Lat:         c.Location.Y,
			Lon:         c.Location.X,
			DisplayName: c.Address,
			Confidence:  c.Score / 100,
			Raw:         raw,
		})
	}
	return results, nil
}
