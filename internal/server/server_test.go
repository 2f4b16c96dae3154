package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geo-cli/internal/enrich"
	"github.com/sells-group/geo-cli/internal/featureservice"
	"github.com/sells-group/geo-cli/internal/geocode"
	"github.com/sells-group/geo-cli/internal/layers"
	"github.com/sells-group/geo-cli/internal/resolver"
	"github.com/sells-group/geo-cli/internal/store"
)

type fakeGeocoder struct {
	result *geocode.SearchResult
	err    error
}

func (f *fakeGeocoder) Search(context.Context, geocode.Query) (*geocode.SearchResult, error) {
	return f.result, f.err
}

type fakeEnricher struct {
	report *enrich.Report
	err    error
}

func (f *fakeEnricher) Run(context.Context, enrich.Request) (*enrich.Report, error) {
	return f.report, f.err
}

type fakeLayerResolver struct {
	result *resolver.LayerResult
	err    error
}

func (f *fakeLayerResolver) Resolve(context.Context, layers.LayerConfig, float64, float64, float64) (*resolver.LayerResult, error) {
	return f.result, f.err
}

func testRegistry(t *testing.T) *layers.Registry {
	t.Helper()
	reg := layers.NewRegistry()
	require.NoError(t, reg.Register(layers.LayerConfig{
		ID:             "flood_zones",
		Label:          "Flood Zones",
		ServiceURL:     "https://example.com/flood/FeatureServer",
		Geometry:       layers.GeometryPolygon,
		MaxRadiusMiles: 10,
	}))
	return reg
}

func newTestServer(t *testing.T, g Geocoder, e Enricher, res enrich.LayerResolver, st *store.Store) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(g, e, res, testRegistry(t), st).Router())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeGeocoder{}, &fakeEnricher{}, &fakeLayerResolver{}, nil)

	var body map[string]string
	status := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestGeocodeEndpoint(t *testing.T) {
	g := &fakeGeocoder{result: &geocode.SearchResult{
		ID:      "search-1",
		Results: []geocode.Result{{Source: "nominatim", Lat: 42.36, Lon: -71.06, Confidence: 0.9}},
	}}
	srv := newTestServer(t, g, &fakeEnricher{}, &fakeLayerResolver{}, nil)

	var body geocode.SearchResult
	status := getJSON(t, srv.URL+"/v1/geocode?q=Boston", &body)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "nominatim", body.Results[0].Source)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/geocode", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/geocode?q=x&mode=bogus", nil))
}

func TestGeocodeEndpointErrors(t *testing.T) {
	srv := newTestServer(t, &fakeGeocoder{err: geocode.ErrNoAdapters}, &fakeEnricher{}, &fakeLayerResolver{}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, getJSON(t, srv.URL+"/v1/geocode?q=x", nil))

	srv = newTestServer(t, &fakeGeocoder{err: geocode.ErrAllAdaptersFailed}, &fakeEnricher{}, &fakeLayerResolver{}, nil)
	assert.Equal(t, http.StatusBadGateway, getJSON(t, srv.URL+"/v1/geocode?q=x", nil))
}

func TestLayersEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeGeocoder{}, &fakeEnricher{}, &fakeLayerResolver{}, nil)

	var body struct {
		Layers []layers.LayerConfig `json:"layers"`
	}
	status := getJSON(t, srv.URL+"/v1/layers", &body)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body.Layers, 1)
	assert.Equal(t, "flood_zones", body.Layers[0].ID)
}

func TestLayerFeaturesGeoJSON(t *testing.T) {
	x, y := -71.06, 42.36
	res := &fakeLayerResolver{result: &resolver.LayerResult{
		LayerID: "flood_zones",
		Features: []resolver.SpatialFeature{
			{
				ObjectID:      "7",
				Attributes:    map[string]any{"ZONE": "AE"},
				Geometry:      &featureservice.Geometry{X: &x, Y: &y},
				DistanceMiles: 0,
				IsContaining:  true,
				LayerID:       "flood_zones",
				LayerLabel:    "Flood Zones",
			},
		},
	}}
	srv := newTestServer(t, &fakeGeocoder{}, &fakeEnricher{}, res, nil)

	resp, err := http.Get(srv.URL + "/v1/layers/flood_zones/features?lat=42.36&lon=-71.06&radius=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{-71.06, 42.36}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "AE", fc.Features[0].Properties["ZONE"])
	assert.Equal(t, true, fc.Features[0].Properties["is_containing"])
}

func TestLayerFeaturesValidation(t *testing.T) {
	srv := newTestServer(t, &fakeGeocoder{}, &fakeEnricher{}, &fakeLayerResolver{result: &resolver.LayerResult{}}, nil)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/v1/layers/nope/features?lat=1&lon=1", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/layers/flood_zones/features?lat=abc&lon=1", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/layers/flood_zones/features?lat=95&lon=1", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/v1/layers/flood_zones/features?lat=1&lon=1&radius=abc", nil))
}

func TestLayerFeaturesUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &fakeGeocoder{}, &fakeEnricher{}, &fakeLayerResolver{err: eris.New("both passes failed")}, nil)
	assert.Equal(t, http.StatusBadGateway, getJSON(t, srv.URL+"/v1/layers/flood_zones/features?lat=1&lon=1", nil))
}

func TestEnrichEndpointPersists(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "geo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	report := &enrich.Report{
		RunID: "run-1",
		Lat:   42.36, Lon: -71.06,
		Layers: []resolver.LayerResult{{LayerID: "flood_zones"}},
	}
	srv := newTestServer(t, &fakeGeocoder{}, &fakeEnricher{report: report}, &fakeLayerResolver{}, st)

	body, _ := json.Marshal(enrich.Request{Lat: 42.36, Lon: -71.06, RadiusMiles: 5})
	resp, err := http.Post(srv.URL+"/v1/enrich", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got enrich.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "run-1", got.RunID)

	var record store.Enrichment
	status := getJSON(t, srv.URL+"/v1/enrichments/run-1", &record)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 42.36, record.Lat)

	var list struct {
		Enrichments []store.Enrichment `json:"enrichments"`
	}
	status = getJSON(t, srv.URL+"/v1/enrichments", &list)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, list.Enrichments, 1)
}

func TestEnrichEndpointValidation(t *testing.T) {
	srv := newTestServer(t, &fakeGeocoder{}, &fakeEnricher{}, &fakeLayerResolver{}, nil)

	resp, err := http.Post(srv.URL+"/v1/enrich", "application/json", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, _ := json.Marshal(enrich.Request{Lat: 95, Lon: 0})
	resp, err = http.Post(srv.URL+"/v1/enrich", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEnrichmentHistoryWithoutStore(t *testing.T) {
	srv := newTestServer(t, &fakeGeocoder{}, &fakeEnricher{}, &fakeLayerResolver{}, nil)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/v1/enrichments", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/v1/enrichments/x", nil))
}
