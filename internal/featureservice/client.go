// Package featureservice implements a client for ArcGIS-style feature query
// endpoints: spatially filtered queries with server-driven pagination. The
// client knows nothing about layers or enrichment semantics; it returns raw
// features and leaves containment and distance logic to the resolver.
package featureservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geo-cli/internal/geomath"
)

const (
	defaultPageSize  = 1000
	defaultPageDelay = 100 * time.Millisecond
	defaultTimeout   = 30 * time.Second

	// maxTotalFeatures is a fail-safe against runaway remote datasets.
	// Pagination stops unconditionally once this many features accumulate.
	maxTotalFeatures = 100000
)

// RemoteError is an application-level error reported in a feature service
// response body (as opposed to a transport failure).
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("feature service error %d: %s", e.Code, e.Message)
}

// IsRemote reports whether the error chain contains a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// Query describes one spatial filter. Exactly one of Point or Envelope
// should be set; DistanceMiles adds a buffer around a point filter.
type Query struct {
	Point          *geomath.Point
	Envelope       *Envelope
	DistanceMiles  float64
	Where          string // predicate clause, default "1=1"
	ReturnGeometry bool
}

// Client fetches complete feature sets from remote paged services.
type Client struct {
	http        *http.Client
	pageSize    int
	pageDelay   time.Duration
	maxFeatures int
	clock       clockwork.Clock
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPageSize sets the per-request record count.
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = n }
}

// WithPageDelay sets the cooperative delay between page requests.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

// WithMaxFeatures overrides the pagination safety ceiling.
func WithMaxFeatures(n int) Option {
	return func(c *Client) { c.maxFeatures = n }
}

// WithClock injects a clock for the inter-page delay. Tests use a fake.
func WithClock(clk clockwork.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// NewClient creates a feature service client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: defaultTimeout},
		pageSize:    defaultPageSize,
		pageDelay:   defaultPageDelay,
		maxFeatures: maxTotalFeatures,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query retrieves every feature matching q from the endpoint, following the
// pagination cursor until the server stops signalling more results. Paging
// continues while a page comes back full or flagged exceededTransferLimit.
//
// A remote or transport error on the first page returns (nil, err). An error
// on a later page returns the features accumulated so far together with the
// error, so best-effort callers can warn and keep the partial set.
func (c *Client) Query(ctx context.Context, endpoint string, q Query) ([]Feature, error) {
	log := zap.L().With(
		zap.String("component", "featureservice"),
		zap.String("endpoint", endpoint),
	)

	var features []Feature
	offset := 0

	for {
		page, exceeded, err := c.fetchPage(ctx, endpoint, q, offset)
		if err != nil {
			if len(features) == 0 {
				return nil, err
			}
			return features, err
		}

		features = append(features, page...)

		if len(features) > c.maxFeatures {
			log.Warn("pagination ceiling exceeded, returning truncated feature set",
				zap.Int("accumulated", len(features)),
				zap.Int("ceiling", c.maxFeatures),
			)
			break
		}

		// An empty page cannot advance the cursor even when the server
		// claims more results exist.
		if len(page) == 0 {
			break
		}
		if len(page) < c.pageSize && !exceeded {
			break
		}

		offset += len(page)
		log.Debug("fetching next page", zap.Int("offset", offset))

		select {
		case <-ctx.Done():
			return features, eris.Wrap(ctx.Err(), "featureservice: pagination cancelled")
		case <-c.clock.After(c.pageDelay):
		}
	}

	return features, nil
}

// fetchPage issues one page request and decodes it.
func (c *Client) fetchPage(ctx context.Context, endpoint string, q Query, offset int) ([]Feature, bool, error) {
	params, err := c.buildParams(q, offset)
	if err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, eris.Wrapf(err, "featureservice: build request for %s", endpoint)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, eris.Wrapf(err, "featureservice: query %s", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, eris.Errorf("featureservice: query %s returned status %d", endpoint, resp.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, false, eris.Wrapf(err, "featureservice: decode response from %s", endpoint)
	}

	if qr.Error != nil {
		return nil, false, eris.Wrapf(
			&RemoteError{Code: qr.Error.Code, Message: qr.Error.Message},
			"featureservice: query %s", endpoint,
		)
	}

	return qr.Features, qr.ExceededTransferLimit, nil
}

// buildParams assembles the feature query parameters for one page.
func (c *Client) buildParams(q Query, offset int) (url.Values, error) {
	where := q.Where
	if where == "" {
		where = "1=1"
	}

	params := url.Values{}
	params.Set("f", "json")
	params.Set("where", where)
	params.Set("outFields", "*")
	params.Set("spatialRel", "esriSpatialRelIntersects")
	params.Set("inSR", "4326")
	params.Set("outSR", "4326")
	params.Set("returnGeometry", strconv.FormatBool(q.ReturnGeometry))
	params.Set("resultOffset", strconv.Itoa(offset))
	params.Set("resultRecordCount", strconv.Itoa(c.pageSize))

	switch {
	case q.Point != nil:
		geometry, err := json.Marshal(map[string]any{
			"x":                q.Point.Lon,
			"y":                q.Point.Lat,
			"spatialReference": map[string]int{"wkid": 4326},
		})
		if err != nil {
			return nil, eris.Wrap(err, "featureservice: marshal point geometry")
		}
		params.Set("geometry", string(geometry))
		params.Set("geometryType", "esriGeometryPoint")
		if q.DistanceMiles > 0 {
			params.Set("distance", strconv.FormatFloat(q.DistanceMiles, 'f', -1, 64))
			params.Set("units", "esriSRUnit_StatuteMile")
		}
	case q.Envelope != nil:
		geometry, err := json.Marshal(map[string]any{
			"xmin":             q.Envelope.XMin,
			"ymin":             q.Envelope.YMin,
			"xmax":             q.Envelope.XMax,
			"ymax":             q.Envelope.YMax,
			"spatialReference": map[string]int{"wkid": 4326},
		})
		if err != nil {
			return nil, eris.Wrap(err, "featureservice: marshal envelope geometry")
		}
		params.Set("geometry", string(geometry))
		params.Set("geometryType", "esriGeometryEnvelope")
	default:
		return nil, eris.New("featureservice: query needs a point or envelope filter")
	}

	return params, nil
}
