package geocode

import (
	"context"
	"io"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/geo-cli/internal/resilience"
)

const (
	defaultRequestTimeout = 4 * time.Second
	defaultRateLimit      = 10.0 // requests per second

	// dedupEpsilon is the coordinate tolerance under which two candidates
	// are the same location (~11 m).
	dedupEpsilon = 1e-4
)

// ErrNoAdapters means no registered adapter supports the query.
var ErrNoAdapters = eris.New("geocode: no adapter supports this query")

// ErrAllAdaptersFailed means every eligible adapter failed completely.
var ErrAllAdaptersFailed = eris.New("geocode: all adapters failed")

// Warning records one skipped request during a search.
type Warning struct {
	Adapter string `json:"adapter"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message"`
}

// SearchResult is the ranked, deduplicated outcome of one composite search,
// together with the non-fatal degradations that occurred along the way.
type SearchResult struct {
	ID       string    `json:"id"`
	Query    Query     `json:"query"`
	Results  []Result  `json:"results"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Cache stores search results keyed by query. Implementations own their
// error handling; misses and storage failures both look like absence.
type Cache interface {
	Get(ctx context.Context, q Query) ([]Result, bool)
	Put(ctx context.Context, q Query, results []Result)
}

// Composite fans a query out to every eligible adapter, enforces adapter
// rate limits and per-request timeouts, and merges, deduplicates, and ranks
// the candidates.
type Composite struct {
	registry *Registry
	http     *http.Client
	timeout  time.Duration
	cache    Cache
}

// CompositeOption configures a Composite.
type CompositeOption func(*Composite)

// WithHTTPClient overrides the HTTP client used for adapter requests.
func WithHTTPClient(h *http.Client) CompositeOption {
	return func(c *Composite) { c.http = h }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) CompositeOption {
	return func(c *Composite) { c.timeout = d }
}

// WithCache attaches a search result cache.
func WithCache(cache Cache) CompositeOption {
	return func(c *Composite) { c.cache = cache }
}

// NewComposite creates a composite geocoder over the given registry.
func NewComposite(reg *Registry, opts ...CompositeOption) *Composite {
	c := &Composite{
		registry: reg,
		http:     &http.Client{},
		timeout:  defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// coordPattern matches bare "lat, lon" queries.
var coordPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// adapterOutcome carries one adapter's contribution through the barrier.
type adapterOutcome struct {
	results   []Result
	warnings  []Warning
	succeeded bool // at least one request completed and parsed
}

// Search resolves a query into ranked geocode candidates. Individual request
// failures degrade coverage, not correctness: they are logged, recorded as
// warnings, and skipped. Search fails only when no adapter applies or every
// eligible adapter failed completely.
func (c *Composite) Search(ctx context.Context, q Query) (*SearchResult, error) {
	log := zap.L().With(
		zap.String("component", "geocode"),
		zap.String("query", q.Text),
	)

	result := &SearchResult{
		ID:    uuid.New().String(),
		Query: q,
	}

	// A literal coordinate pair needs no remote source.
	if r, ok := parseCoordinate(q.Text); ok {
		result.Results = []Result{r}
		return result, nil
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, q); ok {
			log.Debug("cache hit", zap.Int("results", len(cached)))
			result.Results = cached
			return result, nil
		}
	}

	var eligible []Adapter
	for _, a := range c.registry.All() {
		if a.Supports(q) {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		log.Warn("no adapter supports query", zap.Strings("registered", c.registry.Names()))
		return nil, ErrNoAdapters
	}

	// Fan out one worker per adapter; requests inside an adapter stay
	// strictly sequential and rate-spaced. The barrier waits for every
	// adapter before merging, so no streaming race decides order.
	outcomes := make([]adapterOutcome, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range eligible {
		g.Go(func() error {
			outcomes[i] = c.runAdapter(gctx, a, q)
			return nil
		})
	}
	// Workers only report through outcomes.
	_ = g.Wait()

	anySucceeded := false
	var merged []Result
	for i, a := range eligible {
		out := outcomes[i]
		result.Warnings = append(result.Warnings, out.warnings...)
		if out.succeeded {
			anySucceeded = true
		}
		for _, r := range out.results {
			if r.Source == "" {
				r.Source = a.Name()
			}
			merged = append(merged, r)
		}
	}

	if !anySucceeded {
		log.Warn("search exhausted: every adapter failed",
			zap.Int("adapters", len(eligible)),
			zap.Int("warnings", len(result.Warnings)),
		)
		return nil, ErrAllAdaptersFailed
	}

	result.Results = rank(dedupe(merged))

	if c.cache != nil && len(result.Results) > 0 {
		c.cache.Put(ctx, q, result.Results)
	}

	log.Info("search complete",
		zap.String("search_id", result.ID),
		zap.Int("results", len(result.Results)),
		zap.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// runAdapter executes one adapter's request list sequentially, spacing
// requests by the adapter's declared rate limit. A failed request is
// recorded and skipped; it neither fails the adapter nor cancels the
// remaining requests in the loop.
func (c *Composite) runAdapter(ctx context.Context, a Adapter, q Query) adapterOutcome {
	log := zap.L().With(
		zap.String("component", "geocode"),
		zap.String("adapter", a.Name()),
	)

	rps := a.RateLimit()
	if rps <= 0 {
		rps = defaultRateLimit
	}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)

	var out adapterOutcome
	for _, target := range a.BuildRequests(q) {
		if err := limiter.Wait(ctx); err != nil {
			out.warnings = append(out.warnings, Warning{
				Adapter: a.Name(),
				Message: "search cancelled: " + err.Error(),
			})
			return out
		}

		body, err := c.doRequest(ctx, target)
		if err != nil {
			log.Warn("request skipped",
				zap.String("url", target.URL),
				zap.Bool("transient", resilience.IsTransient(err)),
				zap.Error(err),
			)
			out.warnings = append(out.warnings, Warning{
				Adapter: a.Name(),
				Target:  target.URL,
				Message: err.Error(),
			})
			continue
		}

		results, err := a.Parse(body, q)
		if err != nil {
			log.Warn("response unparseable", zap.String("url", target.URL), zap.Error(err))
			out.warnings = append(out.warnings, Warning{
				Adapter: a.Name(),
				Target:  target.URL,
				Message: err.Error(),
			})
			continue
		}

		out.succeeded = true
		out.results = append(out.results, results...)
	}
	return out
}

// doRequest issues exactly one attempt for an adapter request under the
// per-request timeout. Failures are never retried here; the caller records
// them and moves on, so a flaky source costs its own coverage only.
func (c *Composite) doRequest(ctx context.Context, target RequestTarget) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target.URL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	for k, vs := range target.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("geocode: status %d from %s", resp.StatusCode, target.URL)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}
	return body, nil
}

// dedupe removes candidates within dedupEpsilon degrees of an earlier
// candidate on both axes; the first seen wins.
func dedupe(results []Result) []Result {
	var out []Result
	for _, r := range results {
		dup := false
		for _, kept := range out {
			if math.Abs(r.Lat-kept.Lat) < dedupEpsilon && math.Abs(r.Lon-kept.Lon) < dedupEpsilon {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// rank sorts by confidence descending; ties keep their relative order.
func rank(results []Result) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// parseCoordinate recognizes literal "lat, lon" queries.
func parseCoordinate(text string) (Result, bool) {
	m := coordPattern.FindStringSubmatch(text)
	if m == nil {
		return Result{}, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Result{}, false
	}
	return Result{
		Source:      "coordinates",
		Lat:         lat,
		Lon:         lon,
		DisplayName: strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lon, 'f', -1, 64),
		Confidence:  1,
	}, true
}
