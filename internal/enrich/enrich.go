// Package enrich fans one coordinate out across every configured spatial
// layer and assembles the per-layer results into a single report.
package enrich

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geo-cli/internal/layers"
	"github.com/sells-group/geo-cli/internal/resolver"
)

const (
	defaultConcurrency  = 5
	defaultLayerTimeout = 30 * time.Second
)

// LayerResolver resolves one layer around a point. *resolver.Resolver
// satisfies it.
type LayerResolver interface {
	Resolve(ctx context.Context, cfg layers.LayerConfig, lat, lon, requestedMiles float64) (*resolver.LayerResult, error)
}

// Engine runs layer resolutions in parallel with a bounded worker pool.
type Engine struct {
	res          LayerResolver
	reg          *layers.Registry
	concurrency  int
	layerTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency bounds how many layers resolve at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLayerTimeout caps how long a single layer may take.
func WithLayerTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.layerTimeout = d
		}
	}
}

// NewEngine creates an enrichment engine over a layer registry.
func NewEngine(res LayerResolver, reg *layers.Registry, opts ...Option) *Engine {
	e := &Engine{
		res:          res,
		reg:          reg,
		concurrency:  defaultConcurrency,
		layerTimeout: defaultLayerTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request selects what to enrich. An empty LayerIDs means every registered
// layer; a non-nil Geometry restricts to layers of that kind.
type Request struct {
	Lat         float64              `json:"lat"`
	Lon         float64              `json:"lon"`
	RadiusMiles float64              `json:"radius_miles"`
	LayerIDs    []string             `json:"layer_ids,omitempty"`
	Geometry    *layers.GeometryKind `json:"geometry,omitempty"`
}

// LayerFailure records one layer that produced no result at all.
type LayerFailure struct {
	LayerID string `json:"layer_id"`
	Message string `json:"message"`
}

// Report is the outcome of one enrichment run. Layers appear in registry
// order regardless of completion order.
type Report struct {
	RunID       string                 `json:"run_id"`
	Lat         float64                `json:"lat"`
	Lon         float64                `json:"lon"`
	RadiusMiles float64                `json:"radius_miles"`
	Layers      []resolver.LayerResult `json:"layers"`
	Failures    []LayerFailure         `json:"failures,omitempty"`
	ElapsedMS   int64                  `json:"elapsed_ms"`
}

// Run resolves every selected layer around the request point. A layer that
// fails outright is recorded as a failure and does not abort the others.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	runID := uuid.New().String()
	log := zap.L().With(
		zap.String("component", "enrich"),
		zap.String("run_id", runID),
	)

	selected, err := e.selectLayers(req)
	if err != nil {
		return nil, err
	}

	log.Info("starting enrichment",
		zap.Float64("lat", req.Lat),
		zap.Float64("lon", req.Lon),
		zap.Float64("radius_miles", req.RadiusMiles),
		zap.Int("layers", len(selected)),
	)

	start := time.Now()
	var resolved, failed atomic.Int64

	// One slot per layer keeps results in registry order without locking.
	results := make([]*resolver.LayerResult, len(selected))
	failures := make([]*LayerFailure, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, cfg := range selected {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			layerCtx, cancel := context.WithTimeout(gctx, e.layerTimeout)
			res, err := e.res.Resolve(layerCtx, cfg, req.Lat, req.Lon, req.RadiusMiles)
			cancel()

			if err != nil {
				log.Warn("layer failed",
					zap.String("layer", cfg.ID),
					zap.Error(err),
				)
				failures[i] = &LayerFailure{LayerID: cfg.ID, Message: err.Error()}
				failed.Add(1)
				return nil // other layers keep going
			}

			results[i] = res
			resolved.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:       runID,
		Lat:         req.Lat,
		Lon:         req.Lon,
		RadiusMiles: req.RadiusMiles,
		ElapsedMS:   time.Since(start).Milliseconds(),
	}
	for i := range selected {
		if results[i] != nil {
			report.Layers = append(report.Layers, *results[i])
		}
		if failures[i] != nil {
			report.Failures = append(report.Failures, *failures[i])
		}
	}

	log.Info("enrichment complete",
		zap.Int64("resolved", resolved.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int64("elapsed_ms", report.ElapsedMS),
	)
	return report, nil
}

// selectLayers resolves the request's layer filter against the registry.
func (e *Engine) selectLayers(req Request) ([]layers.LayerConfig, error) {
	if len(req.LayerIDs) == 0 {
		if req.Geometry != nil {
			return e.reg.ByGeometry(*req.Geometry), nil
		}
		return e.reg.All(), nil
	}

	var selected []layers.LayerConfig
	for _, id := range req.LayerIDs {
		cfg, err := e.reg.Get(id)
		if err != nil {
			return nil, err
		}
		if req.Geometry != nil && cfg.Geometry != *req.Geometry {
			continue
		}
		selected = append(selected, cfg)
	}
	return selected, nil
}
