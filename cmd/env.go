package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/geo-cli/internal/enrich"
	"github.com/sells-group/geo-cli/internal/featureservice"
	"github.com/sells-group/geo-cli/internal/geocode"
	"github.com/sells-group/geo-cli/internal/geocode/source"
	"github.com/sells-group/geo-cli/internal/layers"
	"github.com/sells-group/geo-cli/internal/resolver"
	"github.com/sells-group/geo-cli/internal/store"
)

// env bundles the wired components shared by the commands.
type env struct {
	Store    *store.Store
	Layers   *layers.Registry
	Resolver *resolver.Resolver
	Geocoder *geocode.Composite
	Engine   *enrich.Engine
}

func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("failed to close store", zap.Error(err))
		}
	}
}

// initEnv builds every component from the loaded configuration.
func initEnv(ctx context.Context) (*env, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	reg := layers.DefaultRegistry()
	if cfg.Layers.File != "" {
		if err := layers.LoadFile(reg, cfg.Layers.File); err != nil {
			st.Close()
			return nil, err
		}
	}

	client := featureservice.NewClient(
		featureservice.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Features.TimeoutSecs) * time.Second,
		}),
		featureservice.WithPageSize(cfg.Features.PageSize),
		featureservice.WithPageDelay(time.Duration(cfg.Features.PageDelayMS)*time.Millisecond),
		featureservice.WithMaxFeatures(cfg.Features.MaxFeatures),
	)
	res := resolver.New(client)

	sources := geocode.NewRegistry()
	nominatim := source.NewNominatim(cfg.Geocode.UserAgent)
	if cfg.Geocode.NominatimURL != "" {
		nominatim.BaseURL = cfg.Geocode.NominatimURL
	}
	census := source.NewUSCensus()
	if cfg.Geocode.CensusURL != "" {
		census.BaseURL = cfg.Geocode.CensusURL
	}
	arcgis := source.NewArcGISWorld()
	if cfg.Geocode.ArcGISURL != "" {
		arcgis.BaseURL = cfg.Geocode.ArcGISURL
	}
	sources.Register(nominatim)
	sources.Register(census)
	sources.Register(arcgis)

	geocoder := geocode.NewComposite(sources,
		geocode.WithRequestTimeout(time.Duration(cfg.Geocode.RequestTimeoutSecs)*time.Second),
		geocode.WithCache(store.NewGeocodeCache(st, time.Duration(cfg.Geocode.CacheTTLHours)*time.Hour)),
	)

	engine := enrich.NewEngine(res, reg,
		enrich.WithConcurrency(cfg.Enrich.Concurrency),
		enrich.WithLayerTimeout(time.Duration(cfg.Enrich.LayerTimeoutSecs)*time.Second),
	)

	return &env{
		Store:    st,
		Layers:   reg,
		Resolver: res,
		Geocoder: geocoder,
		Engine:   engine,
	}, nil
}
