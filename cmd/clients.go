package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rankgrid/internal/store"
	"github.com/sells-group/rankgrid/pkg/geocode"
	"github.com/sells-group/rankgrid/pkg/places"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "rankgrid.db"
		}
		s, err = store.NewSQLite(dsn)
	case "postgres":
		s, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func newPlacesClient() places.Client {
	opts := []places.Option{
		places.WithMaxPages(cfg.Scan.MaxPages),
	}
	if cfg.Scan.PageDelaySecs > 0 {
		opts = append(opts, places.WithPageDelay(time.Duration(cfg.Scan.PageDelaySecs)*time.Second))
	}
	if cfg.Google.RateLimit > 0 {
		opts = append(opts, places.WithRateLimit(cfg.Google.RateLimit))
	}
	if cfg.Google.PlacesBaseURL != "" {
		opts = append(opts, places.WithBaseURL(cfg.Google.PlacesBaseURL))
	}
	return places.NewClient(cfg.Google.Key, opts...)
}

func newGeocodeClient() geocode.Client {
	opts := []geocode.Option{}
	if cfg.Google.RateLimit > 0 {
		opts = append(opts, geocode.WithRateLimit(cfg.Google.RateLimit))
	}
	if cfg.Google.GeocodeBaseURL != "" {
		opts = append(opts, geocode.WithBaseURL(cfg.Google.GeocodeBaseURL))
	}
	return geocode.NewClient(cfg.Google.Key, opts...)
}
