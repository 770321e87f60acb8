package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/config"
	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/mapview"
	"github.com/sells-group/livability-map/internal/scorer"
	"github.com/sells-group/livability-map/internal/store"
)

// initStore opens the configured preset and snapshot store.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "livability.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newLoader() *dataset.Loader {
	return dataset.NewLoader(nil, time.Duration(cfg.Dataset.TimeoutSecs)*time.Second)
}

// newCoordinator builds the map coordinator from config. No dataset is
// loaded yet.
func newCoordinator() *mapview.Coordinator {
	return mapview.NewCoordinator(newLoader(), mapview.Options{
		Source:        cfg.Dataset.Source,
		Defaults:      configWeights(cfg.Scoring.Weights),
		Property:      cfg.Scoring.Property,
		TopN:          cfg.Scoring.TopN,
		RescoreOnLoad: cfg.Scoring.RescoreOnLoad,
		Simplify:      cfg.Dataset.Simplify,
	})
}

// loadPresets reads the configured presets file. A missing setting yields
// no built-in presets.
func loadPresets() ([]scorer.Preset, error) {
	if cfg.Scoring.PresetsFile == "" {
		return nil, nil
	}
	presets, err := scorer.LoadPresets(cfg.Scoring.PresetsFile)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("loaded presets",
		zap.String("file", cfg.Scoring.PresetsFile),
		zap.Int("count", len(presets)),
	)
	return presets, nil
}

// lookupPreset finds a preset in the store, then in the presets file. An
// unreachable or unmigrated store is logged and skipped.
func lookupPreset(ctx context.Context, name string) (*scorer.Preset, error) {
	builtin, err := loadPresets()
	if err != nil {
		return nil, err
	}
	if cfg.Validate("store") != nil {
		return store.LookupPreset(ctx, nil, builtin, name)
	}

	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("store unavailable, using presets file only", zap.Error(err))
		return store.LookupPreset(ctx, nil, builtin, name)
	}
	defer st.Close() //nolint:errcheck

	p, err := store.LookupPreset(ctx, st, builtin, name)
	if err != nil {
		zap.L().Warn("stored preset lookup failed, using presets file only", zap.String("preset", name), zap.Error(err))
		return store.LookupPreset(ctx, nil, builtin, name)
	}
	return p, nil
}

// configWeights converts configured slider positions.
func configWeights(c config.WeightsConfig) scorer.Weights {
	return scorer.Weights{Safety: c.Safety, Parks: c.Parks, Transit: c.Transit, Parking: c.Parking}
}
