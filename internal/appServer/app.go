package appServer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/tallyfy/denizen-assets/config"
	"github.com/tallyfy/denizen-assets/internal/database"
	"github.com/tallyfy/denizen-assets/internal/database/redis"
	"github.com/tallyfy/denizen-assets/internal/pkg/kafka"
	"github.com/tallyfy/denizen-assets/internal/pkg/processor"
	"github.com/tallyfy/denizen-assets/internal/pkg/stager"
	"github.com/tallyfy/denizen-assets/internal/pkg/storage"
	"github.com/tallyfy/denizen-assets/internal/service"
	"github.com/tallyfy/denizen-assets/internal/watcher"
)

// App holds the wired asset service and the clients it owns.
type App struct {
	Service service.AssetService
	cfg     *config.Config
	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg}

	imgProcessor, err := processor.NewImageProcessor(cfg.Quality, cfg.Filter)
	if err != nil {
		return nil, err
	}

	assetStager, err := stager.New(cfg.Stage.Mode, cfg.Root)
	if err != nil {
		return nil, err
	}

	producer := kafka.NewNoopProducer()
	if cfg.Events.Enabled {
		producer = kafka.NewProducer(cfg.Events.Brokers, cfg.Events.Topic)
	}
	app.closers = append(app.closers, producer.Close)

	cache, err := app.digestCache(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Service = service.NewAssetService(
		service.Options{
			SourceDir:        cfg.SourceDir,
			SkipSuffixes:     cfg.SkipSuffixes,
			Tiers:            cfg.Tiers,
			CreateOutputDirs: cfg.CreateOutputDirs,
			ContinueOnError:  cfg.ContinueOnError,
		},
		storage.NewFileStorage(cfg.Root),
		imgProcessor,
		assetStager,
		producer,
		cache,
	)
	return app, nil
}

func (a *App) digestCache(ctx context.Context) (database.DigestCache, error) {
	if !a.cfg.Cache.Enabled {
		return database.NewNoopDigestCache(), nil
	}

	switch a.cfg.Cache.Driver {
	case "memory":
		return database.NewMemoryDigestCache(), nil
	case "redis":
		client, err := redis.NewClient(ctx, a.cfg.Cache.Addr, a.cfg.Cache.Password, a.cfg.Cache.DB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		logrus.WithField("addr", a.cfg.Cache.Addr).Info("Digest cache connected")
		return redis.NewDigestRepository(client, a.cfg.Cache.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", a.cfg.Cache.Driver)
	}
}

// Watch runs one batch and then keeps resizing files as they change.
func (a *App) Watch(ctx context.Context) error {
	if _, err := a.Service.Run(ctx); err != nil {
		return err
	}

	w, err := watcher.NewWatcher(a.Service, filepath.Join(a.cfg.Root, a.cfg.SourceDir), a.cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
