package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sagarc03/soundmap"
	"github.com/sagarc03/soundmap/config"
	"github.com/sagarc03/soundmap/database"
	"github.com/sagarc03/soundmap/filesystem"
	soundhttp "github.com/sagarc03/soundmap/http"
	"github.com/sagarc03/soundmap/s3"
)

// app holds the store clients and the service built from them. Every
// command builds exactly one and closes it on exit.
type app struct {
	db      database.Database
	blobs   soundmap.BlobStore
	media   soundhttp.MediaSource // nil unless the filesystem backend is used
	service *soundmap.SoundService
	closers []func() error
}

type appOptions struct {
	migrate bool // run migrations regardless of database.auto_migrate
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err = a.openDatabase(ctx, cfg, opts.migrate || cfg.Database.AutoMigrate); err != nil {
		return nil, err
	}

	if err = a.openBlobStore(ctx, cfg); err != nil {
		return nil, err
	}

	a.service, err = soundmap.NewSoundService(a.db.GetRepo(), a.blobs, soundmap.ServiceConfig{
		BlobPrefix: cfg.Storage.NamePrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return a, nil
}

func (a *app) openDatabase(ctx context.Context, cfg *config.Config, migrate bool) error {
	db, err := database.Connect(ctx, cfg.Database.Config)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if migrate {
		if err = db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("connected to database", "type", cfg.Database.Type, "table", cfg.Database.Tables.Sounds)
	return nil
}

func (a *app) openBlobStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Backend {
	case "filesystem":
		path := cfg.Storage.Filesystem.Path
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(path)
		if err != nil {
			return fmt.Errorf("open storage root: %w", err)
		}
		a.closers = append(a.closers, root.Close)

		store := filesystem.NewFileStorage(root, strings.TrimRight(cfg.Server.PublicURL, "/")+"/media")
		a.blobs = store
		a.media = store

		slog.Info("using filesystem blob storage", "path", path)
		return nil

	case "s3":
		client, err := s3.NewClient(cfg.Storage.S3.Config)
		if err != nil {
			return fmt.Errorf("create s3 client: %w", err)
		}

		store, err := s3.NewStore(client, cfg.Storage.S3.Config)
		if err != nil {
			return fmt.Errorf("create s3 store: %w", err)
		}

		if cfg.Storage.S3.CreateBucket {
			err = store.EnsureBucket(ctx, cfg.Storage.S3.Region)
		} else {
			err = store.Ping(ctx)
		}
		if err != nil {
			return fmt.Errorf("check s3 bucket: %w", err)
		}
		a.blobs = store

		slog.Info("using s3 blob storage", "endpoint", cfg.Storage.S3.Endpoint, "bucket", cfg.Storage.S3.Bucket)
		return nil

	default:
		return fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		slog.Warn("error releasing resources", "err", err)
	}
}
