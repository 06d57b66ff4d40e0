package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/heliumapi/helium/internal/adapters/docstore"
	"github.com/heliumapi/helium/internal/adapters/docstore/gormdb"
	"github.com/heliumapi/helium/internal/adapters/httpapi"
	"github.com/heliumapi/helium/internal/adapters/keyvault"
	"github.com/heliumapi/helium/internal/adapters/telemetry"
	"github.com/heliumapi/helium/internal/config"
	"github.com/heliumapi/helium/internal/core/ports"
	"github.com/heliumapi/helium/internal/core/usecase"
	"github.com/heliumapi/helium/migrations"
)

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewServer resolves secrets, opens and migrates the document store and
// builds the HTTP server. Configuration errors are returned unwrapped so
// callers can detect *config.ErrMissingRequiredValue.
func NewServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*http.Server, io.Closer, error) {
	var vault ports.SecretSource
	if cfg.UseVault() {
		vault = keyvault.New(keyvault.Config{
			URL:          cfg.KeyVaultURL,
			TenantID:     cfg.TenantID,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
		})
	}
	cfg, err := config.Resolve(ctx, cfg, vault, logger)
	if err != nil {
		return nil, nil, err
	}

	db, err := gormdb.Open(cfg.DBURL, cfg.DBKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open document store: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB, gooseDialect(db.Dialect)); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	telem := telemetry.New()
	store := docstore.NewClient(db, telem, logger)
	if err := store.EnsureCollection(migrateCtx, cfg.DBName, cfg.DBCollection); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure collection: %w", err)
	}
	logger.Info("document store ready",
		"dialect", db.Dialect,
		"collection", docstore.CollectionLink(cfg.DBName, cfg.DBCollection),
	)

	validator, err := usecase.NewPayloadValidator()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("load payload schemas: %w", err)
	}

	coll := usecase.Collection{
		Store:        store,
		Database:     cfg.DBName,
		Name:         cfg.DBCollection,
		PartitionKey: cfg.DefaultPartitionKey,
	}
	handler := httpapi.NewHandler(httpapi.Deps{
		Actors:            usecase.NewActorService(coll, validator, telem),
		Movies:            usecase.NewMovieService(coll, validator, telem),
		Genres:            usecase.NewGenreService(coll, validator, telem),
		Health:            usecase.NewHealthService(store, cfg.DBName, telem),
		Metrics:           telem.Handler(),
		MetricsMiddleware: telem.Middleware,
		TelemetryKey:      cfg.TelemetryKey,
		AuthSigningKey:    cfg.AuthSigningKey,
		Logger:            logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{db}}, nil
}

func gooseDialect(dialect string) string {
	if dialect == gormdb.DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}
