package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/heliumapi/helium/internal/app"
	"github.com/heliumapi/helium/internal/config"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "helium",
		Usage: "Actor, movie and genre REST API over a document store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "port",
				Value:   "3000",
				Sources: cli.EnvVars("PORT"),
				Usage:   "HTTP listen port",
			},
			&cli.StringFlag{
				Name:    "db-url",
				Sources: cli.EnvVars("DB_URL", "COSMOSDB_URL"),
				Usage:   "Document store URL (sqlite file path, sqlite:// or postgres:// URL)",
			},
			&cli.StringFlag{
				Name:    "db-key",
				Sources: cli.EnvVars("DB_KEY", "COSMOSDB_KEY"),
				Usage:   "Document store key, used when the vault does not provide one",
			},
			&cli.StringFlag{
				Name:    "db-name",
				Value:   "imdb",
				Sources: cli.EnvVars("DB_NAME"),
				Usage:   "Database name",
			},
			&cli.StringFlag{
				Name:    "db-collection",
				Value:   "movies",
				Sources: cli.EnvVars("DB_COLLECTION"),
				Usage:   "Collection holding actors, movies and genres",
			},
			&cli.StringFlag{
				Name:    "default-partition-key",
				Value:   "0",
				Sources: cli.EnvVars("DEFAULT_PARTITION_KEY"),
				Usage:   "Partition key for new documents",
			},
			&cli.StringFlag{
				Name:    "telemetry-key",
				Sources: cli.EnvVars("TELEMETRY_KEY", "APPINSIGHTS_INSTRUMENTATIONKEY"),
				Usage:   "Telemetry key, used when the vault does not provide one; also guards /metrics",
			},
			&cli.StringFlag{
				Name:    "key-vault-url",
				Sources: cli.EnvVars("KEY_VAULT_URL"),
				Usage:   "Secret vault URL",
			},
			&cli.StringFlag{
				Name:    "tenant-id",
				Sources: cli.EnvVars("TENANT_ID"),
				Usage:   "Directory tenant of the vault service principal",
			},
			&cli.StringFlag{
				Name:    "client-id",
				Sources: cli.EnvVars("CLIENT_ID"),
				Usage:   "Service principal client id; managed identity is used when empty",
			},
			&cli.StringFlag{
				Name:    "client-secret",
				Sources: cli.EnvVars("CLIENT_SECRET"),
				Usage:   "Service principal client secret",
			},
			&cli.StringFlag{
				Name:    "auth-signing-key",
				Sources: cli.EnvVars("AUTH_SIGNING_KEY"),
				Usage:   "HS256 key; when set, /api requires a bearer JWT",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Usage:   "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "json",
				Sources: cli.EnvVars("LOG_FORMAT"),
				Usage:   "json or text",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := config.Config{
				Port:                c.String("port"),
				DBURL:               c.String("db-url"),
				DBKey:               c.String("db-key"),
				DBName:              c.String("db-name"),
				DBCollection:        c.String("db-collection"),
				DefaultPartitionKey: c.String("default-partition-key"),
				TelemetryKey:        c.String("telemetry-key"),
				KeyVaultURL:         c.String("key-vault-url"),
				TenantID:            c.String("tenant-id"),
				ClientID:            c.String("client-id"),
				ClientSecret:        c.String("client-secret"),
				AuthSigningKey:      c.String("auth-signing-key"),
				LogLevel:            c.String("log-level"),
				LogFormat:           c.String("log-format"),
			}
			logger := buildLogger(cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(logger)

			server, closer, err := app.NewServer(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					logger.Error("close resources", "err", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", server.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				logger.Info("received signal", "signal", sig.String())
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		var missing *config.ErrMissingRequiredValue
		if errors.As(err, &missing) {
			slog.Error("startup aborted", "err", err)
			os.Exit(1)
		}
		slog.Error("helium exited", "err", err)
		os.Exit(2)
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "ERR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
