package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heliumapi/helium/internal/core/ports"
)

// Secret names looked up in the vault.
const (
	SecretDBKey        = "dbKey"
	SecretTelemetryKey = "telemetryKey"
)

// Config holds every value the service needs at startup. Flags and
// environment variables fill it first; Resolve then overlays vault secrets.
type Config struct {
	Port                string
	DBURL               string
	DBKey               string
	DBName              string
	DBCollection        string
	DefaultPartitionKey string
	TelemetryKey        string

	KeyVaultURL  string
	TenantID     string
	ClientID     string
	ClientSecret string

	AuthSigningKey string
	LogLevel       string
	LogFormat      string
}

// ErrMissingRequiredValue aborts startup.
type ErrMissingRequiredValue struct {
	Name string
}

func (e *ErrMissingRequiredValue) Error() string {
	return fmt.Sprintf("required configuration value %q is not set", e.Name)
}

func (c Config) Addr() string {
	return ":" + c.Port
}

// UseVault reports whether enough is configured to reach the secret vault.
func (c Config) UseVault() bool {
	return c.TenantID != "" && c.KeyVaultURL != ""
}

func (c Config) usesPostgres() bool {
	return strings.HasPrefix(c.DBURL, "postgres://") || strings.HasPrefix(c.DBURL, "postgresql://")
}

// Validate checks the values that never come from the vault.
func (c Config) Validate() error {
	if c.DBURL == "" {
		return &ErrMissingRequiredValue{Name: "DB_URL"}
	}
	if c.ClientID != "" && c.ClientSecret == "" {
		return &ErrMissingRequiredValue{Name: "CLIENT_SECRET"}
	}
	return nil
}

// Resolve fills the db key and telemetry key, trying the vault first and
// falling back to the values already present. vault may be nil.
func Resolve(ctx context.Context, cfg Config, vault ports.SecretSource, logger *slog.Logger) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	if vault != nil && cfg.UseVault() {
		logger.Debug("reading secrets from key vault", "url", cfg.KeyVaultURL)
		if v, err := vault.GetSecret(ctx, SecretDBKey); err != nil {
			logger.Error("failed to get secret from key vault, falling back to environment", "secret", SecretDBKey, "err", err)
		} else {
			cfg.DBKey = v
		}
		if v, err := vault.GetSecret(ctx, SecretTelemetryKey); err != nil {
			logger.Error("failed to get secret from key vault, falling back to environment", "secret", SecretTelemetryKey, "err", err)
		} else {
			cfg.TelemetryKey = v
		}
	} else {
		logger.Info("key vault not configured, using environment for secrets")
	}

	if cfg.DBKey == "" && cfg.usesPostgres() {
		return Config{}, &ErrMissingRequiredValue{Name: "DB_KEY"}
	}
	if cfg.TelemetryKey == "" {
		return Config{}, &ErrMissingRequiredValue{Name: "TELEMETRY_KEY"}
	}
	return cfg, nil
}
