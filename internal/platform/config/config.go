package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultEnvironment  = "local"
	defaultStorageDir   = ".data/cart"
	defaultCollection   = "carts"
	defaultTable        = "cart_storage"
	defaultPublicDir    = "public"
	defaultServiceName  = "storefront"
)

// Storage drivers accepted by STOREFRONT_STORAGE_DRIVER.
const (
	DriverMemory    = "memory"
	DriverFile      = "file"
	DriverRedis     = "redis"
	DriverFirestore = "firestore"
	DriverPostgres  = "postgres"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Session     SessionConfig
	Storage     StorageConfig
	PubSub      PubSubConfig
	Catalog     CatalogConfig
	Telemetry   TelemetryConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	PublicDir    string
	DevMode      bool
}

// SessionConfig controls the signed visitor cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// StorageConfig selects and configures the cart storage backend.
type StorageConfig struct {
	Driver     string
	Dir        string
	RedisURL   string
	ProjectID  string
	Collection string
	DSN        string
	Table      string
}

// PubSubConfig enables the cross-instance cart change relay. Empty topic disables it.
type PubSubConfig struct {
	ProjectID    string
	Topic        string
	Subscription string
}

// Enabled reports whether the relay should be started.
func (c PubSubConfig) Enabled() bool { return strings.TrimSpace(c.Topic) != "" }

// CatalogConfig points at an optional catalog file overriding the embedded one.
type CatalogConfig struct {
	File string
}

// TelemetryConfig toggles OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the offending field names.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the dotenv file path. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects explicit values that take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv stops Load from consulting os.LookupEnv.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// Load assembles the configuration from defaults, the dotenv file, the process environment
// and explicit overrides, in increasing order of precedence.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := dotEnv[key]
		return v, ok
	}

	env := strings.ToLower(stringWithDefault(lookup, "STOREFRONT_ENV", defaultEnvironment))
	cfg := Config{
		Environment: env,
		LogLevel:    stringWithDefault(lookup, "LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "STOREFRONT_SERVER_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "STOREFRONT_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "STOREFRONT_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			PublicDir:    stringWithDefault(lookup, "STOREFRONT_PUBLIC_DIR", defaultPublicDir),
			DevMode:      boolWithDefault(lookup, "STOREFRONT_DEV", false),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "STOREFRONT_SESSION_SIGNING_KEY", ""),
			Secure:     env == "prod",
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(stringWithDefault(lookup, "STOREFRONT_STORAGE_DRIVER", DriverMemory)),
			Dir:        stringWithDefault(lookup, "STOREFRONT_STORAGE_DIR", defaultStorageDir),
			RedisURL:   stringWithDefault(lookup, "STOREFRONT_REDIS_URL", ""),
			ProjectID:  stringWithDefault(lookup, "STOREFRONT_FIRESTORE_PROJECT_ID", ""),
			Collection: stringWithDefault(lookup, "STOREFRONT_FIRESTORE_COLLECTION", defaultCollection),
			DSN:        stringWithDefault(lookup, "STOREFRONT_DATABASE_URL", ""),
			Table:      stringWithDefault(lookup, "STOREFRONT_DATABASE_TABLE", defaultTable),
		},
		PubSub: PubSubConfig{
			ProjectID:    stringWithDefault(lookup, "STOREFRONT_PUBSUB_PROJECT_ID", ""),
			Topic:        stringWithDefault(lookup, "STOREFRONT_PUBSUB_TOPIC", ""),
			Subscription: stringWithDefault(lookup, "STOREFRONT_PUBSUB_SUBSCRIPTION", ""),
		},
		Catalog: CatalogConfig{
			File: stringWithDefault(lookup, "STOREFRONT_CATALOG_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:     boolWithDefault(lookup, "STOREFRONT_OTEL_ENABLED", false),
			ServiceName: stringWithDefault(lookup, "STOREFRONT_OTEL_SERVICE_NAME", defaultServiceName),
		},
	}

	// The relay and the firestore backend usually live in the same project.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Storage.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	switch cfg.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if strings.TrimSpace(cfg.Storage.Dir) == "" {
			missing = append(missing, "Storage.Dir")
		}
	case DriverRedis:
		if strings.TrimSpace(cfg.Storage.RedisURL) == "" {
			missing = append(missing, "Storage.RedisURL")
		}
	case DriverFirestore:
		if strings.TrimSpace(cfg.Storage.ProjectID) == "" {
			missing = append(missing, "Storage.ProjectID")
		}
		if strings.TrimSpace(cfg.Storage.Collection) == "" {
			missing = append(missing, "Storage.Collection")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			missing = append(missing, "Storage.DSN")
		}
		if !validIdentifier(cfg.Storage.Table) {
			missing = append(missing, "Storage.Table")
		}
	default:
		missing = append(missing, "Storage.Driver")
	}
	if cfg.PubSub.Enabled() {
		if cfg.PubSub.ProjectID == "" {
			missing = append(missing, "PubSub.ProjectID")
		}
		if cfg.PubSub.Subscription == "" {
			missing = append(missing, "PubSub.Subscription")
		}
	}
	if cfg.Environment == "prod" && strings.TrimSpace(cfg.Session.SigningKey) == "" {
		missing = append(missing, "Session.SigningKey")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return parsed
		}
		switch strings.ToLower(value) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		}
	}
	return fallback
}
