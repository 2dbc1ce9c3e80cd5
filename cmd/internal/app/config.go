package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigPathEnvKey names a YAML file read before the environment.
const ConfigPathEnvKey = "ACCOUNTS_CONFIG"

// legacyStoreURLEnvKey is the connection string name older deployments use.
const legacyStoreURLEnvKey = "MONGO_URI"

// Store kinds selected by the scheme of StoreURL.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// Config contains all runtime configuration. Environment variables override
// values read from the optional YAML file.
type Config struct {
	HTTPAddr  string `yaml:"http_addr"  env:"ACCOUNTS_HTTP_ADDR"  env-default:"0.0.0.0:8080" env-description:"listen address"`
	LogLevel  string `yaml:"log_level"  env:"ACCOUNTS_LOG_LEVEL"  env-default:"info"         env-description:"debug, info, warn or error"`
	LogFormat string `yaml:"log_format" env:"ACCOUNTS_LOG_FORMAT" env-default:"json"         env-description:"json or pretty"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"ACCOUNTS_HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	ReadTimeout       time.Duration `yaml:"read_timeout"        env:"ACCOUNTS_HTTP_READ_TIMEOUT"        env-default:"15s"`
	WriteTimeout      time.Duration `yaml:"write_timeout"       env:"ACCOUNTS_HTTP_WRITE_TIMEOUT"       env-default:"15s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"ACCOUNTS_HTTP_IDLE_TIMEOUT"        env-default:"60s"`
	MaxHeaderBytes    int           `yaml:"max_header_bytes"    env:"ACCOUNTS_HTTP_MAX_HEADER_BYTES"    env-default:"1048576"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"      env:"ACCOUNTS_MAX_BODY_BYTES"           env-default:"1048576"`

	// Empty selects the in-memory store.
	StoreURL   string `yaml:"store_url"     env:"ACCOUNTS_STORE_URL"     env-description:"postgres:// or mongodb:// URL; empty for in-memory"`
	DBMaxConns int32  `yaml:"db_max_conns"  env:"ACCOUNTS_DB_MAX_CONNS"  env-default:"10"`
	DBMinConns int32  `yaml:"db_min_conns"  env:"ACCOUNTS_DB_MIN_CONNS"  env-default:"0"`
	DBMigrate  bool   `yaml:"db_migrate"    env:"ACCOUNTS_DB_MIGRATE"    env-default:"false" env-description:"apply Postgres migrations on startup"`

	// If true, /readyz returns 503 unless a database store is configured and reachable.
	ReadinessRequireDB bool `yaml:"readiness_require_db" env:"ACCOUNTS_READINESS_REQUIRE_DB" env-default:"false"`

	// If true, the signing secret must be at least 32 bytes.
	RequireStrongSecret bool          `yaml:"require_strong_secret" env:"ACCOUNTS_REQUIRE_STRONG_SECRET" env-default:"false"`
	TokenIssuer         string        `yaml:"token_issuer"          env:"ACCOUNTS_TOKEN_ISSUER"          env-default:"accountsd"`
	TokenTTL            time.Duration `yaml:"token_ttl"             env:"ACCOUNTS_TOKEN_TTL"             env-default:"24h"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"ACCOUNTS_CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	CORSMaxAgeSeconds  int      `yaml:"cors_max_age_seconds" env:"ACCOUNTS_CORS_MAX_AGE_SECONDS" env-default:"600"`
}

// LoadConfig reads path (or $ACCOUNTS_CONFIG) when set, then the environment.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path == "" {
		path = strings.TrimSpace(os.Getenv(ConfigPathEnvKey))
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %q: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	if cfg.StoreURL == "" {
		cfg.StoreURL = strings.TrimSpace(os.Getenv(legacyStoreURLEnvKey))
	}
	cfg.CORSAllowedOrigins = normalizeOrigins(cfg.CORSAllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("config: ACCOUNTS_HTTP_ADDR is empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "json", "pretty", "text":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	if _, err := storeKind(c.StoreURL); err != nil {
		return err
	}
	if c.DBMinConns < 0 || c.DBMaxConns < 0 {
		return fmt.Errorf("config: db connection limits must not be negative")
	}
	if c.DBMaxConns > 0 && c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("config: ACCOUNTS_DB_MIN_CONNS (%d) exceeds ACCOUNTS_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: ACCOUNTS_TOKEN_TTL must be positive")
	}
	return nil
}

// StoreKind reports which credential store StoreURL selects.
func (c Config) StoreKind() string {
	kind, _ := storeKind(c.StoreURL)
	return kind
}

func storeKind(raw string) (string, error) {
	u := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case u == "":
		return StoreMemory, nil
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return StorePostgres, nil
	case strings.HasPrefix(u, "mongodb://"), strings.HasPrefix(u, "mongodb+srv://"):
		return StoreMongo, nil
	default:
		return "", fmt.Errorf("config: unsupported store url scheme in %q", redactURL(raw))
	}
}

// redactURL keeps only the scheme so credentials never reach logs.
func redactURL(raw string) string {
	if i := strings.Index(raw, "://"); i >= 0 {
		return raw[:i+3] + "..."
	}
	return "..."
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
