package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFeedURL is the USGS summary feed of all earthquakes in the past hour.
const DefaultFeedURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson"

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Feed     FeedConfig     `yaml:"feed"`
	Poller   PollerConfig   `yaml:"poller"`
	Database DatabaseConfig `yaml:"database"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Push     PushConfig     `yaml:"push"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                   int           `yaml:"port"`
	ShutdownTimeoutSeconds int           `yaml:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `yaml:"-"`
}

// FeedConfig describes where the earthquake feed is fetched from.
type FeedConfig struct {
	URL            string        `yaml:"url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	HTTPProxy      string        `yaml:"http_proxy"`
}

// PollerConfig controls the in-process poll loop.
type PollerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres | sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// LedgerConfig selects the backend that records processed events.
type LedgerConfig struct {
	Backend         string `yaml:"backend"` // database | redis
	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	KeyPrefix       string `yaml:"key_prefix"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

// PushConfig holds the delivery channel settings.
type PushConfig struct {
	Title      string        `yaml:"title"`
	RatePerSec float64       `yaml:"rate_per_sec"`
	Burst      int           `yaml:"burst"`
	FCM        FCMConfig     `yaml:"fcm"`
	WebPush    WebPushConfig `yaml:"webpush"`
}

// FCMConfig configures Firebase Cloud Messaging.
type FCMConfig struct {
	Enabled         bool   `yaml:"enabled"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// WebPushConfig holds the VAPID keys for web push notifications.
type WebPushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// Enabled reports whether both VAPID keys are present.
func (w WebPushConfig) Enabled() bool {
	return w.PublicKey != "" && w.PrivateKey != ""
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Config{
		Poller:  PollerConfig{Enabled: true},
		Metrics: MetricsConfig{Enabled: true},
	}
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration suitable for local development.
func Default() *Config {
	cfg := Config{
		Poller:   PollerConfig{Enabled: true},
		Metrics:  MetricsConfig{Enabled: true},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "quakealert.db"},
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("ignoring invalid PORT %q: %v", v, err)
		}
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Ledger.RedisAddr = v
	}
	if v := os.Getenv("FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("FCM_CREDENTIALS_FILE"); v != "" {
		cfg.Push.FCM.CredentialsFile = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 5
	}
	cfg.Server.ShutdownTimeout = time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second

	if cfg.Feed.URL == "" {
		cfg.Feed.URL = DefaultFeedURL
	}
	if cfg.Feed.TimeoutSeconds <= 0 {
		cfg.Feed.TimeoutSeconds = 30
	}
	cfg.Feed.Timeout = time.Duration(cfg.Feed.TimeoutSeconds) * time.Second

	if cfg.Poller.IntervalSeconds <= 0 {
		cfg.Poller.IntervalSeconds = 60
	}
	cfg.Poller.Interval = time.Duration(cfg.Poller.IntervalSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = "database"
	}
	if cfg.Ledger.KeyPrefix == "" {
		cfg.Ledger.KeyPrefix = "quakealert:processed:"
	}
	// A negative TTL disables the in-process cache.
	if cfg.Ledger.CacheTTLMinutes == 0 {
		cfg.Ledger.CacheTTLMinutes = 60
	}

	if cfg.Push.Title == "" {
		cfg.Push.Title = "Earthquake Alert"
	}
	if cfg.Push.RatePerSec <= 0 {
		log.Printf("push.rate_per_sec is not set or invalid; defaulting to 50")
		cfg.Push.RatePerSec = 50
	}
	if cfg.Push.Burst <= 0 {
		cfg.Push.Burst = 10
	}
	if cfg.Push.WebPush.TTL <= 0 {
		cfg.Push.WebPush.TTL = 3600
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
