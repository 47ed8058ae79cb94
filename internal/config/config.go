// Package config loads application configuration from environment variables.
// A .env file, when present, is loaded first so local runs need no exports.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/iliyamo/cinema-box-office/internal/errs"
)

// Backend modes. "rest" talks to the cinema backend over HTTP; "mysql"
// runs the same operations directly on the cinema schema.
const (
	BackendREST  = "rest"
	BackendMySQL = "mysql"
)

// Config holds all runtime configuration values.  Each leaf field
// corresponds to one environment variable.
type Config struct {
	App       AppConfig
	Backend   BackendConfig
	DB        DBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Catalog   CatalogCacheConfig
	Queue     QueueConfig
	Booking   BookingConfig
	Presence  PresenceConfig
}

type AppConfig struct {
	Env       string `envconfig:"APP_ENV" default:"dev"`
	Port      string `envconfig:"APP_PORT" required:"true"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
}

// BackendConfig selects and configures the cinema backend adapter.
type BackendConfig struct {
	Mode    string        `envconfig:"BACKEND_MODE" default:"rest"`
	BaseURL string        `envconfig:"BACKEND_BASE_URL"`
	Timeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"5s"`
	Retries int           `envconfig:"BACKEND_READ_RETRIES" default:"2"`
}

// DBConfig is only required in mysql mode.
type DBConfig struct {
	User string `envconfig:"DB_USER"`
	Pass string `envconfig:"DB_PASS"`
	Host string `envconfig:"DB_HOST" default:"localhost"`
	Port string `envconfig:"DB_PORT" default:"3306"`
	Name string `envconfig:"DB_NAME"`
}

type QueueConfig struct {
	URL       string `envconfig:"AMQP_URL"`
	HoldQueue string `envconfig:"HOLD_EVENTS_QUEUE" default:"booking.holds"`
	AuditLog  string `envconfig:"HOLD_AUDIT_LOG" default:"logs/holds.log"`
}

// BookingConfig tunes booking sessions.
type BookingConfig struct {
	HoldTTLSeconds int           `envconfig:"HOLD_TTL_SECONDS" default:"600"`
	IdleTimeout    time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"15m"`
	SweepInterval  time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"30s"`
	DraftGuardTTL  time.Duration `envconfig:"DRAFT_GUARD_TTL" default:"2h"`
}

type PresenceConfig struct {
	Enabled           bool          `envconfig:"PRESENCE_ENABLED" default:"true"`
	HeartbeatInterval time.Duration `envconfig:"PRESENCE_HEARTBEAT_INTERVAL" default:"2s"`
	LeaderTimeout     time.Duration `envconfig:"PRESENCE_LEADER_TIMEOUT" default:"6s"`
	PingTTL           time.Duration `envconfig:"PRESENCE_PING_TTL" default:"30s"`
	Channel           string        `envconfig:"PRESENCE_CHANNEL" default:"presence"`
}

// Load reads .env (if any) and the process environment into a Config.
// Missing required variables and invalid values are reported as errors.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Process()
}

// Process decodes the current environment without touching .env.
func Process() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errs.Wrap(err, "failed to process env config")
	}
	cfg.RateLimit = cfg.RateLimit.normalized()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Backend.Mode = strings.ToLower(strings.TrimSpace(c.Backend.Mode))
	switch c.Backend.Mode {
	case BackendREST:
		if c.Backend.BaseURL == "" {
			return errs.New("BACKEND_BASE_URL is required when BACKEND_MODE=rest")
		}
	case BackendMySQL:
		if c.DB.User == "" || c.DB.Name == "" {
			return errs.New("DB_USER and DB_NAME are required when BACKEND_MODE=mysql")
		}
	default:
		return errs.Newf("unknown BACKEND_MODE %q", c.Backend.Mode)
	}
	if c.Booking.HoldTTLSeconds <= 0 {
		c.Booking.HoldTTLSeconds = 600
	}
	if c.Presence.LeaderTimeout <= c.Presence.HeartbeatInterval {
		c.Presence.LeaderTimeout = 3 * c.Presence.HeartbeatInterval
	}
	return nil
}

// IsDev reports whether the service runs in the development environment.
func (c Config) IsDev() bool { return strings.EqualFold(c.App.Env, "dev") }
