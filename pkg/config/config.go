package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Cart     CartConfig
	Checkout CheckoutConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Events   EventsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PAYFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"PAYFLOW_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PAYFLOW_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PAYFLOW_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"PAYFLOW_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string      `envconfig:"PAYFLOW_CORS_ALLOWED_ORIGINS" default:"*"`
	ShutdownTimeout    time.Duration `envconfig:"PAYFLOW_APP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the remote PayFlow order/payment API.
type BackendConfig struct {
	BaseURL string        `envconfig:"PAYFLOW_BACKEND_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"PAYFLOW_BACKEND_TIMEOUT" default:"15s"`
	Token   string        `envconfig:"PAYFLOW_BACKEND_TOKEN"`
}

type CartConfig struct {
	Backend      string        `envconfig:"PAYFLOW_CART_BACKEND" default:"redis"`
	Key          string        `envconfig:"PAYFLOW_CART_KEY" default:"payflow_cart"`
	TTL          time.Duration `envconfig:"PAYFLOW_CART_TTL" default:"720h"`
	EnforceStock bool          `envconfig:"PAYFLOW_CART_ENFORCE_STOCK" default:"true"`

	// IdleTTL bounds how long an in-memory cart outlives its last request
	// when the session token carries no expiry.
	IdleTTL       time.Duration `envconfig:"PAYFLOW_CART_IDLE_TTL" default:"2h"`
	SweepInterval time.Duration `envconfig:"PAYFLOW_CART_SWEEP_INTERVAL" default:"1m"`
}

// Normalized returns the lower-cased snapshot backend name.
func (c CartConfig) Normalized() string {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend == "" {
		return CartBackendRedis
	}
	return backend
}

type CheckoutConfig struct {
	// ChargeMinimumOneSeat bills a cinema purchase with no seats picked as a single seat.
	ChargeMinimumOneSeat bool   `envconfig:"PAYFLOW_CHECKOUT_MIN_ONE_SEAT" default:"true"`
	DefaultNote          string `envconfig:"PAYFLOW_CHECKOUT_DEFAULT_NOTE" default:"Compra realizada desde PayFlow"`
	SeatColumns          int    `envconfig:"PAYFLOW_CHECKOUT_SEAT_COLUMNS" default:"12"`
}

type DBConfig struct {
	DSN    string `envconfig:"PAYFLOW_DB_DSN"`
	Driver string `envconfig:"PAYFLOW_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"PAYFLOW_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PAYFLOW_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PAYFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAYFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PAYFLOW_REDIS_URL"`
	Address      string        `envconfig:"PAYFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"PAYFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAYFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAYFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAYFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAYFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAYFLOW_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"PAYFLOW_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PAYFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PAYFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PAYFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

// EventsConfig controls publishing of checkout outcome events to Pub/Sub.
type EventsConfig struct {
	Enabled         bool   `envconfig:"PAYFLOW_EVENTS_ENABLED" default:"false"`
	ProjectID       string `envconfig:"PAYFLOW_EVENTS_PROJECT_ID"`
	Topic           string `envconfig:"PAYFLOW_EVENTS_TOPIC" default:"checkout-outcomes"`
	CredentialsJSON string `envconfig:"PAYFLOW_EVENTS_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"PAYFLOW_EVENTS_CREDENTIALS_FILE"`
}

func (c *Config) validate() error {
	switch c.Cart.Normalized() {
	case CartBackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvCartBackend, CartBackendRedis)
		}
	case CartBackendSQL:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvCartBackend, CartBackendSQL)
		}
	case CartBackendMemory:
	default:
		return fmt.Errorf("unsupported %s %q", EnvCartBackend, c.Cart.Backend)
	}
	if c.Events.Enabled && strings.TrimSpace(c.Events.ProjectID) == "" {
		return fmt.Errorf("%s is required when %s=true", EnvEventsProjectID, EnvEventsEnabled)
	}
	if c.Cart.IdleTTL <= 0 || c.Cart.SweepInterval <= 0 {
		return fmt.Errorf("%s and %s must be positive", EnvCartIdleTTL, EnvCartSweepInterval)
	}
	if c.Checkout.SeatColumns <= 0 {
		return fmt.Errorf("%s must be positive", EnvSeatColumns)
	}
	return nil
}
