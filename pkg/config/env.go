package config

const EnvPrefix = "PAYFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	CartBackendRedis  = "redis"
	CartBackendSQL    = "sql"
	CartBackendMemory = "memory"
)

const (
	EnvAppEnv            = "PAYFLOW_APP_ENV"
	EnvPort              = "PAYFLOW_APP_PORT"
	EnvBackendBaseURL    = "PAYFLOW_BACKEND_BASE_URL"
	EnvCartBackend       = "PAYFLOW_CART_BACKEND"
	EnvCartIdleTTL       = "PAYFLOW_CART_IDLE_TTL"
	EnvCartSweepInterval = "PAYFLOW_CART_SWEEP_INTERVAL"
	EnvMinOneSeat        = "PAYFLOW_CHECKOUT_MIN_ONE_SEAT"
	EnvSeatColumns       = "PAYFLOW_CHECKOUT_SEAT_COLUMNS"
	EnvDBDSN             = "PAYFLOW_DB_DSN"
	EnvRedisURL          = "PAYFLOW_REDIS_URL"
	EnvRedisAddr         = "PAYFLOW_REDIS_ADDR"
	EnvJWTSecret         = "PAYFLOW_JWT_SECRET"
	EnvJWTIssuer         = "PAYFLOW_JWT_ISSUER"
	EnvEventsEnabled     = "PAYFLOW_EVENTS_ENABLED"
	EnvEventsProjectID   = "PAYFLOW_EVENTS_PROJECT_ID"
	EnvCORSOrigins       = "PAYFLOW_CORS_ALLOWED_ORIGINS"
)
