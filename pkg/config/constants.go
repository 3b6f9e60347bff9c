package config

const EnvPrefix = "CARTFEE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverHTTP   = "http"
	StoreDriverMemory = "memory"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:cartfee.db?cache=shared"
)

const (
	EnvAppEnv        = "CARTFEE_APP_ENV"
	EnvPort          = "CARTFEE_APP_PORT"
	EnvRedisURL      = "CARTFEE_REDIS_URL"
	EnvDBDSN         = "CARTFEE_DB_DSN"
	EnvUseSQLite     = "CARTFEE_USE_SQLITE"
	EnvStoreDriver   = "CARTFEE_STORE_DRIVER"
	EnvStoreBaseURL  = "CARTFEE_STORE_BASE_URL"
	EnvFeeRate       = "CARTFEE_FEE_RATE"
	EnvFeeSKU        = "CARTFEE_FEE_SKU"
	EnvFeeVariantID  = "CARTFEE_FEE_VARIANT_ID"
	EnvDebounce      = "CARTFEE_DEBOUNCE_WINDOW"
	EnvPreferenceTTL = "CARTFEE_PREFERENCE_TTL"
	EnvCORSOrigins   = "CARTFEE_CORS_ALLOWED_ORIGINS"
)
