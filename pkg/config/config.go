package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Redis        RedisConfig
	DB           DBConfig
	Store        StoreConfig
	Fee          FeeConfig
	Scheduler    SchedulerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Fee.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CARTFEE_APP_ENV" required:"true"`
	Port         string `envconfig:"CARTFEE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CARTFEE_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CARTFEE_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CARTFEE_LOG_WARN_STACK" default:"false"`

	// CORSAllowedOrigins are the storefront origins whose scripts may call the API.
	CORSAllowedOrigins []string `envconfig:"CARTFEE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"CARTFEE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CARTFEE_REDIS_ADDR"`
	Password     string        `envconfig:"CARTFEE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARTFEE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARTFEE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARTFEE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARTFEE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARTFEE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARTFEE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN    string `envconfig:"CARTFEE_DB_DSN"`
	Driver string `envconfig:"CARTFEE_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"CARTFEE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CARTFEE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CARTFEE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARTFEE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// StoreConfig points the service at the storefront cart API.
type StoreConfig struct {
	Driver     string        `envconfig:"CARTFEE_STORE_DRIVER" default:"http"`
	BaseURL    string        `envconfig:"CARTFEE_STORE_BASE_URL"`
	Timeout    time.Duration `envconfig:"CARTFEE_STORE_TIMEOUT" default:"5s"`
	SectionID  string        `envconfig:"CARTFEE_CART_SECTION_ID" default:"main-cart-items"`
	CartCookie string        `envconfig:"CARTFEE_STORE_CART_COOKIE" default:"cart"`
}

// FeeConfig holds the tunables of the surcharge line item.
type FeeConfig struct {
	Rate           decimal.Decimal   `envconfig:"CARTFEE_FEE_RATE" default:"0.035"`
	SKU            string            `envconfig:"CARTFEE_FEE_SKU" default:"PAYPAL-FEE"`
	VariantID      int64             `envconfig:"CARTFEE_FEE_VARIANT_ID"`
	LineProperties map[string]string `envconfig:"CARTFEE_FEE_LINE_PROPERTIES" default:"_fee:paypal"`
	PreferenceTTL  time.Duration     `envconfig:"CARTFEE_PREFERENCE_TTL" default:"24h"`
}

type SchedulerConfig struct {
	DebounceWindow time.Duration `envconfig:"CARTFEE_DEBOUNCE_WINDOW" default:"600ms"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CARTFEE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CARTFEE_AUTO_MIGRATE" default:"false"`
}

// IsMemory reports whether the in-process cart store should be used.
func (s StoreConfig) IsMemory() bool {
	return strings.EqualFold(strings.TrimSpace(s.Driver), StoreDriverMemory)
}

func (s StoreConfig) validate() error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	switch driver {
	case StoreDriverMemory:
		return nil
	case StoreDriverHTTP:
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvStoreDriver, StoreDriverHTTP, StoreDriverMemory)
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("%s is required for the %s store driver", EnvStoreBaseURL, StoreDriverHTTP)
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvStoreBaseURL)
	}
	return nil
}

func (f FeeConfig) validate() error {
	if f.Rate.LessThanOrEqual(decimal.Zero) || f.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1 exclusive, got %s", EnvFeeRate, f.Rate.String())
	}
	if strings.TrimSpace(f.SKU) == "" && f.VariantID == 0 {
		return fmt.Errorf("either %s or %s is required to identify the fee line", EnvFeeSKU, EnvFeeVariantID)
	}
	return nil
}

// Properties returns the line item properties attached to the fee line.
func (f FeeConfig) Properties() map[string]any {
	out := make(map[string]any, len(f.LineProperties))
	for k, v := range f.LineProperties {
		out[k] = v
	}
	return out
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
	if db.DSN == "" {
		return fmt.Errorf("%s is required unless %s is set", EnvDBDSN, EnvUseSQLite)
	}
	if db.Driver == "" {
		db.Driver = DBDriverPostgres
	}
	return nil
}
