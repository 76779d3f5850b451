package config

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ServiceUsers    = "users"
	ServiceContents = "contents"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
	CacheDriverNone   = "none"

	AuthModeLogin = "login"
	AuthModeSign  = "sign"

	minJWTKeyLength = 32
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables (cleanenv struct tags)
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Store       StoreConfig
	Redis       RedisConfig
	Cache       CacheConfig
	JWT         JWTConfig
	UsersClient UsersClientConfig
	Seed        SeedConfig
	RateLimit   RateLimitConfig
	Security    SecurityConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" env-default:"cms"`
	Environment string `env:"APP_ENV" env-default:"development"` // development, staging, production
	Port        string `env:"APP_PORT" env-default:"8080"`
	Version     string `env:"APP_VERSION" env-default:"1.0.0"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	// RequestTimeout là deadline của mỗi request, users client cắt timeout theo nó
	RequestTimeout time.Duration `env:"APP_REQUEST_TIMEOUT" env-default:"15s"`
	// MigrateOnStart chạy migrations trước khi serve
	MigrateOnStart bool `env:"MIGRATE_ON_START" env-default:"false"`
}

type DatabaseConfig struct {
	URL               string        `env:"DATABASE_URL"`
	Host              string        `env:"DB_HOST" env-default:"localhost"`
	Port              int           `env:"DB_PORT" env-default:"5432"`
	User              string        `env:"DB_USER" env-default:"postgres"`
	Password          string        `env:"DB_PASSWORD"`
	Name              string        `env:"DB_NAME" env-default:"cms"`
	SSLMode           string        `env:"DB_SSLMODE" env-default:"disable"`
	MaxConns          int32         `env:"DB_MAX_CONNECTIONS" env-default:"25"`
	MinConns          int32         `env:"DB_MIN_CONNECTIONS" env-default:"2"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" env-default:"5m"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" env-default:"1m"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" env-default:"1m"`
	MaxRetries        int           `env:"DB_MAX_RETRIES" env-default:"5"`
	RetryDelay        time.Duration `env:"DB_RETRY_DELAY" env-default:"1s"`
	ConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT" env-default:"10s"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" env-default:"postgres"` // postgres | memory
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	// Instance namespace cho mọi key của deployment này, vd "cms:users:"
	Instance     string `env:"REDIS_INSTANCE"`
	ScanPageSize int64  `env:"REDIS_SCAN_PAGE_SIZE" env-default:"500"`
	PoolSize     int    `env:"REDIS_POOL_SIZE" env-default:"10"`
}

type CacheConfig struct {
	Driver         string        `env:"CACHE_DRIVER" env-default:"redis"` // redis | memory | none
	DefaultTTL     time.Duration `env:"CACHE_DEFAULT_TTL" env-default:"60s"`
	MemoryCapacity int           `env:"CACHE_MEMORY_CAPACITY" env-default:"10000"`
}

type JWTConfig struct {
	Key                 string `env:"JWT_KEY"`
	Issuer              string `env:"JWT_ISSUER" env-default:"cms-users"`
	Audience            string `env:"JWT_AUDIENCE" env-default:"cms-clients"`
	AccessTokenMinutes  int    `env:"JWT_ACCESS_TOKEN_MINUTES" env-default:"60"`
	ServiceTokenMinutes int    `env:"JWT_SERVICE_TOKEN_MINUTES" env-default:"30"`
}

func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.AccessTokenMinutes) * time.Minute
}

func (j JWTConfig) ServiceTokenTTL() time.Duration {
	return time.Duration(j.ServiceTokenMinutes) * time.Minute
}

// UsersClientConfig cấu hình client gọi sang user service (chỉ content service dùng)
type UsersClientConfig struct {
	BaseURL          string        `env:"USERS_BASE_URL"`
	Timeout          time.Duration `env:"USERS_TIMEOUT" env-default:"3s"`
	HTTPTimeout      time.Duration `env:"USERS_HTTP_TIMEOUT" env-default:"5s"`
	Retries          int           `env:"USERS_RETRIES" env-default:"3"`
	RetryBaseDelay   time.Duration `env:"USERS_RETRY_BASE_DELAY" env-default:"200ms"`
	BreakerThreshold uint32        `env:"USERS_BREAKER_THRESHOLD" env-default:"5"`
	BreakerCooldown  time.Duration `env:"USERS_BREAKER_COOLDOWN" env-default:"30s"`
	AuthMode         string        `env:"USERS_AUTH_MODE" env-default:"login"` // login | sign
	ServiceEmail     string        `env:"USERS_SERVICE_EMAIL" env-default:"admin@cms.local"`
	ServicePassword  string        `env:"USERS_SERVICE_PASSWORD"`
	ServiceSubject   string        `env:"USERS_SERVICE_SUBJECT" env-default:"content-service"`
	EnrichParallel   int           `env:"USERS_ENRICH_CONCURRENCY" env-default:"8"`
	// memo brief trong process, 0 để tắt
	BriefCacheTTL time.Duration `env:"USERS_BRIEF_CACHE_TTL" env-default:"30s"`
}

type SeedConfig struct {
	OnStart         bool   `env:"SEED_ON_START" env-default:"false"`
	DefaultPassword string `env:"SEED_DEFAULT_PASSWORD" env-default:"P@ssw0rd!"`
}

type SecurityConfig struct {
	BcryptCost int `env:"BCRYPT_COST" env-default:"12"`
}

type RateLimitConfig struct {
	LoginRPS   float64 `env:"LOGIN_RATE_RPS" env-default:"1"`
	LoginBurst int     `env:"LOGIN_RATE_BURST" env-default:"5"`
	// chỉ bật khi chạy sau reverse proxy tin cậy
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" env-default:"false"`
}

// Load đọc .env (nếu có) rồi environment variables và validate cho service tương ứng
func Load(service string) (*Config, error) {
	// .env là optional, chỉ dùng khi dev local
	_ = godotenv.Load()

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(service); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không. Mọi lỗi ở đây là fatal lúc khởi động.
func (c *Config) Validate(service string) error {
	if service != ServiceUsers && service != ServiceContents {
		return fmt.Errorf("unknown service %q", service)
	}

	if len(c.JWT.Key) < minJWTKeyLength {
		return errors.New("JWT_KEY must be set and at least 32 bytes long")
	}

	err := validation.Errors{
		"STORE_DRIVER": validation.Validate(c.Store.Driver,
			validation.Required, validation.In(StoreDriverPostgres, StoreDriverMemory)),
		"CACHE_DRIVER": validation.Validate(c.Cache.Driver,
			validation.Required, validation.In(CacheDriverRedis, CacheDriverMemory, CacheDriverNone)),
		"JWT_ISSUER":               validation.Validate(c.JWT.Issuer, validation.Required),
		"JWT_ACCESS_TOKEN_MINUTES": validation.Validate(c.JWT.AccessTokenMinutes, validation.Required, validation.Min(1)),
		"APP_PORT":                 validation.Validate(c.App.Port, validation.Required, is.Port),
		"BCRYPT_COST":              validation.Validate(c.Security.BcryptCost, validation.Required, validation.Min(4), validation.Max(31)),
	}.Filter()
	if err != nil {
		return err
	}

	if service == ServiceContents {
		err := validation.Errors{
			"USERS_BASE_URL": validation.Validate(c.UsersClient.BaseURL, validation.Required, is.URL),
			"USERS_AUTH_MODE": validation.Validate(c.UsersClient.AuthMode,
				validation.Required, validation.In(AuthModeLogin, AuthModeSign)),
			"USERS_TIMEOUT": validation.Validate(c.UsersClient.Timeout, validation.Required),
		}.Filter()
		if err != nil {
			return err
		}
		if c.UsersClient.AuthMode == AuthModeLogin && c.UsersClient.ServicePassword == "" {
			return errors.New("USERS_SERVICE_PASSWORD must be set when USERS_AUTH_MODE=login")
		}
	}

	if c.App.Environment == "production" && c.Store.Driver == StoreDriverMemory {
		return errors.New("STORE_DRIVER=memory is not allowed in production")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
