package container

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"cms-backend/db"
	"cms-backend/internal/config"
	infraCache "cms-backend/internal/infrastructure/cache"
	"cms-backend/internal/infrastructure/database"
	"cms-backend/internal/infrastructure/usersclient"
	"cms-backend/internal/shared/middleware"
	"cms-backend/pkg/cache"
	pkgdb "cms-backend/pkg/database"
	"cms-backend/pkg/jwt"
	"cms-backend/pkg/pipeline"
	"cms-backend/pkg/ratelimit"

	// User domain
	"cms-backend/internal/domains/user"
	userHandler "cms-backend/internal/domains/user/handler"
	userRepo "cms-backend/internal/domains/user/repository"
	userService "cms-backend/internal/domains/user/service"

	// Content domain
	"cms-backend/internal/domains/content"
	contentHandler "cms-backend/internal/domains/content/handler"
	contentRepo "cms-backend/internal/domains/content/repository"
	contentService "cms-backend/internal/domains/content/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa dependencies của MỘT service (users hoặc contents).
// Thứ tự khởi tạo: config -> infrastructure -> repositories -> services -> handlers.
type Container struct {
	Config  *config.Config
	Service string

	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	DB           *database.PostgresDB // nil khi STORE_DRIVER=memory
	Redis        *infraCache.RedisClient
	Cache        cache.Cache
	UnitOfWork   pkgdb.UnitOfWork
	Pipeline     *pipeline.Pipeline
	JWTManager   *jwt.Manager
	LoginLimiter *ratelimit.KeyedRateLimiter
	UsersClient  *usersclient.Client

	// ========================================
	// USERS SERVICE
	// ========================================
	UserRepo    user.Repository
	UserService user.Service
	UserHandler *userHandler.UserHandler
	UserSeeder  *userService.Seeder

	// ========================================
	// CONTENTS SERVICE
	// ========================================
	ContentRepo    content.Repository
	ContentService content.Service
	ContentHandler *contentHandler.ContentHandler
	ContentSeeder  *contentService.Seeder
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer dựng dependency graph cho service. Lỗi ở đây là fatal lúc khởi động.
func NewContainer(ctx context.Context, cfg *config.Config, service string) (*Container, error) {
	log.Info().Str("service", service).Msg("[CONTAINER] initializing")

	c := &Container{Config: cfg, Service: service}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	if err := c.initRepositories(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := c.initServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	c.initHandlers()

	log.Info().Str("service", service).Msg("[CONTAINER] initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	// ----------------------------------------
	// STORE
	// ----------------------------------------
	if cfg.Store.Driver == config.StoreDriverPostgres {
		pg := database.NewPostgresDB(cfg.DBConfig())

		connectCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		if err := pg.Connect(connectCtx); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		c.DB = pg
		c.UnitOfWork = pkgdb.NewPgxUnitOfWork(pg.Pool)
	} else {
		log.Warn().Msg("[CONTAINER] using in-memory store, data is lost on restart")
		c.UnitOfWork = &pkgdb.LocalUnitOfWork{}
	}

	// ----------------------------------------
	// CACHE
	// ----------------------------------------
	switch cfg.Cache.Driver {
	case config.CacheDriverRedis:
		rc := infraCache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
		// Redis lỗi không chặn khởi động: cache chỉ là tối ưu, pipeline tự degrade
		if err := rc.Connect(ctx); err != nil {
			log.Warn().Err(err).Msg("[CONTAINER] redis unavailable, requests will bypass cache until it recovers")
		}
		c.Redis = rc
		c.Cache = infraCache.NewRedisCache(rc.Client, c.cacheInstance(), cfg.Cache.DefaultTTL, cfg.Redis.ScanPageSize)
	case config.CacheDriverMemory:
		c.Cache = infraCache.NewMemoryCache(infraCache.MemoryConfig{
			Capacity:   cfg.Cache.MemoryCapacity,
			DefaultTTL: cfg.Cache.DefaultTTL,
			Instance:   c.cacheInstance(),
		})
	default:
		c.Cache = cache.Noop{}
	}
	c.Pipeline = pipeline.New(c.Cache, cfg.Cache.DefaultTTL)

	// ----------------------------------------
	// TOKENS
	// ----------------------------------------
	jm, err := jwt.NewManager(jwt.Options{
		Key:             cfg.JWT.Key,
		Issuer:          cfg.JWT.Issuer,
		Audience:        cfg.JWT.Audience,
		AccessTokenTTL:  cfg.JWT.AccessTokenTTL(),
		ServiceTokenTTL: cfg.JWT.ServiceTokenTTL(),
	})
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	c.JWTManager = jm

	if c.Service == config.ServiceUsers {
		c.LoginLimiter = ratelimit.New(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst, 10*time.Minute)
	}

	// ----------------------------------------
	// USERS CLIENT (contents service)
	// ----------------------------------------
	if c.Service == config.ServiceContents {
		uc, err := c.newUsersClient()
		if err != nil {
			return fmt.Errorf("users client: %w", err)
		}
		c.UsersClient = uc
	}

	return nil
}

func (c *Container) newUsersClient() (*usersclient.Client, error) {
	ucfg := c.Config.UsersClient
	httpClient := &http.Client{Timeout: ucfg.HTTPTimeout}

	var source usersclient.TokenSource
	if ucfg.AuthMode == config.AuthModeSign {
		source = usersclient.NewSignedTokenSource(c.JWTManager, ucfg.ServiceSubject,
			middleware.ScopeUsersRead, middleware.RoleService)
	} else {
		source = usersclient.NewLoginTokenSource(ucfg.BaseURL, ucfg.ServiceEmail, ucfg.ServicePassword, httpClient)
	}

	return usersclient.New(usersclient.Config{
		BaseURL:          ucfg.BaseURL,
		Timeout:          ucfg.Timeout,
		Retries:          ucfg.Retries,
		RetryBaseDelay:   ucfg.RetryBaseDelay,
		BreakerThreshold: ucfg.BreakerThreshold,
		BreakerCooldown:  ucfg.BreakerCooldown,
		BriefCacheTTL:    ucfg.BriefCacheTTL,
		HTTPClient:       httpClient,
	}, usersclient.NewCachedTokenProvider(source, usersclient.DefaultRefreshBefore))
}

// cacheInstance: REDIS_INSTANCE hoặc "<app>:<service>:"
func (c *Container) cacheInstance() string {
	if c.Config.Redis.Instance != "" {
		return c.Config.Redis.Instance
	}
	return c.Config.App.Name + ":" + c.Service + ":"
}

func (c *Container) initRepositories() error {
	memory := c.DB == nil

	switch c.Service {
	case config.ServiceUsers:
		if memory {
			c.UserRepo = userRepo.NewMemoryRepository()
		} else {
			c.UserRepo = userRepo.NewPostgresRepository(c.DB.Pool)
		}
	case config.ServiceContents:
		if memory {
			c.ContentRepo = contentRepo.NewMemoryRepository()
		} else {
			c.ContentRepo = contentRepo.NewPostgresRepository(c.DB.Pool)
		}
	default:
		return fmt.Errorf("unknown service %q", c.Service)
	}
	return nil
}

func (c *Container) initServices() error {
	switch c.Service {
	case config.ServiceUsers:
		svc, err := userService.NewUserService(c.UserRepo, c.UnitOfWork, c.JWTManager, c.Pipeline,
			userService.WithBcryptCost(c.Config.Security.BcryptCost))
		if err != nil {
			return err
		}
		c.UserService = svc
		c.UserSeeder = userService.NewSeeder(c.UserRepo, c.UnitOfWork, c.Cache,
			c.Config.Seed.DefaultPassword, c.Config.Security.BcryptCost)

	case config.ServiceContents:
		c.ContentService = contentService.NewContentService(c.ContentRepo, c.UnitOfWork, c.UsersClient, c.Pipeline,
			contentService.WithEnrichConcurrency(c.Config.UsersClient.EnrichParallel))
		c.ContentSeeder = contentService.NewSeeder(c.ContentRepo, c.UnitOfWork, c.Cache)
	}
	return nil
}

func (c *Container) initHandlers() {
	if c.UserService != nil {
		c.UserHandler = userHandler.NewUserHandler(c.UserService)
	}
	if c.ContentService != nil {
		c.ContentHandler = contentHandler.NewContentHandler(c.ContentService)
	}
}

// ========================================
// HELPER METHODS
// ========================================

// Seed chạy seeder của service hiện tại, trả về số bản ghi tạo mới
func (c *Container) Seed(ctx context.Context) (int, error) {
	switch {
	case c.UserSeeder != nil:
		return c.UserSeeder.Seed(ctx)
	case c.ContentSeeder != nil:
		return c.ContentSeeder.Seed(ctx)
	}
	return 0, nil
}

// ReadinessChecks trả kết quả ping từng dependency; ok=false nếu có cái lỗi.
// Cache lỗi chỉ làm degraded, không làm not ready.
func (c *Container) ReadinessChecks(ctx context.Context) (checks map[string]string, ok bool) {
	checks = map[string]string{}
	ok = true

	if c.DB != nil {
		if err := c.DB.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			ok = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "memory"
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Cache.Ping(pingCtx); err != nil {
		checks["cache"] = "degraded: " + err.Error()
	} else {
		checks["cache"] = "ok"
	}

	if c.UsersClient != nil {
		checks["usersBreaker"] = c.UsersClient.BreakerState().String()
	}
	return checks, ok
}

// Migrations trả source, thư mục và bảng version của service
func Migrations(service string) (fs.FS, string, string, error) {
	switch service {
	case config.ServiceUsers:
		return db.UsersMigrations, "migrations/users", "users_schema_migrations", nil
	case config.ServiceContents:
		return db.ContentsMigrations, "migrations/contents", "contents_schema_migrations", nil
	}
	return nil, "", "", fmt.Errorf("unknown service %q", service)
}

// NewMigrator tạo migrator cho service theo DATABASE_URL / DB_*
func NewMigrator(cfg *config.Config, service string) (*database.Migrator, error) {
	source, dir, table, err := Migrations(service)
	if err != nil {
		return nil, err
	}
	return database.NewMigrator(source, dir, cfg.Database.DSN(), table), nil
}

// Cleanup dọn dẹp resources khi shutdown, gọi nhiều lần an toàn
func (c *Container) Cleanup() {
	if c.LoginLimiter != nil {
		c.LoginLimiter.Stop()
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("[CONTAINER] failed to close database")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("[CONTAINER] failed to close redis")
		}
	}

	log.Info().Msg("[CONTAINER] cleanup completed")
}
