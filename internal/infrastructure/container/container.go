// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alchemorsel/recipeclient/internal/application/recipeclient"
	"github.com/alchemorsel/recipeclient/internal/application/user"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/config"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/http/apiclient"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/http/eventlog"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/http/webserver"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/monitoring"
	gormStore "github.com/alchemorsel/recipeclient/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/persistence/memory"
	redisStore "github.com/alchemorsel/recipeclient/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/recipeclient/internal/ports/inbound"
	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	"github.com/alchemorsel/recipeclient/pkg/healthcheck"
	"github.com/alchemorsel/recipeclient/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

// Module wires the whole recipe client. configPath may be empty to search
// the default locations.
func Module(configPath string) fx.Option {
	return fx.Options(
		// Infrastructure modules
		ConfigModule(configPath),
		LoggerModule,
		MetricsModule,
		StorageModule,

		// Service modules
		ServiceModule,

		// HTTP modules
		HTTPModule,

		// Lifecycle hooks
		LifecycleModule,
	)
}

// ConfigModule provides configuration
func ConfigModule(configPath string) fx.Option {
	return fx.Provide(
		func() (*config.Config, error) {
			return config.Load(configPath)
		},
	)
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MetricsModule provides the Prometheus registry and the collector built on it
var MetricsModule = fx.Provide(
	func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	},
	monitoring.NewMetricsCollector,
)

// Storage is the key-value store selected by configuration. Redis is set only
// for the redis driver. Close releases whatever connection backs Store.
type Storage struct {
	Store outbound.KeyValueStore
	Redis redis.UniversalClient
	Close func() error
}

// StorageModule provides the configured key-value store
var StorageModule = fx.Provide(
	NewStorage,
	func(s *Storage) outbound.KeyValueStore {
		return s.Store
	},
)

// NewStorage opens the store named by storage.driver.
func NewStorage(cfg *config.Config, log *zap.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Info("Using in-memory storage")
		return &Storage{
			Store: memory.NewKVStore(),
			Close: func() error { return nil },
		}, nil

	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout+time.Second)
		defer cancel()

		client, err := redisStore.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("Using Redis storage", zap.String("addr", cfg.RedisAddr()))
		return &Storage{
			Store: redisStore.NewKVStore(client, cfg.Redis.KeyPrefix, log),
			Redis: client,
			Close: client.Close,
		}, nil

	case "sqlite", "":
		logLevel := gormLogger.Silent
		if cfg.App.Debug {
			logLevel = gormLogger.Info
		}

		db, err := sqlite.SetupDatabase(cfg.Storage.SQLitePath, logLevel)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		log.Info("Using SQLite storage", zap.String("path", cfg.Storage.SQLitePath))
		return &Storage{
			Store: gormStore.NewKVStore(db),
			Close: sqlDB.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	user.NewUserService,
	func(users *user.UserService) outbound.InstanceIdentity { return users },
	func(users *user.UserService) inbound.Identity { return users },

	func(cfg *config.Config, identity outbound.InstanceIdentity, metrics *monitoring.MetricsCollector, log *zap.Logger) outbound.Gateway {
		return apiclient.NewClient(cfg.API, identity, metrics, log)
	},

	func(cfg *config.Config, identity outbound.InstanceIdentity, metrics *monitoring.MetricsCollector, log *zap.Logger) *eventlog.Logger {
		return eventlog.NewLogger(cfg.Audit, cfg.API.ServiceClientID, identity, metrics, log)
	},

	func(
		cfg *config.Config,
		gateway outbound.Gateway,
		users *user.UserService,
		events *eventlog.Logger,
		metrics *monitoring.MetricsCollector,
		log *zap.Logger,
	) inbound.RecipeClient {
		return recipeclient.NewService(gateway, users, events, metrics, cfg.API.ServiceClientID, log)
	},
)

// HTTPModule provides the web server and everything it serves
var HTTPModule = fx.Provide(
	middleware.New,
	webserver.NewSessionStore,
	func(cfg *config.Config, log *zap.Logger) *webserver.ClientLogWriter {
		return webserver.NewClientLogWriter(cfg.Audit.LogFile, log)
	},
	NewHealthCheck,
	func(
		cfg *config.Config,
		log *zap.Logger,
		service inbound.RecipeClient,
		identity inbound.Identity,
		sessions *webserver.SessionStore,
		mw *middleware.Middleware,
		metrics *monitoring.MetricsCollector,
		health *healthcheck.HealthCheck,
		clientLog *webserver.ClientLogWriter,
	) (*webserver.WebServer, error) {
		return webserver.NewWebServer(cfg, log, webserver.Dependencies{
			Service:    service,
			Identity:   identity,
			Sessions:   sessions,
			Middleware: mw,
			Metrics:    metrics,
			Health:     health,
			ClientLog:  clientLog,
		})
	},
)

// NewHealthCheck registers the storage check, the Redis check when Redis
// backs storage, and a non-critical probe of the recipe service.
func NewHealthCheck(cfg *config.Config, log *zap.Logger, storage *Storage) *healthcheck.HealthCheck {
	hc := healthcheck.New(cfg.App.Version, log)
	hc.SetCacheTTL(5 * time.Second)

	hc.Register("storage", healthcheck.NewStorageChecker(storage.Store, user.InstanceIDKey))
	if storage.Redis != nil {
		hc.Register("redis", healthcheck.NewRedisChecker(storage.Redis))
	}
	if cfg.API.BaseURL != "" {
		hc.Register("recipe_service", healthcheck.NewExternalServiceChecker(
			"recipe_service", cfg.API.BaseURL, 5*time.Second, false,
		))
	}
	return hc
}

// LifecycleModule manages application lifecycle
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	storage *Storage,
	users *user.UserService,
	events *eventlog.Logger,
	sessions *webserver.SessionStore,
	server *webserver.WebServer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			instanceID, err := users.GetOrCreateInstanceID(ctx)
			if err != nil {
				return fmt.Errorf("failed to resolve instance id: %w", err)
			}

			log.Info("Starting recipe client",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("instance_id", instanceID),
				zap.String("api_base_url", cfg.API.BaseURL),
			)
			if cfg.API.BaseURL == "" {
				log.Warn("API base URL is not configured; backend calls will fail")
			}

			sessions.StartCleanup(webserver.CleanupInterval)

			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down recipe client")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			sessions.Stop()

			if err := events.Close(ctx); err != nil {
				log.Warn("Pending client events were not delivered", zap.Error(err))
			}

			if err := storage.Close(); err != nil {
				log.Error("Failed to close storage", zap.Error(err))
			}

			// Flush logs
			_ = log.Sync()

			return nil
		},
	})
}
