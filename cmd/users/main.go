// Package main реализует точку входа сервиса пользователей.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ecomshop/internal/users/adapters/cache"
	"ecomshop/internal/users/adapters/events"
	"ecomshop/internal/users/adapters/grpc"
	usershttp "ecomshop/internal/users/adapters/http"
	"ecomshop/internal/users/adapters/http/middleware"
	"ecomshop/internal/users/adapters/locker"
	"ecomshop/internal/users/adapters/postgres"
	"ecomshop/internal/users/app"
	"ecomshop/internal/users/config"
	"ecomshop/internal/users/db"
	"ecomshop/internal/users/ports/services"
	"ecomshop/pkg/db/redis"
	"ecomshop/pkg/logger"
	"ecomshop/pkg/shutdown"
	"ecomshop/pkg/validation"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "USERS_LOGGER_MODE"
	EnvLoggerLevel = "USERS_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrInitDB               = "failed to initialize database"
	ErrCreateRedisClient    = "failed to create Redis client"
	ErrConnectBroker        = "failed to connect to message broker"
	ErrUnknownLockBackend   = "unknown lock backend"
	ErrStartHTTPServer      = "failed to start HTTP server"
	ErrStartGRPC            = "failed to start gRPC server"
	ErrShutdown             = "shutdown finished with errors"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "users service started"
	LogServiceShutdownDone = "users service shutdown complete"
	LogInitRepo            = "initializing repositories"
	LogInitCache           = "initializing cache"
	LogInitLocker          = "initializing locker"
	LogInitEvents          = "initializing event publisher"
	LogInitUseCases        = "initializing use cases"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogInitGRPCServer      = "initializing gRPC server"
)

func main() {
	env := logger.ParseEnvironment(os.Getenv(EnvLoggerMode))

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		database, err := db.New(ctx, &cfg.Postgres)
		if err != nil {
			log.Error(ctx, ErrInitDB, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogInitCache)
		redisClient, err := redis.NewClient(ctx, cfg.Redis.ClientConfig())
		if err != nil {
			log.Error(ctx, ErrCreateRedisClient, zap.Error(err))
			database.Close(ctx)
			exitCode = 1
			return
		}

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		log.Info(ctx, LogInitRepo)
		userRepo := cache.NewUserCache(postgres.NewUserRepository(database.Pool()), redisClient, cfg.Redis.UserCacheTTL)

		log.Info(ctx, LogInitLocker, zap.String("backend", cfg.Lock.Backend))
		userLocker, err := newLocker(&cfg.Lock, redisClient)
		if err != nil {
			log.Error(ctx, ErrUnknownLockBackend, zap.Error(err))
			_ = redisClient.Close()
			database.Close(ctx)
			exitCode = 1
			return
		}

		log.Info(ctx, LogInitEvents, zap.Bool("enabled", cfg.Events.Enabled))
		var (
			publisher services.EventPublisher = events.NoopPublisher{}
			amqpPub   *events.AMQPPublisher
		)
		if cfg.Events.Enabled {
			amqpPub, err = events.Dial(ctx, cfg.Events.URL, cfg.Events.Exchange)
			if err != nil {
				log.Error(ctx, ErrConnectBroker, zap.Error(err))
				_ = redisClient.Close()
				database.Close(ctx)
				exitCode = 1
				return
			}
			publisher = amqpPub
		}

		log.Info(ctx, LogInitUseCases)
		userUseCase := app.NewUserUseCase(userRepo, userLocker, publisher)

		healthCheck := func(ctx context.Context) error {
			return errors.Join(database.Ping(ctx), redisClient.Ping(ctx).Err())
		}

		log.Info(ctx, LogInitHTTPServer)
		httpApp := fiber.New(fiber.Config{
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			ErrorHandler: usershttp.NewErrorHandler(),
		})
		handler := usershttp.NewHandler(userUseCase, validation.New(), cfg.Auth.AdminRole, healthCheck)
		auth := middleware.NewAuthMiddleware(middleware.AuthConfig{
			SecretKey:  []byte(cfg.Auth.SecretKey),
			Issuer:     cfg.Auth.Issuer,
			RolesClaim: cfg.Auth.RolesClaim,
			Leeway:     time.Duration(cfg.Auth.LeewaySecs) * time.Second,
		})
		usershttp.SetupRouter(httpApp, handler, auth)

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := httpApp.Listen(cfg.HTTP.GetAddress(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		log.Info(ctx, LogInitGRPCServer)
		grpcServer := grpc.New(&cfg.GRPC)
		if err := grpcServer.Start(ctx); err != nil {
			log.Error(ctx, ErrStartGRPC, zap.Error(err))
			exitCode = 1
		}

		watchCtx, stopWatch := context.WithCancel(ctx)
		go grpcServer.WatchDependencies(watchCtx, cfg.GRPC.HealthInterval, healthCheck)

		hooks := []shutdown.Hook{
			{Name: "http", Fn: func(ctx context.Context) error {
				return httpApp.ShutdownWithContext(ctx)
			}},
			{Name: "grpc", Fn: func(ctx context.Context) error {
				stopWatch()
				grpcServer.Stop(ctx)
				return nil
			}},
		}
		if amqpPub != nil {
			hooks = append(hooks, shutdown.Hook{Name: "amqp", Fn: amqpPub.Close})
		}

		if exitCode == 0 {
			err = shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(), hooks...)
		} else {
			err = shutdown.Run(ctx, cfg.Shutdown.GetTimeout(), hooks...)
		}
		if err != nil {
			log.Error(ctx, ErrShutdown, zap.Error(err))
			exitCode = 1
		}

		// Хранилища закрываются после остановки серверов.
		if err := redisClient.Close(); err != nil {
			log.Warn(ctx, ErrShutdown, zap.String("component", "redis"), zap.Error(err))
		}
		database.Close(ctx)

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func newLocker(cfg *config.LockConfig, client goredis.Cmdable) (services.Locker, error) {
	switch cfg.Backend {
	case config.LockBackendRedis:
		return locker.NewRedisLocker(client, locker.Options{
			TTL:          cfg.TTL,
			WaitTimeout:  cfg.WaitTimeout,
			RetryBackoff: cfg.RetryBackoff,
		}), nil
	case config.LockBackendMemory:
		return locker.NewMemoryLocker(cfg.WaitTimeout), nil
	default:
		return nil, fmt.Errorf("%s: %q", ErrUnknownLockBackend, cfg.Backend)
	}
}
