package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/academia-api/internal/auth"
	"github.com/noah-isme/academia-api/internal/config"
	"github.com/noah-isme/academia-api/internal/database"
	"github.com/noah-isme/academia-api/internal/handler"
	"github.com/noah-isme/academia-api/internal/middleware"
	"github.com/noah-isme/academia-api/internal/repository"
	"github.com/noah-isme/academia-api/internal/router"
	"github.com/noah-isme/academia-api/internal/service"
	"github.com/noah-isme/academia-api/pkg/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, dashboard cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	publishers := events.Multi{}
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, domain events will not be broadcast")
		} else {
			defer natsConn.Drain()
			publishers = append(publishers, events.NewNATSPublisher(natsConn, cfg.NATSSubject))
		}
	}
	if redisClient != nil {
		publishers = append(publishers, events.NewRedisPublisher(redisClient, cfg.NATSSubject))
	}
	var publisher events.Publisher = events.NopPublisher{}
	if len(publishers) > 0 {
		publisher = publishers
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	dashboardService := service.NewDashboardService(studentRepo, courseRepo, facultyRepo, redisClient, cfg.DashboardCacheTTL, validate, logger)
	activityService := service.NewActivityService(activityRepo, publisher, dashboardService, validate, logger)

	operationHandler := handler.NewOperationHandler(handler.Services{
		Auth:      service.NewAuthService(userRepo, tokens, activityService, validate, logger),
		Students:  service.NewStudentService(studentRepo, courseRepo, activityService, validate, logger),
		Courses:   service.NewCourseService(courseRepo, studentRepo, activityService, validate, logger),
		Faculty:   service.NewFacultyService(facultyRepo, courseRepo, activityService, validate, logger),
		Dashboard: dashboardService,
		Reports:   service.NewReportService(studentRepo, courseRepo, validate, logger),
		Activity:  activityService,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		OperationHandler:   operationHandler,
		IdentityMiddleware: middleware.Identity(tokens, logger),
		RateLimiter:        middleware.RateLimit("operations", cfg.RateLimitMax, cfg.RateLimitWindow),
		HealthChecks:       healthChecks(db, redisClient, natsConn),
		ExposeMetrics:      true,
	})

	logger.Info().Strs("operations", operationHandler.Operations()).Str("address", cfg.HTTPAddress()).Msg("starting server")

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func healthChecks(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		checks["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return checks
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
