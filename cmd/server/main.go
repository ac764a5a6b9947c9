package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/SAP-F-2025/lesson-progress-service/internal/cache"
	"github.com/SAP-F-2025/lesson-progress-service/internal/config"
	"github.com/SAP-F-2025/lesson-progress-service/internal/handlers"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories/mongodb"
	"github.com/SAP-F-2025/lesson-progress-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lesson-progress-service/internal/seed"
	"github.com/SAP-F-2025/lesson-progress-service/internal/services"
	"github.com/SAP-F-2025/lesson-progress-service/internal/utils"
	"github.com/SAP-F-2025/lesson-progress-service/internal/validator"
	"github.com/SAP-F-2025/lesson-progress-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewServiceLogger(cfg.IsProduction())
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var cacheService cache.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Redis unavailable, exercise cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheService = cache.NewRedisCache(redisClient, logger)
			repo = repositories.NewRepository(
				repo.Lesson(),
				repositories.NewCachedExerciseRepository(repo.Exercise(), cacheService, cfg.Cache.ExerciseTTL, logger),
				repo.Progress(),
			)
		}
	}

	v := validator.New()

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, cfg.SeedFile, repo, v, cacheService, logger); err != nil {
			return err
		}
	}

	eventPublisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer eventPublisher.Close()

	serviceManager := services.NewServiceManager(repo, eventPublisher, v, logger, services.RetryPolicy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
	})

	var tokenParser handlers.TokenParser
	if cfg.Auth.Enabled {
		tokenParser = handlers.NewCasdoorTokenParser(cfg.Auth)
	} else {
		logger.Warn("Token auth disabled, trusting the " + handlers.UserIDHeader + " and " + handlers.UserRolesHeader + " headers")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlerLogger := utils.NewSlogLogger(logger)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware(handlerLogger))
	router.Use(handlers.CORSMiddleware(cfg.CORS))
	handlers.NewHandlerManager(serviceManager, tokenParser, handlerLogger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting lesson progress service", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down lesson progress service")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	// queued events go out before the deferred publisher close
	if err := serviceManager.Close(shutdownCtx); err != nil {
		logger.Warn("Progress events left unpublished at shutdown", "error", err)
	}
	return runErr
}

// openStore connects the configured backend and returns the repositories over it
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.Repository, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}

		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		logger.Info("Connected to PostgreSQL")
		return repositories.NewRepository(
			postgres.NewLessonPostgreSQL(db),
			postgres.NewExercisePostgreSQL(db),
			postgres.NewProgressPostgreSQL(db),
		), closeFn, nil

	case "mongo":
		client, err := pkg.NewMongoClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}

		repo, err := mongoRepository(ctx, client.Database(cfg.Mongo.Database))
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Info("Connected to MongoDB", "database", cfg.Mongo.Database)
		return repo, closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q (expected postgres or mongo)", cfg.StoreDriver)
	}
}

func mongoRepository(ctx context.Context, database *mongo.Database) (repositories.Repository, error) {
	exercises := mongodb.NewExerciseRepository(database)
	if err := exercises.InitializeIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create exercise indexes: %w", err)
	}
	progress := mongodb.NewProgressRepository(database)
	if err := progress.InitializeIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create progress indexes: %w", err)
	}
	return repositories.NewRepository(mongodb.NewLessonRepository(database), exercises, progress), nil
}

func applySeed(ctx context.Context, path string, repo repositories.Repository, v *validator.Validator, cacheService cache.CacheService, logger *slog.Logger) error {
	file, err := seed.LoadFile(path)
	if err != nil {
		return err
	}

	result, err := seed.NewSeeder(repo, v, logger).Apply(ctx, file)
	if err != nil {
		return fmt.Errorf("failed to seed lessons: %w", err)
	}
	logger.Info("Seed file applied",
		"file", path,
		"lessons_created", result.LessonsCreated,
		"lessons_skipped", result.LessonsSkipped,
		"lessons_repaired", result.LessonsRepaired,
		"exercises_created", result.ExercisesCreated)

	if cacheService != nil && result.ExercisesCreated > 0 {
		if err := cacheService.DeletePattern(ctx, "lesson:*:exercise_count"); err != nil {
			logger.Warn("Failed to reset cached exercise counts", "error", err)
		}
	}
	return nil
}
