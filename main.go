package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/assistant"
	"github.com/camden-git/eventmealsbackend/cache"
	"github.com/camden-git/eventmealsbackend/config"
	"github.com/camden-git/eventmealsbackend/database"
	"github.com/camden-git/eventmealsbackend/handlers"
	"github.com/camden-git/eventmealsbackend/llm"
	"github.com/camden-git/eventmealsbackend/logging"
	"github.com/camden-git/eventmealsbackend/metrics"
	"github.com/camden-git/eventmealsbackend/realtime"
	"github.com/camden-git/eventmealsbackend/repository"
	"github.com/camden-git/eventmealsbackend/services"
)

const (
	shutdownTimeout    = 10 * time.Second
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 90 * time.Second
	serverIdleTimeout  = 120 * time.Second
)

var rootCmd = &cobra.Command{
	Use:           "eventmeals",
	Short:         "Meal and drink allowance service for event serving points",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, order feed and assistant",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: No .env file found or error loading: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and opens the migrated database.
func setup() (config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})

	db, err := database.InitGormDB(cfg.DatabasePath, logger, logging.GormLevel(cfg.GormLogLevel))
	if err != nil {
		return cfg, logger, nil, err
	}
	if err := database.AutoMigrateModels(db); err != nil {
		return cfg, logger, nil, err
	}
	return cfg, logger, db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if err := cfg.RequireServer(); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	recorder := metrics.NewRecorder()
	hub := realtime.NewHub(logger.Named("realtime"))

	var (
		lookupCache cache.Cache
		memory      *cache.Memory
	)
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, logger)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		lookupCache = redisCache
		logger.Info("Using Redis lookup cache", zap.String("addr", cfg.RedisAddr))
	} else {
		memory = cache.NewMemory(cache.WithMemoryLogger(logger))
		lookupCache = memory
	}

	opts := []services.Option{
		services.WithLogger(logger.Named("services")),
		services.WithMetrics(recorder),
		services.WithPublisher(hub),
	}
	approvals := services.NewApprovals(db, opts...)
	ledger := services.NewLedger(db, approvals, opts...)
	catalog := services.NewCatalog(db, opts...)

	people := repository.NewPersonRepository(db)
	consumption := repository.NewConsumptionRepository(db)
	stats := database.NewStatsStore(sqlDB)
	lookup := assistant.NewLookup(people,
		assistant.WithLookupCache(lookupCache, cfg.LookupCacheTTL),
		assistant.WithLookupLogger(logger.Named("lookup")))

	var orchestrator *assistant.Orchestrator
	if cfg.LLMAPIKey != "" {
		completer, err := llm.NewGenAICompleter(ctx, llm.GenAIConfig{
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		}, logger.Named("llm"))
		if err != nil {
			return err
		}
		builder := assistant.NewContextBuilder(assistant.Sources{
			People:      people,
			Drinks:      repository.NewDrinkRepository(db),
			Orders:      repository.NewOrderRepository(db),
			Consumption: consumption,
			Stats:       stats,
		}, assistant.NewClassifier(lookup), nil)
		orchestrator = assistant.NewOrchestrator(repository.NewConversationRepository(db), builder, completer,
			assistant.WithLogger(logger.Named("assistant")),
			assistant.WithMetrics(recorder))
	} else {
		logger.Warn("No completion API key configured, assistant routes are disabled")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		DB:             db,
		Admins:         repository.NewGormAdminRepository(db),
		People:         people,
		Consumption:    consumption,
		Stats:          stats,
		Ledger:         ledger,
		Approvals:      approvals,
		Catalog:        catalog,
		Orchestrator:   orchestrator,
		Lookups:        lookup,
		OrderFeed:      http.HandlerFunc(hub.ServeWS),
		MetricsHandler: recorder.Handler(),
		JWTSecret:      []byte(cfg.JWTSecret),
		JWTExpiry:      cfg.JWTExpiry,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: cfg.LLMTimeout + 10*time.Second,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	g.Go(func() error { return hub.Run(ctx) })
	if memory != nil {
		g.Go(func() error { return memory.Run(ctx) })
	}
	g.Go(func() error {
		logger.Info("Server listening", zap.String("addr", cfg.ListenAddr), zap.String("database", cfg.DatabasePath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
