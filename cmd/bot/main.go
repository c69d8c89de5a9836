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

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"famledger/internal/auth"
	"famledger/internal/bot"
	"famledger/internal/categories"
	"famledger/internal/config"
	"famledger/internal/database"
	"famledger/internal/handlers"
	"famledger/internal/inference"
	"famledger/internal/logger"
	"famledger/internal/middleware"
	"famledger/internal/parser"
	"famledger/internal/services"
	"famledger/internal/telegram"
	"famledger/internal/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}

	registry, err := categories.Load(cfg.CategoriesFile)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db, cfg.DBQueryTimeout)
	auditService := services.NewAuditService(db, cfg.DBQueryTimeout)

	authorizer, err := auth.New(cfg.AuthStrategy, userService, cfg.AuthCacheTTL)
	if err != nil {
		return err
	}
	if err := authorizer.ForceRefresh(ctx); err != nil {
		log.Warnw("initial authorization load failed, will retry on demand", "error", err)
	}

	transactionService := services.NewTransactionService(db, authorizer, auditService, services.StoreConfig{
		QueryTimeout: cfg.DBQueryTimeout,
		Location:     cfg.Location,
	})

	txParser := parser.New(
		inference.NewClient(cfg.InferenceHost, &http.Client{Timeout: cfg.InferenceTimeout}),
		registry,
		parser.Config{
			Model:       cfg.InferenceModel,
			Temperature: cfg.InferenceTemperature,
			MaxTokens:   cfg.InferenceMaxTokens,
			Timeout:     cfg.InferenceTimeout,
			Tolerance:   cfg.ReconcileTolerance,
		},
	)

	handler := bot.NewHandler(authorizer, txParser, transactionService, auditService, bot.Config{
		CurrencySymbol: cfg.CurrencySymbol,
		Location:       cfg.Location,
		RecentLimit:    cfg.RecentLimit,
		FamilyLimit:    cfg.FamilyLimit,
	})

	// Chat gateway
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	gateway := telegram.NewGateway(api, handler, cfg.BotWorkers)
	if err := gateway.RegisterCommands(); err != nil {
		log.Warnw("failed to register bot commands", "error", err)
	}

	// Admin API
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	handlers.NewAdminHandler(userService, authorizer, auditService).
		Register(router, middleware.AdminAuth(cfg.AdminAPIKey))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting admin API on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin API: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		err := gateway.Poll(gctx, api)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err = g.Wait()
	log.Info("Shutting down")
	return err
}
