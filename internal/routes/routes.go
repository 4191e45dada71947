package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerpay/ledgerpay/internal/auth"
	"github.com/ledgerpay/ledgerpay/internal/config"
	"github.com/ledgerpay/ledgerpay/internal/ledger"
	"github.com/ledgerpay/ledgerpay/internal/middleware"
	"github.com/ledgerpay/ledgerpay/internal/notification"
	"github.com/ledgerpay/ledgerpay/internal/owners"
	"github.com/ledgerpay/ledgerpay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Stores fall back to memory without a database (dev only).
	var store wallet.Store
	if d.DB != nil {
		store = wallet.NewPostgresStore(d.DB)
	} else {
		store = wallet.NewMemoryStore()
	}
	var ownerRepo owners.Repository
	if d.DB != nil {
		ownerRepo = owners.NewPostgresRepository(d.DB)
	} else {
		ownerRepo = owners.NewMemoryRepository()
	}

	// Services and handlers
	ownerSvc := owners.NewService(ownerRepo)
	directory := wallet.NewDirectory(store, ownerSvc, d.Cfg.DefaultCurrency)
	engine := ledger.NewEngine(store)
	notifier := notification.NewLoggerNotifier(d.Logger)

	authSvc := auth.NewService(d.Cfg, ownerRepo)
	authHandler := auth.NewHandler(ownerSvc, authSvc)
	walletHandler := wallet.NewHandler(directory)
	ledgerHandler := ledger.NewHandler(engine, directory, notifier)

	// API routes
	api := app.Group("/api/v1")

	// Public routes
	RegisterOwnerRoutes(api, ownerSvc, directory, d.Logger)
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, ownerRepo)
	protected := api.Group("", jwtmw)
	RegisterWalletRoutes(protected, walletHandler, ledgerHandler)
	RegisterTransactionRoutes(protected, walletHandler, ledgerHandler)

	return nil
}
