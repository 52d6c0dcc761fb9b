package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nerdwork/nwt_ledger/internal/config"
	"github.com/nerdwork/nwt_ledger/internal/funding"
	"github.com/nerdwork/nwt_ledger/internal/history"
	"github.com/nerdwork/nwt_ledger/internal/library"
	"github.com/nerdwork/nwt_ledger/internal/middleware"
	"github.com/nerdwork/nwt_ledger/internal/notification"
	"github.com/nerdwork/nwt_ledger/internal/purchase"
	"github.com/nerdwork/nwt_ledger/internal/store"
	"github.com/nerdwork/nwt_ledger/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Store overrides the unit of work derived from DB. Tests use it to
	// share a memory store with the app.
	Store store.UnitOfWork
	// Provider overrides the checkout provider used for top-ups.
	Provider funding.PaymentProvider
}

func (d Deps) unitOfWork() store.UnitOfWork {
	switch {
	case d.Store != nil:
		return d.Store
	case d.DB != nil:
		return store.NewPostgres(d.DB)
	default:
		return store.NewMemory()
	}
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil && d.Store == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cfg.WebhookSecret == "" {
			return fmt.Errorf("webhook secret is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	uow := d.unitOfWork()
	notifier := notification.NewLoggerNotifier(d.Logger)

	walletSvc := wallet.NewService(uow)
	librarySvc := library.NewService(uow, library.NewCache(d.Cache, d.Cfg.AccessCacheTTL), d.Logger)
	purchaseSvc, err := purchase.NewService(uow, d.Cfg.PlatformFeePercentage, notifier, librarySvc, d.Logger)
	if err != nil {
		return fmt.Errorf("purchase service: %w", err)
	}
	provider := d.Provider
	if provider == nil {
		provider = funding.StaticProvider{}
	}
	fundingSvc, err := funding.NewService(uow, provider, notifier, d.Logger)
	if err != nil {
		return fmt.Errorf("funding service: %w", err)
	}
	historySvc := history.NewService(uow)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	fundingHandler := funding.NewHandler(fundingSvc, walletSvc, d.Logger)
	RegisterWebhookRoutes(api, fundingHandler, d.Cfg.WebhookSecret)

	protected := api.Group("", middleware.JWTAuth(d.Cfg.JWTSecret))
	idempotent := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)

	RegisterWalletRoutes(protected, wallet.NewHandler(walletSvc))
	RegisterPurchaseRoutes(protected, purchase.NewHandler(purchaseSvc, walletSvc, d.Logger),
		middleware.RateLimit(d.Cache, "purchase", d.Cfg.PurchaseRateLimit), idempotent)
	RegisterFundingRoutes(protected, fundingHandler, idempotent)
	RegisterHistoryRoutes(protected, history.NewHandler(historySvc, walletSvc))
	RegisterLibraryRoutes(protected, library.NewHandler(librarySvc, walletSvc))

	return nil
}
