package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/admin"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/chat"
	"github.com/Skotchmaster/storefront/internal/customer"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/ledger"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file, using process environment")
	}

	cfg := config.Load()
	cfg.Validate()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		logger.Error("db_init_failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if err := gdb.WithContext(initCtx).AutoMigrate(models.All()...); err != nil {
		cancel()
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			cancel()
			logger.Error("kafka_init_failed", "error", err)
			os.Exit(1)
		}
		publisher = prod
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	var index search.Index
	if cfg.ESURL != "" {
		index = initSearch(initCtx, logger, cfg)
	}

	catalogSvc := &catalog.CatalogService{
		Repo:   &catalog.GormRepo{DB: gdb},
		Index:  index,
		Events: publisher,
	}
	if index != nil {
		n, err := catalogSvc.Reindex(initCtx)
		if err != nil {
			logger.Warn("search_reindex_failed", "indexed", n, "error", err)
		} else {
			logger.Info("search_reindexed", "products", n)
		}
	}
	cancel()

	ledgerSvc := &ledger.Service{
		Repo:     &ledger.GormRepo{DB: gdb},
		Events:   publisher,
		Currency: cfg.PaymentCurrency,
	}

	var gateway payment.Gateway = payment.Disabled{}
	if cfg.PaymentURL != "" {
		gateway = payment.NewClient(cfg.PaymentURL, cfg.PaymentKeyID, cfg.PaymentKeySecret, 0)
	} else {
		logger.Warn("payments_disabled", "reason", "PAYMENT_URL not set")
	}

	chatSvc := &chat.Service{
		Store:    chat.NewSessionStore(cfg.ChatHistory, cfg.ChatMaxSessions),
		Products: catalogSvc,
		Timeout:  cfg.ChatTimeout,
	}
	if cfg.ChatURL != "" {
		chatSvc.Completer = chat.NewClient(cfg.ChatURL, cfg.ChatAPIKey, cfg.ChatModel, cfg.ChatTimeout)
	} else {
		logger.Info("chat_fallback_only", "reason", "CHAT_URL not set")
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS(), middleware.Secure())
	e.Use(csrf.Middleware(csrf.Config{
		Secure:            cfg.CookieSecure,
		EnforceSameOrigin: true,
		SkipPaths:         []string{"/health/live", "/health/ready", "/api/chat"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalogSvc},
		CartHandler: &httpserver.CartHTTP{
			Ledger:   ledgerSvc,
			Payments: gateway,
			Currency: cfg.PaymentCurrency,
		},
		OrdersHandler: &httpserver.OrdersHTTP{Ledger: ledgerSvc},
		AdminHandler: &httpserver.AdminHTTP{
			Svc:    &admin.AdminService{Repo: &admin.GormRepo{DB: gdb}, LowStockThreshold: int64(cfg.LowStockThreshold)},
			Ledger: ledgerSvc,
		},
		ChatHandler:     &httpserver.ChatHTTP{Svc: chatSvc},
		CustomerHandler: &httpserver.CustomerHTTP{Svc: &customer.Service{Repo: &customer.GormRepo{DB: gdb}}},
		JWTSecret:       cfg.JWTAccessSecret,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}

// initSearch connects to elasticsearch. Any failure leaves search on SQL.
func initSearch(ctx context.Context, logger *slog.Logger, cfg config.Config) search.Index {
	client, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		return nil
	}
	es := search.NewES(client, cfg.ESIndex)
	if err := es.EnsureIndex(ctx); err != nil {
		logger.Warn("search_disabled", "reason", "cannot create index", "error", err)
		return nil
	}
	logger.Info("search_enabled", "index", cfg.ESIndex)
	return es
}
