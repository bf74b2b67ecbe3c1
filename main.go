package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/staybook/app/handlers"
	"github.com/amirphl/staybook/app/middleware"
	"github.com/amirphl/staybook/app/router"
	"github.com/amirphl/staybook/app/services"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/amirphl/staybook/config"
	"github.com/amirphl/staybook/pricing"
	"github.com/amirphl/staybook/repository"
	"github.com/amirphl/staybook/utils"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application holds the wired components of a running server
type Application struct {
	db        *gorm.DB
	cache     *redis.Client
	router    router.Router
	logger    *zap.Logger
	stopFuncs []func()
}

func main() {
	root := &cobra.Command{
		Use:           "staybook",
		Short:         "Booking price calculation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		quoteCmd(),
		adminTokenCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadProductionConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logger, closer, err := utils.NewLogger(cfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer closeLogger(logger, closer)

			logger.Info("Starting staybook",
				zap.String("environment", cfg.Deployment.Environment),
				zap.String("version", cfg.Deployment.Version),
				zap.String("commit", cfg.Deployment.CommitHash),
			)

			app, err := initializeApplication(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.run(cfg)
		},
	}
}

// run serves until SIGINT or SIGTERM and then shuts down gracefully
func (a *Application) run(cfg *config.ProductionConfig) error {
	a.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		serverErr <- a.router.Start(address)
	}()

	select {
	case err := <-serverErr:
		a.stop()
		return fmt.Errorf("server stopped unexpectedly: %w", err)
	case sig := <-sigChan:
		a.logger.Info("Shutting down gracefully", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}
	a.stop()

	a.logger.Info("Server stopped")
	return nil
}

// stop halts background workers and releases connections
func (a *Application) stop() {
	for _, fn := range a.stopFuncs {
		fn()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func initializeDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		NowFunc: utils.UTCNow,
		Logger: gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  gormLogLevel(cfg.SlowQueryLog),
			IgnoreRecordNotFoundError: true,
		}),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)

	return db, nil
}

func gormLogLevel(slowQueryLog bool) gormlogger.LogLevel {
	if slowQueryLog {
		return gormlogger.Warn
	}
	return gormlogger.Error
}

func initializeCache(cfg config.CacheConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connection established", zap.Int("db", cfg.RedisDB))
	return rc, nil
}

func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger *zap.Logger) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logger.Warn("Redis healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

// repositories groups the data access layer shared by the engine and the flows
type repositories struct {
	properties repository.PropertyRepository
	seasons    repository.SeasonalPriceRepository
	fees       repository.PropertyFeeRepository
	rules      repository.PricingRuleRepository
	payments   repository.BookingPaymentRepository
}

func newRepositories(db *gorm.DB) repositories {
	return repositories{
		properties: repository.NewPropertyRepository(db),
		seasons:    repository.NewSeasonalPriceRepository(db),
		fees:       repository.NewPropertyFeeRepository(db),
		rules:      repository.NewPricingRuleRepository(db),
		payments:   repository.NewBookingPaymentRepository(db),
	}
}

func newEngine(source pricing.DataSource, cfg config.PricingConfig, logger *zap.Logger) *pricing.Engine {
	return pricing.NewEngine(source, pricing.Config{
		FetchTimeout:               cfg.FetchTimeout,
		DefaultCommissionRate:      cfg.DefaultCommissionRate,
		DefaultExtraGuestThreshold: cfg.DefaultExtraGuestThreshold,
		Location:                   cfg.Location(),
	}, pricing.WithLogger(logger.Named("pricing")))
}

func initializeApplication(cfg *config.ProductionConfig, logger *zap.Logger) (*Application, error) {
	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	app := &Application{db: db, logger: logger}

	cacheClient, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		// Pricing still works against the database alone
		logger.Warn("Cache disabled", zap.Error(err))
	}
	app.cache = cacheClient

	repos := newRepositories(db)

	var (
		source      pricing.DataSource = pricing.NewRepositorySource(repos.properties, repos.seasons, repos.fees, repos.rules)
		invalidator businessflow.PricingCacheInvalidator
	)
	if cacheClient != nil {
		ttl := cfg.Pricing.CacheTTL
		if ttl <= 0 {
			ttl = cfg.Cache.DefaultTTL
		}
		cached := pricing.NewCachedSource(source, cacheClient, cfg.Cache.RedisPrefix, ttl, logger.Named("pricing_cache"))
		source = cached
		invalidator = cached
		app.stopFuncs = append(app.stopFuncs, startCacheHealthMonitor(context.Background(), cacheClient, 30*time.Second, logger))
	}

	engine := newEngine(source, cfg.Pricing, logger)

	var provider services.PaymentProvider
	if cfg.Stripe.Enabled {
		stripeProvider, err := services.NewStripeProvider(services.StripeProviderConfig{
			APIKey:        cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			AccountID:     cfg.Stripe.AccountID,
			Logger:        logger.Named("stripe"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize stripe: %w", err)
		}
		provider = stripeProvider
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	pricingFlow := businessflow.NewPricingFlow(engine, services.NewExcelQuoteExporter(), cfg.Pricing.Currency, logger)
	pricingAdminFlow := businessflow.NewPricingAdminFlow(repos.properties, repos.seasons, repos.fees, repos.rules, invalidator, db, logger)
	checkoutFlow := businessflow.NewCheckoutFlow(engine, provider, repos.properties, repos.payments, db, cfg.Pricing.Currency, logger)

	app.router = router.NewFiberRouter(
		cfg,
		handlers.NewPricingHandler(pricingFlow, logger),
		handlers.NewPricingAdminHandler(pricingAdminFlow, logger),
		handlers.NewCheckoutHandler(checkoutFlow, logger),
		middleware.NewAuthMiddleware(tokenService),
		logger,
	)

	return app, nil
}

func closeLogger(logger *zap.Logger, closer io.Closer) {
	_ = logger.Sync()
	_ = closer.Close()
}
