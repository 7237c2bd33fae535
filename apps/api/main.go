package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/posbill/posbill-saas/contracts"
	ordershandler "github.com/posbill/posbill-saas/domains/orders/be/handler"
	ordersrepo "github.com/posbill/posbill-saas/domains/orders/be/repo"
	ordersservice "github.com/posbill/posbill-saas/domains/orders/be/service"
	productshandler "github.com/posbill/posbill-saas/domains/products/be/handler"
	productsrepo "github.com/posbill/posbill-saas/domains/products/be/repo"
	productsservice "github.com/posbill/posbill-saas/domains/products/be/service"
	subscriptionshandler "github.com/posbill/posbill-saas/domains/subscriptions/be/handler"
	subscriptionsrepo "github.com/posbill/posbill-saas/domains/subscriptions/be/repo"
	subscriptionsservice "github.com/posbill/posbill-saas/domains/subscriptions/be/service"
	tenantshandler "github.com/posbill/posbill-saas/domains/tenants/be/handler"
	tenantsrepo "github.com/posbill/posbill-saas/domains/tenants/be/repo"
	tenantsservice "github.com/posbill/posbill-saas/domains/tenants/be/service"
	usershandler "github.com/posbill/posbill-saas/domains/users/be/handler"
	usersrepo "github.com/posbill/posbill-saas/domains/users/be/repo"
	usersservice "github.com/posbill/posbill-saas/domains/users/be/service"
	"github.com/posbill/posbill-saas/platform/go/access"
	platformlogging "github.com/posbill/posbill-saas/platform/go/logging"
	"github.com/posbill/posbill-saas/platform/go/metrics"
	"github.com/posbill/posbill-saas/platform/go/persistence"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"` // json | console
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	DBMaxConns      int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBStmtTimeout   time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"5s"`
	AuthProvider    string        `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | jwt | dev
	JWTSecret       string        `env:"JWT_SECRET"`                          // required when AUTH_PROVIDER=jwt
	UpgradeURL      string        `env:"UPGRADE_URL" envDefault:"/settings/subscription"`
	MetricsPrefix   string        `env:"METRICS_PREFIX" envDefault:"posbill"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","` // empty allows any origin
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:       cfg.DatabaseURL,
		MaxConns:         cfg.DBMaxConns,
		ApplicationName:  "posbill-api",
		StatementTimeout: cfg.DBStmtTimeout,
	})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	subscriptionStore, err := persistence.NewSubscriptionStore(ctx, pool)
	if err != nil {
		logger.Fatal("init subscription store", zap.Error(err))
	}
	roleStore, err := persistence.NewRoleStore(ctx, pool)
	if err != nil {
		logger.Fatal("init role store", zap.Error(err))
	}
	usageStore, err := persistence.NewUsageStore(ctx, pool)
	if err != nil {
		logger.Fatal("init usage store", zap.Error(err))
	}
	planStore, err := persistence.NewPlanStore(ctx, pool)
	if err != nil {
		logger.Fatal("init plan store", zap.Error(err))
	}
	userStore, err := persistence.NewUserStore(ctx, pool)
	if err != nil {
		logger.Fatal("init user store", zap.Error(err))
	}
	productStore, err := persistence.NewProductStore(ctx, pool)
	if err != nil {
		logger.Fatal("init product store", zap.Error(err))
	}
	orderStore, err := persistence.NewOrderStore(ctx, pool)
	if err != nil {
		logger.Fatal("init order store", zap.Error(err))
	}
	tenantStore, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		logger.Fatal("init tenant store", zap.Error(err))
	}

	contract, err := contracts.LoadAPI(ctx)
	if err != nil {
		logger.Fatal("load api contract", zap.Error(err))
	}

	m := metrics.New(cfg.MetricsPrefix)

	pipeline := access.New(access.Config{
		Stores: access.Stores{
			Subscriptions: subscriptionStore,
			Roles:         roleStore,
			Usage:         usageStore,
		},
		Logger:     logger,
		UpgradeURL: cfg.UpgradeURL,
		Observer:   m.ObserveRejection,
	})

	userService := usersservice.New(usersrepo.NewPostgresRepository(userStore))
	productService := productsservice.New(productsrepo.NewPostgresRepository(productStore))
	orderService := ordersservice.New(ordersrepo.NewPostgresRepository(orderStore), nil)
	subscriptionService := subscriptionsservice.New(
		subscriptionsrepo.NewPostgresRepository(subscriptionStore, usageStore, planStore),
		nil,
	)
	tenantService := tenantsservice.New(tenantsrepo.NewPostgresRepository(tenantStore))

	router := newRouter(routerDeps{
		logger:         logger,
		metrics:        m,
		pipeline:       pipeline,
		authenticate:   buildAuthMiddleware(ctx, cfg, logger),
		ready:          pool.Ping,
		requestTimeout: cfg.RequestTimeout,
		corsOrigins:    cfg.CORSOrigins,
		contract:       contract,
		handlers: handlers{
			users:         usershandler.New(userService, logger),
			products:      productshandler.New(productService, logger),
			orders:        ordershandler.New(orderService, logger),
			subscriptions: subscriptionshandler.New(subscriptionService, logger, cfg.UpgradeURL),
			tenants:       tenantshandler.New(tenantService, logger),
		},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port), zap.String("auth_provider", cfg.AuthProvider))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
