package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"matka/internal/cache"
	"matka/internal/config"
	cronrunner "matka/internal/cron"
	"matka/internal/db"
	"matka/internal/handler"
	"matka/internal/logger"
	"matka/internal/middleware"
	"matka/internal/notify"
	gormrepository "matka/internal/repository/gorm"
	"matka/internal/service"
	"matka/internal/settlement"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("MK_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("MK_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("unknown app timezone, using UTC", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
		loc = time.UTC
	}

	dbConn, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		log.Warn("init default system switches failed", zap.Error(err))
	}

	cacheStore, cachePinger, closeCache := initCache(cfg.Cache, log)
	defer closeCache()
	catalog := &cache.Catalog{
		Store:  cacheStore,
		TTL:    cfg.Cache.TTL,
		Prefix: cfg.Cache.KeyPrefix,
		Logger: log,
	}

	sink := initSink(cfg.Notify, log)

	sweeper := &settlement.Sweeper{Repo: store, Logger: log, Sink: sink}
	dispatcher := settlement.NewDispatcher(sweeper, cfg.Settlement.Workers, cfg.Settlement.QueueSize, log, sink)
	dispatcher.JobTimeout = cfg.Settlement.JobTimeout

	marketSvc := &service.MarketService{
		Repo:     store,
		Queue:    dispatcher,
		Cache:    catalog,
		Logger:   log,
		Sink:     sink,
		Location: loc,
	}
	ratingSvc := &service.RatingService{Repo: store, Cache: catalog}
	customerSvc := &service.CustomerService{Repo: store, Flags: settingsSvc, Logger: log}
	bettingSvc := &service.BettingService{Repo: store, Flags: settingsSvc, Logger: log, Location: loc}
	reconciler := &service.SettlementReconciler{
		Repo:   store,
		Queue:  dispatcher,
		Flags:  settingsSvc,
		Logger: log,
		Batch:  cfg.Settlement.ReconcileBatch,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(notify.AuditMiddleware(sink))

	jwt := middleware.JWT{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}
	auth := middleware.Auth{JWT: jwt, Disabled: cfg.Auth.Disabled}
	if auth.Disabled {
		log.Warn("admin auth disabled")
	} else if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is empty; every protected route will reject requests")
	}
	admin := auth.Require(middleware.RoleAdmin)

	(&handler.HealthHandler{DB: dbConn.Gorm, Cache: cachePinger}).Register(engine)
	(&handler.MarketHandler{Service: marketSvc, Admin: admin}).Register(engine)
	(&handler.RatingHandler{Service: ratingSvc, Admin: admin}).Register(engine)
	(&handler.CustomerHandler{
		Customers: customerSvc,
		Betting:   bettingSvc,
		JWT:       jwt,
		Customer:  auth.Require(middleware.RoleCustomer, middleware.RoleAdmin),
	}).Register(engine)
	(&handler.SystemSettingsHandler{Repo: store, Settings: settingsSvc, Admin: admin}).Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("settlement dispatcher stopped", zap.Error(err))
		}
	}()

	cronRunner := cronrunner.New(log, ctx)
	if cfg.Settlement.ReconcileEnabled {
		if _, err := cronRunner.Add("settlement_reconcile", cfg.Settlement.ReconcileSpec, reconciler.RunIfEnabled); err != nil {
			log.Warn("cron register settlement reconcile failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	// Pick up markets declared before a restart whose sweeps never finished.
	go reconciler.RunIfEnabled(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	select {
	case <-dispatcherDone:
	case <-shutdownCtx.Done():
		log.Warn("settlement workers still running at shutdown")
	}
}

func initCache(cfg config.CacheConfig, log *zap.Logger) (cache.Store, handler.Pinger, func()) {
	if !strings.EqualFold(strings.TrimSpace(cfg.Driver), "redis") {
		return cache.NewMemoryStore(), nil, func() {}
	}
	rs := cache.NewRedisStore(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rs.Ping(ctx); err != nil {
		log.Warn("redis ping failed (cache misses until it recovers)", zap.Error(err))
	} else {
		log.Info("redis cache connected", zap.String("addr", cfg.RedisAddr))
	}
	return rs, rs, func() { _ = rs.Close() }
}

func initSink(cfg config.NotifyConfig, log *zap.Logger) notify.Sink {
	sinks := notify.Multi{notify.LogSink{Logger: log}}
	if url := strings.TrimSpace(cfg.WebhookURL); url != "" {
		sinks = append(sinks, &notify.WebhookSink{
			URL:    url,
			APIKey: cfg.APIKey,
			Agent:  cfg.Agent,
			HTTP:   &http.Client{Timeout: cfg.Timeout},
		})
		log.Info("notify webhook enabled")
	}
	return sinks
}
