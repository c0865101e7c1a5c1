package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valeevte/PriceOptimizer/internal/config"
	"github.com/valeevte/PriceOptimizer/internal/database"
	"github.com/valeevte/PriceOptimizer/internal/logger"
	"github.com/valeevte/PriceOptimizer/internal/pricing"
	"github.com/valeevte/PriceOptimizer/internal/products"
	"github.com/valeevte/PriceOptimizer/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml (defaults to $CONFIG_PATH or ./config.yml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(logger.Config{}).WithError(err).Fatal("failed to load config")
	}
	log := logger.New(cfg.Log)
	mainLog := log.WithComponent("main")

	// graceful shutdown coordination
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log.WithComponent("database"))
	if err != nil {
		mainLog.WithError(err).Fatal("failed to open store")
	}
	defer closeStore()

	svc := pricing.NewService(store, pricing.Options{
		Rand:           pricing.NewRand(cfg.Pricing.Seed),
		Clock:          time.Now,
		Log:            log.WithComponent("pricing"),
		Workers:        cfg.Pricing.Workers,
		SeedDays:       cfg.Pricing.SeedDays,
		BackfillOnRead: cfg.Pricing.BackfillOnRead,
	})

	if cfg.Pricing.InitialCatalog {
		n, err := svc.InitializeCatalog(ctx, pricing.DefaultCatalog())
		if err != nil {
			mainLog.WithError(err).Fatal("failed to initialize catalog")
		}
		if n > 0 {
			mainLog.WithField("products", n).Info("demo catalog loaded")
		}
	}

	wg := &sync.WaitGroup{}
	if cfg.Scheduler.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// scheduler runs until ctx is cancelled
			err := scheduler.Run(ctx, svc, cfg.Scheduler.Job(), log.WithComponent("scheduler"))
			if err != nil {
				mainLog.WithError(err).Error("scheduler exited")
			}
		}()
	}

	gin.SetMode(cfg.Server.GinMode)
	h := products.NewHandler(svc, log.WithComponent("http"))
	var extra []gin.HandlerFunc
	if cfg.Server.RateLimitRPS > 0 {
		extra = append(extra, products.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	}
	r := products.NewRouter(h, log.WithComponent("http"), extra...)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		mainLog.WithField("port", cfg.Server.Port).Info("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mainLog.WithError(err).Fatal("server ListenAndServe")
		}
	}()

	<-ctx.Done()
	mainLog.Info("shutdown signal received")

	// stop accepting new requests and let in-flight ones finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.WithError(err).Warn("server Shutdown")
	}

	wg.Wait()
	mainLog.Info("graceful shutdown complete")
}

// openStore returns the configured pricing.Store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Entry) (pricing.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Info("using in-memory store")
		return products.NewMemoryStore(time.Now), func() {}, nil
	}

	if err := database.EnsureDatabase(ctx, cfg.Database.DBConfig, log); err != nil {
		return nil, nil, err
	}
	pool, err := database.Connect(ctx, cfg.Database.DBConfig, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	// close DB pool (blocks until connections returned)
	return products.NewRepository(pool), pool.Close, nil
}
