package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/packfinderz-cartfee/api/controllers"
	"github.com/angelmondragon/packfinderz-cartfee/api/routes"
	"github.com/angelmondragon/packfinderz-cartfee/internal/cart"
	"github.com/angelmondragon/packfinderz-cartfee/internal/fee"
	"github.com/angelmondragon/packfinderz-cartfee/internal/ledger"
	"github.com/angelmondragon/packfinderz-cartfee/internal/preference"
	"github.com/angelmondragon/packfinderz-cartfee/internal/reconcile"
	"github.com/angelmondragon/packfinderz-cartfee/internal/removal"
	"github.com/angelmondragon/packfinderz-cartfee/internal/scheduler"
	"github.com/angelmondragon/packfinderz-cartfee/internal/uisync"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/config"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/db"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/instance"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/metrics"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/migrate"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

type cartBackend interface {
	cart.Store
	cart.FragmentSource
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "cartfee-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cartfee-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	prefs, err := preference.NewRedisStore(redisClient, cfg.Fee.PreferenceTTL)
	if err != nil {
		return err
	}

	store, err := newCartBackend(ctx, cfg, logg)
	if err != nil {
		return err
	}

	reader, err := cart.NewReader(store, cart.Matcher{SKU: cfg.Fee.SKU, VariantID: cfg.Fee.VariantID})
	if err != nil {
		return err
	}
	calc, err := fee.NewCalculator(cfg.Fee.Rate)
	if err != nil {
		return err
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reconcileMetrics := metrics.NewReconcileMetrics(registry)

	engine, err := reconcile.NewEngine(reconcile.EngineParams{
		Reader:        reader,
		Store:         store,
		Preferences:   prefs,
		Calculator:    calc,
		FeeVariantID:  cfg.Fee.VariantID,
		FeeProperties: cfg.Fee.Properties(),
		Ledger:        ledgerSvc,
		Metrics:       reconcileMetrics,
		Logger:        logg,
	})
	if err != nil {
		return err
	}

	bindings := uisync.NewBindings()
	syncer, err := uisync.NewSyncer(store, cfg.Store.SectionID, bindings, logg)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Params{
		Engine:      engine,
		Preferences: prefs,
		UI:          syncer,
		Bindings:    bindings,
		Window:      cfg.Scheduler.DebounceWindow,
		Logger:      logg,
		Metrics:     reconcileMetrics,
	})
	if err != nil {
		return err
	}
	defer sched.Stop()

	flow, err := removal.NewFlow(removal.FlowParams{
		Remover:     engine,
		Preferences: prefs,
		UI:          syncer,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Deps{
		Env:         cfg.App.Env,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Gatherer:    registry,
		CORSOrigins: cfg.App.CORSAllowedOrigins,
		PublicConfig: controllers.PublicConfig{
			Rate:             calc.Rate().String(),
			SKU:              cfg.Fee.SKU,
			VariantID:        cfg.Fee.VariantID,
			PreferenceKey:    redisClient.PreferencePrefix(),
			CheckboxIDs:      uisync.Controls(),
			SectionID:        cfg.Store.SectionID,
			DebounceWindowMS: sched.Window().Milliseconds(),
			Events:           []string{uisync.EventCartUpdated, uisync.EventFeeChanged},
		},
		Triggers:    sched,
		Inspector:   engine,
		Fragments:   syncer,
		Generations: bindings,
		Adjustments: ledgerSvc,
		Removal:     flow,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"store":       cfg.Store.Driver,
		"db_driver":   dbClient.Driver(),
		"fee_rate":    calc.Rate().String(),
		"debounce_ms": sched.Window().Milliseconds(),
		"instance":    instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newCartBackend(ctx context.Context, cfg *config.Config, logg *logger.Logger) (cartBackend, error) {
	if cfg.Store.IsMemory() {
		logg.Warn(ctx, "using in-memory cart store")
		mem := cart.NewMemoryStore()
		if cfg.Fee.VariantID != 0 {
			mem.RegisterVariant(cfg.Fee.VariantID, cfg.Fee.SKU, 1)
		}
		return mem, nil
	}
	return cart.NewClient(cfg.Store.BaseURL,
		cart.WithTimeout(cfg.Store.Timeout),
		cart.WithCookieName(cfg.Store.CartCookie),
	)
}
