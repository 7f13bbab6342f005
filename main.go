package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"table-order/apiclient"
	"table-order/config"
	"table-order/feed"
	"table-order/handlers"
	"table-order/history"
	"table-order/lifecycle"
	"table-order/logging"
	"table-order/metrics"
	"table-order/middleware"
	"table-order/routes"
	"table-order/store"
	"table-order/tablecode"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "table-order:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// gateway responses carry money as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := config.OpenDB(cfg.History.DSN)
	if err != nil {
		return err
	}
	journal := history.New(db)

	dir := tablecode.NewDirectory(cfg.Tables)
	signer := tablecode.NewSigner(cfg.TableToken.Secret, cfg.TableToken.TTL)
	client := apiclient.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, dir, log.Named("backend"))
	collector := metrics.New()
	hub := feed.NewHub(log.Named("feed"))
	defer hub.Close()

	engine := lifecycle.New(client,
		lifecycle.WithJournal(journal),
		lifecycle.WithTables(dir),
		lifecycle.WithMetrics(collector),
		lifecycle.WithLogger(log.Named("lifecycle")),
		lifecycle.WithListener(hub.Broadcast),
	)
	st := store.New(client, engine, store.Options{
		PollLimit:       cfg.Backend.PollLimit,
		CatalogInterval: cfg.Backend.CatalogInterval,
		Metrics:         collector,
		Logger:          log.Named("store"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The gateway still starts when the backend is down; Poll reloads the
	// catalog and the orders until it answers.
	if err := st.RefreshCatalog(ctx); err != nil {
		log.Warn("initial catalog load failed", zap.Error(err))
	}

	gin.SetMode(cfg.Server.GinMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log.Named("http")), middleware.CORS())

	h := handlers.New(handlers.Deps{
		Store:     st,
		Journal:   journal,
		Directory: dir,
		Signer:    signer,
		Hub:       hub,
		Logger:    log.Named("handlers"),
		PublicURL: cfg.Server.PublicURL,
	})
	routes.Setup(r, h, signer, dir, collector.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return st.Poll(gctx, cfg.Backend.PollInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
