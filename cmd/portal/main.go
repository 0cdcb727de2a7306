package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"clubhire.org/internal/client"
	"clubhire.org/internal/config"
	"clubhire.org/internal/httpapi"
	"clubhire.org/internal/obs"
	"clubhire.org/internal/portal"
	"clubhire.org/internal/session"
)

var version = "0.1.0"

func main() {
	log := obs.Logger()
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	obs.SetLevel(cfg.LogLevel)
	obs.Init()
	obs.InitBuildInfo("portal", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Token storage: redis when configured, else postgres, else memory.
	var stores portal.StoreFactory = portal.NewMemoryStores()
	probes := map[string]httpapi.Probe{}
	var (
		rdb *redis.Client
		db  *sql.DB
	)
	switch {
	case cfg.RedisAddr != "":
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		stores = portal.RedisStores(rdb, 7*24*time.Hour)
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	case cfg.PGDSN != "":
		db, err = session.OpenPG(cfg.PGDSN)
		if err != nil {
			log.WithError(err).Fatal("open db")
		}
		if err := session.EnsurePGSchema(ctx, db); err != nil {
			log.WithError(err).Fatal("ensure schema")
		}
		stores = portal.PGStores(db)
		probes["postgres"] = db.PingContext
	default:
		log.Warn("no CLUBHIRE_REDIS_ADDR or CLUBHIRE_PG_DSN; browser sessions are kept in memory")
	}

	p, err := portal.New(portal.Config{
		Version:    version,
		Backend:    client.Config{BaseURL: cfg.BackendURL, Timeout: cfg.HTTPTimeout},
		Stores:     stores,
		RateBurst:  cfg.RateBurst,
		RatePerSec: cfg.RatePerSec,
		Probes:     probes,
	})
	if err != nil {
		log.WithError(err).Fatal("build portal")
	}
	go p.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.PortalAddr,
		Handler:           p.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.HTTPTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.WithFields(map[string]any{"version": version, "addr": srv.Addr, "backend": cfg.BackendURL}).Info("starting portal")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if rdb != nil {
		_ = rdb.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Info("stopped")
}
