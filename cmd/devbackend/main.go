package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clubhire.org/internal/auth"
	"clubhire.org/internal/config"
	"clubhire.org/internal/devbackend"
	"clubhire.org/internal/obs"
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
	obs.InitBuildInfo("devbackend", version)

	secret := cfg.DevSecret
	if secret == "" {
		secret = "dev-only-secret"
		log.Warn("CLUBHIRE_DEV_SECRET not set; using the built-in development secret")
	}
	tokens, err := auth.NewTokens(secret, auth.DefaultTTL)
	if err != nil {
		log.WithError(err).Fatal("token signer")
	}
	backend, err := devbackend.New(tokens)
	if err != nil {
		log.WithError(err).Fatal("build backend")
	}

	srv := &http.Server{
		Addr:              cfg.DevAddr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(map[string]any{"version": version, "addr": srv.Addr}).Info("starting devbackend")
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("stopped")
}
