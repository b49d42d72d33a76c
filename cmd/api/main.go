package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pageza/chef-next-door/backend/config"
	"github.com/pageza/chef-next-door/backend/internal/logging"
	"github.com/pageza/chef-next-door/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.New(logging.Options{}).WithError(err).Fatal("failed to load configuration")
	}

	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.WithFields(map[string]interface{}{
		"environment": config.GetEnvironment(),
		"backend":     cfg.Backend,
		"cache":       cfg.Cache.Store,
	}).Info("starting chef next door backend")

	srv, cleanup, err := server.Build(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build server")
	}
	defer cleanup()

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Error("server error")
			return
		}
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("received signal")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown error")
		return
	}
	log.Info("server stopped")
}
