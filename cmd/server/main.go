package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/config"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/logger"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/repository"
	"github.com/DEEPAK-KUMAR-VERMA-GITHUB/Uniconnect-backend/internal/server"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.IsDev())
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongo, err := repository.Connect(ctx, cfg)
	if err != nil {
		log.Fatalw("mongo connect failed", "err", err)
	}
	if err := mongo.EnsureIndexes(ctx); err != nil {
		log.Fatalw("index creation failed", "err", err)
	}

	srv, closeFn := server.New(ctx, cfg, mongo, log)

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := srv.Listen(":" + cfg.App.Port); err != nil {
			log.Errorw("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := closeFn(shutdownCtx); err != nil {
		log.Errorw("shutdown error", "err", err)
	}
	if err := mongo.Disconnect(shutdownCtx); err != nil {
		log.Errorw("mongo disconnect error", "err", err)
	}
	log.Info("bye")
}
