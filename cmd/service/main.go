package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kobecorporation/kbsaas/internal/config"
	"github.com/kobecorporation/kbsaas/internal/http/server"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// version se fija con -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env es opcional; las variables del entorno tienen prioridad.
	envErr := godotenv.Load()

	configPath := flag.String("config", os.Getenv("KBSAAS_CONFIG"), "Path al YAML de configuración (vacío = defaults + env)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn(".env no se pudo leer", logger.Err(envErr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.Build(ctx, cfg, version)
	if err != nil {
		log.Fatal("wiring failed", logger.Err(err))
	}
	log.Info("starting",
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.Server.Addr),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("cache", cfg.Cache.Kind),
	)

	if err := srv.Run(ctx); err != nil {
		log.Fatal("server stopped with error", logger.Err(err))
	}
	log.Info("bye")
}
