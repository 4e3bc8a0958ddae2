package main

import (
	"cmp"
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/STTM-NSU/portfolio-alerts/internal/config"
	"github.com/STTM-NSU/portfolio-alerts/internal/dashboard"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/rules"
	"github.com/STTM-NSU/portfolio-alerts/internal/server"
	"github.com/STTM-NSU/portfolio-alerts/internal/source"
	"github.com/joho/godotenv"
)

const (
	_configFilePath = "./configs/alerts.yaml"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("can't detect .env file")
	}

	cfg, err := config.LoadConfig(cmp.Or(os.Getenv("CONFIG_PATH"), _configFilePath))
	if err != nil {
		log.Fatalf("%s: can't load config", err)
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := rules.Open(ctx, cfg.Rules, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't open rules store", err)
	}
	defer closeStore()

	sources, err := source.NewAll(ctx, cfg.Sources, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't create sources", err)
	}

	service := dashboard.NewService(sources, store, cfg.RefreshInterval, zapLogger)
	defer func() {
		if err := service.Close(); err != nil {
			zapLogger.Warnf("%s: can't close sources", err)
		}
	}()

	handler := server.NewHandler(service, store, zapLogger)
	httpServer := server.NewHTTPServer(ctx, cfg.Server.Port, cfg.Server.ShutdownTimeout, handler.Router())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		service.Run(ctx)
	}()

	zapLogger.Infof("listening on :%s with %d portfolios", cfg.Server.Port, len(sources))
	if err := httpServer.Run(ctx); err != nil {
		zapLogger.Errorf("%s: http server stopped", err)
		cancel()
	}

	wg.Wait()
	zapLogger.Infof("stopped")
}
