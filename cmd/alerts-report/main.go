package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/STTM-NSU/portfolio-alerts/internal/config"
	"github.com/STTM-NSU/portfolio-alerts/internal/dashboard"
	"github.com/STTM-NSU/portfolio-alerts/internal/logger"
	"github.com/STTM-NSU/portfolio-alerts/internal/rules"
	"github.com/STTM-NSU/portfolio-alerts/internal/source"
	"github.com/STTM-NSU/portfolio-alerts/internal/tools"
	"github.com/joho/godotenv"
)

const (
	_configFilePath = "./configs/alerts.yaml"
)

func main() {
	portfolio := flag.String("portfolio", "", "only report this portfolio")
	rule := flag.String("rule", "", "only report alerts of this rule")
	flag.Parse()

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
	service := dashboard.NewService(sources, store, 0, zapLogger)
	defer func() {
		if err := service.Close(); err != nil {
			zapLogger.Warnf("%s: can't close sources", err)
		}
	}()

	summaries, err := service.Portfolios(ctx)
	if err != nil {
		zapLogger.Fatalf("%s: can't load portfolios", err)
	}

	for _, s := range summaries {
		if *portfolio != "" && s.Name != *portfolio {
			continue
		}
		fmt.Printf("== %s: %d holdings, invested %s\n", s.Name, s.Holdings, tools.Rupees(s.TotalInvested))
		if !s.Valid {
			fmt.Println("   no data")
			continue
		}

		h, err := service.Highlights(ctx, s.Name)
		if err != nil {
			zapLogger.Fatalf("%s: can't compute highlights", err)
		}
		printSection("Top capital", h.TopCapital)
		printSection("Top profit", h.TopProfit)
		printSection("Top loss", h.TopLoss)
	}

	alerts, err := service.Alerts(ctx, dashboard.AlertFilter{Portfolio: *portfolio, Rule: *rule})
	if err != nil {
		zapLogger.Fatalf("%s: can't evaluate alerts", err)
	}

	fmt.Printf("\n== Alerts (%d)\n", len(alerts))
	for _, a := range alerts {
		fmt.Printf("   %-12s %-12s %-20s %s\n", a.Portfolio, a.Instrument, a.Rule, a.Message)
	}
}

func printSection(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Printf("   %s:\n", title)
	for _, l := range lines {
		fmt.Printf("     %s\n", l)
	}
}
