package main

import (
	"flag"
	"log"
	"os"

	"github.com/Dvipg/e-commerce-demand-forecasting/internal/di"
	"github.com/Dvipg/e-commerce-demand-forecasting/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s source=%s store=%s model=%s", cfg.Environment, cfg.Data.Source, cfg.Store.Backend, cfg.Backtest.Model)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
