package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"snowroll/internal/di"
	"snowroll/pkg/config"
	"snowroll/pkg/util"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "roll", "run mode: roll | fill | serve")
	dateArg := flag.String("date", "", "date to fill (YYYY-MM-DD), fill mode only")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backend=%s root=%s", cfg.Environment, cfg.Storage.Backend, cfg.Storage.Root)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	switch *mode {
	case "roll":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := app.RunOnce(ctx); err != nil {
			log.Printf("roll error: %v", err)
			os.Exit(1)
		}
	case "fill":
		date, err := util.ParseDay(*dateArg)
		if err != nil {
			log.Fatalf("fill mode needs -date YYYY-MM-DD: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := app.RunFill(ctx, date); err != nil {
			log.Printf("fill error: %v", err)
			os.Exit(1)
		}
	case "serve":
		// Run application (blocks until signal)
		if err := app.Run(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}
