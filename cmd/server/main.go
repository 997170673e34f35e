package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"snap_gpx/pkg/api"
	"snap_gpx/pkg/config"
	"snap_gpx/pkg/snap"
)

func main() {
	configPath := flag.String("config", "", "YAML file with default settings")
	port := flag.Int("port", 0, "HTTP port (overrides the config file)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		log.Printf("Loading config from %s...", *configPath)
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *corsOrigin != "" {
		cfg.Server.CORSOrigin = *corsOrigin
	}

	mode, err := snap.ParseMode(cfg.Snap.Mode)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	log.Printf("Snapping defaults: mode %s, max distance %g m, index threshold %d",
		mode, cfg.Snap.MaxDistance, cfg.Snap.IndexThreshold)

	// Setup HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srvCfg := api.DefaultConfig(addr)
	srvCfg.CORSOrigin = cfg.Server.CORSOrigin
	srvCfg.RequestTimeout = time.Duration(cfg.Server.TimeoutMS) * time.Millisecond
	if cfg.Server.MaxConcurrent > 0 {
		srvCfg.MaxConcurrent = cfg.Server.MaxConcurrent
	}

	handlers := api.NewHandlers(api.Options{
		MaxDistance:    cfg.Snap.MaxDistance,
		Mode:           mode,
		IndexThreshold: cfg.Snap.IndexThreshold,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})
	srv := api.NewServer(srvCfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
