package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"morphing-planner/internal/config"
	"morphing-planner/internal/server"

	"github.com/labstack/gommon/log"
)

func main() {
	configPath := flag.String("config", "", "YAML or TOML configuration file")
	addr := flag.String("addr", "", "override server.addr")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	srv, err := server.New(cfg, cfg.NewLogger("plannerd"))
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal(err)
	}
}
