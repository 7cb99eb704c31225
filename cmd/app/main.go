package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/bootstrap"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := bootstrap.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatalf("init app: %v", err)
	}
	defer app.Close()

	if cfg.Simulator.Enabled {
		scheduler := app.Scheduler()
		if err := scheduler.Start(); err != nil {
			log.Fatalf("start simulator: %v", err)
		}
		defer scheduler.Stop()
	}

	servers := bootstrap.NewServers(cfg.HTTP.Address, cfg.GRPC.Address, app.Router(), log)
	if err := servers.Run(ctx); err != nil {
		log.WithError(err).Error("server error")
	}
}
