package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/bootstrap"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/Domenick1991/airreservation/internal/notify"
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
	if err := cfg.ValidateWorker(); err != nil {
		logrus.Fatalf("invalid worker config: %v", err)
	}
	log := bootstrap.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatalf("init app: %v", err)
	}
	defer app.Close()

	scheduler := app.Scheduler()
	if err := scheduler.Start(); err != nil {
		log.Fatalf("start simulator: %v", err)
	}
	defer scheduler.Stop()

	var wg sync.WaitGroup
	if cfg.Worker.ConsumeNotifications && app.Producer != nil {
		sender := notify.NewSender(app.Producer, cfg.Kafka.NotificationsTopic, log)
		consume := func(topic string, handler kafka.MessageHandler) {
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic, kafka.WithConsumerLogger(log))
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer consumer.Close()
				if err := consumer.Consume(ctx, handler); err != nil {
					log.WithError(err).WithField("topic", topic).Error("consumer stopped")
				}
			}()
		}
		consume(cfg.Kafka.BookingTopic, sender.BookingHandler())
		consume(cfg.Kafka.FlightStatusTopic, sender.FlightStatusHandler())
	} else {
		log.Info("notification consumers disabled")
	}

	log.Info("worker started")
	<-ctx.Done()
	log.Info("shutting down worker")
	wg.Wait()
}
