package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicebook/internal/notifications/events"
	"voicebook/internal/notifications/repository"
	"voicebook/internal/notifications/service"
	"voicebook/internal/notifications/transport"
	"voicebook/pkg/config"
	"voicebook/pkg/kafka"
	kafkaconfig "voicebook/pkg/kafka/config"
	"voicebook/pkg/metrics"
	"voicebook/pkg/model"
)

const (
	ServiceName     = "notifier"
	reminderGroupID = "voicebook-notifier"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting notifier service")

	m := metrics.NewDefault()
	jobRepo := repository.NewMongoJobRepository(cfg)
	smsTransport := transport.NewSMSTransport(cfg.SMSProviderURL, cfg.SMSProviderToken, cfg.Log)
	queue := service.NewNotificationQueue(jobRepo, smsTransport, m, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		queue.Run(ctx)
	}()

	consumer := buildReminderConsumer(cfg, jobRepo)
	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				cfg.Log.Error("Reminder consumer stopped", "error", err)
			}
		}()
	}

	metricsServer := startMetricsServer(cfg)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	cfg.Log.Info("Shutdown signal received", "signal", sig)

	cancel()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close reminder consumer", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		cfg.Log.Error("Metrics server shutdown failed", "error", err)
	}

	wg.Wait()
	cfg.Log.Info("Notifier stopped gracefully")
}

func buildReminderConsumer(cfg *config.Config, jobRepo repository.JobRepository) *kafka.Consumer {
	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Warn("Invalid Kafka configuration, reminder intake disabled", "error", err)
		return nil
	}

	intake := events.NewReminderIntake(jobRepo, cfg.NotifyMaxAttempts, cfg.Log)
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		model.TopicReminders,
		reminderGroupID,
		model.TopicRemindersDLQ,
		intake.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Warn("Failed to create reminder consumer, reminder intake disabled", "error", err)
		return nil
	}
	return consumer
}

func startMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		cfg.Log.Info("Metrics server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cfg.Log.Error("Metrics server failed", "error", err)
		}
	}()

	return server
}
