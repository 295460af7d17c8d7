// digestq Ingest — приём событий message.created в очередь дайджестов.
//
// Ingest:
//   - Получает события о новых сообщениях из RabbitMQ
//   - Раскладывает их по jobs включённых каналов получателя
//   - Возвращает невзятые события в очередь для повторной обработки
//
// Экземпляры масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/digestq/internal/ingest"
	"github.com/shaiso/digestq/internal/mq"
	"github.com/shaiso/digestq/internal/queue"
	"github.com/shaiso/digestq/internal/repo"
	"github.com/shaiso/digestq/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting digestq-ingest")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	jobRepo := repo.NewJobRepo(pool)
	settingsRepo := repo.NewSettingsRepo(pool)

	aggregator := queue.NewAggregator(queue.AggregatorConfig{
		Store:    jobRepo,
		Settings: settingsRepo,
		Logger:   logger,
	})

	// RabbitMQ
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	// Создаём топологию
	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}

	// Создаём ingest worker
	w := ingest.New(ingest.Config{
		Enqueuer: aggregator,
		Conn:     mqConn,
		Logger:   logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start ingest worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("INGEST_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("digestq-ingest stopped")
}
