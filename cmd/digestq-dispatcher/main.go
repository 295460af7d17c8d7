// digestq Dispatcher — сброс накопленных jobs в digests.ready.
//
// Dispatcher по тикам вычерпывает свободные jobs due-пар
// (канал, интервал) и публикует их содержимое для отправителей.
// Лидерство между экземплярами разыгрывается advisory lock'ом в
// Postgres: тикает только лидер.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/digestq/internal/dispatcher"
	"github.com/shaiso/digestq/internal/mq"
	"github.com/shaiso/digestq/internal/queue"
	"github.com/shaiso/digestq/internal/repo"
	"github.com/shaiso/digestq/internal/telemetry"
)

const dispatchLockKey int64 = 737373

// defaultChannels — каналы по умолчанию; переопределяются через
// DISPATCH_CHANNELS (список через запятую).
var defaultChannels = []string{"email", "sms", "push"}

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting digestq-dispatcher")

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

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}

	jobRepo := repo.NewJobRepo(pool)
	q := queue.NewQueue(jobRepo, logger)
	publisher := mq.NewPublisher(mqConn, logger)

	channels := defaultChannels
	if v := os.Getenv("DISPATCH_CHANNELS"); v != "" {
		channels = strings.Split(v, ",")
	}

	// Пары (канал, интервал): каждый канал сбрасывается по всем
	// известным интервалам.
	var targets []dispatcher.Target
	for _, channel := range channels {
		for _, interval := range dispatcher.KnownIntervals() {
			targets = append(targets, dispatcher.Target{
				Channel:  strings.TrimSpace(channel),
				Interval: interval,
			})
		}
	}

	d := dispatcher.New(dispatcher.Config{
		Source:    q,
		Publisher: publisher,
		Targets:   targets,
		Logger:    logger,
	})

	// dispatcher loop
	go func() {
		tk := time.NewTicker(1 * time.Second)
		defer tk.Stop()

		var hasLock bool
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", dispatchLockKey)
			}
		}()

		for {
			select {
			case <-tk.C:
				// пытаемся стать лидером (или подтвердить лидерство)
				if !hasLock {
					var ok bool
					if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", dispatchLockKey).Scan(&ok); err != nil {
						logger.Error("leader lock error", "error", err)
						continue
					}
					hasLock = ok
				}

				if !hasLock {
					// не лидер — пропускаем тик
					continue
				}

				if err := d.Tick(ctx); err != nil {
					logger.Error("dispatcher tick error", "error", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("DISPATCH_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("digestq-dispatcher stopped")
}
