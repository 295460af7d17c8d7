package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/digestq/internal/domain"
	"github.com/shaiso/digestq/internal/mq"
	"github.com/shaiso/digestq/internal/queue"
)

const defaultPrefetch = 10

// Enqueuer раскладывает сообщение по jobs получателя.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg *domain.MessageEvent) (queue.Result, error)
}

// Worker потребляет события message.created и кладёт их в очередь
// дайджестов.
//
// Worker — stateless компонент: несколько экземпляров могут потреблять
// из одной очереди, взаимное исключение обеспечивают lease'ы в
// хранилище jobs.
type Worker struct {
	enqueuer Enqueuer
	conn     *mq.Connection
	consumer *mq.Consumer
	prefetch int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	// Enqueuer — producer-сторона очереди дайджестов.
	Enqueuer Enqueuer

	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// Prefetch — количество сообщений для предварительной загрузки
	// (default: 10).
	Prefetch int

	// Logger (опционально; если nil — slog.Default()).
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		enqueuer: cfg.Enqueuer,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает потребление messages.created.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting ingest worker", "prefetch", w.prefetch)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueMessagesCreated),
		Handler:  w.handleMessageCreated,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("message consumer error", "error", err)
		}
	}()

	w.logger.Info("ingest worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.logger.Info("stopping ingest worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()
	w.logger.Info("ingest worker stopped")
}
