package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/digestq/internal/domain"
	"github.com/shaiso/digestq/internal/telemetry"
)

// Queue — consumer-сторона очереди: захват и удаление jobs.
//
// Pull и Remove не ждут: нет подходящего job — сразу пустой результат.
// Освободить захваченный job досрочно нельзя — consumer, который не
// смог обработать job, просто даёт lease истечь, после чего job
// доступен для повторного захвата (at-least-once).
type Queue struct {
	store  JobStore
	logger *slog.Logger
}

// NewQueue создаёт новый Queue.
func NewQueue(store JobStore, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{store: store, logger: logger}
}

// PullOptions — параметры Pull.
type PullOptions struct {
	// Channel и Interval — критерии выбора job.
	Channel  string
	Interval string

	// JobID — токен владения: становится lease id на время обработки
	// и передаётся в Remove после завершения.
	JobID string

	// LeaseTTL — длительность lease обработки
	// (default: domain.DefaultLeaseTTL).
	LeaseTTL time.Duration
}

// Pull захватывает один свободный job по критериям и возвращает его
// содержимое. Возвращает (nil, nil), если подходящих jobs нет — это
// обычный пустой результат, не ошибка.
//
// Пока lease жив, job не достанется другим вызовам Pull. После
// истечения lease повторный Pull по тем же критериям вернёт тот же
// job — так восстанавливаются jobs упавших consumer'ов, ценой
// at-least-once вместо exactly-once.
//
// Если свободных jobs с одинаковыми (channel, interval) несколько,
// выбор между получателями недетерминирован: порядок за хранилищем.
func (q *Queue) Pull(ctx context.Context, opts PullOptions) (*domain.JobPayload, error) {
	if opts.Channel == "" || opts.Interval == "" || opts.JobID == "" {
		return nil, fmt.Errorf("%w: channel, interval and job id are required", ErrInvalidCriteria)
	}

	ttl := opts.LeaseTTL
	if ttl <= 0 {
		ttl = domain.DefaultLeaseTTL
	}

	now := time.Now()
	lease := domain.NewLease(opts.JobID, ttl, now)
	criteria := domain.Criteria{Channel: opts.Channel, Interval: opts.Interval}

	payload, err := q.store.PullFree(ctx, criteria, lease, now)
	if err != nil {
		return nil, fmt.Errorf("pull job: %w", err)
	}

	if payload == nil {
		telemetry.PullsEmpty.WithLabelValues(opts.Channel, opts.Interval).Inc()
		return nil, nil
	}

	telemetry.JobsPulled.WithLabelValues(opts.Channel, opts.Interval).Inc()
	q.logger.Debug("job pulled",
		"channel", payload.Channel,
		"interval", payload.Interval,
		"job_id", opts.JobID,
		"messages", len(payload.MessageIDs),
	)

	return payload, nil
}

// Remove удаляет job, захваченный lease'ом jobID. Возвращает
// количество удалённых (0 или 1).
//
// Удаление идёт по lease id, а не по идентичности job: если lease уже
// истёк и job перехвачен другим consumer'ом с другим jobID, Remove
// опоздавшего вернёт 0 и ничего не тронет — медленный consumer не
// может уничтожить чужую работу.
func (q *Queue) Remove(ctx context.Context, jobID string) (int64, error) {
	if jobID == "" {
		return 0, fmt.Errorf("%w: job id is required", ErrInvalidCriteria)
	}

	removed, err := q.store.RemoveByLease(ctx, jobID)
	if err != nil {
		return 0, fmt.Errorf("remove job: %w", err)
	}

	if removed > 0 {
		telemetry.JobsRemoved.Add(float64(removed))
		q.logger.Debug("job removed", "job_id", jobID)
	}

	return removed, nil
}
