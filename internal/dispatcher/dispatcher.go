package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/digestq/internal/domain"
	"github.com/shaiso/digestq/internal/mq"
	"github.com/shaiso/digestq/internal/queue"
	"github.com/shaiso/digestq/internal/telemetry"
)

// Параметры по умолчанию.
const (
	defaultMaxJobsPerTick = 100
	defaultLeaseTTL       = 30 * time.Second
)

// JobSource — consumer-сторона очереди дайджестов.
type JobSource interface {
	Pull(ctx context.Context, opts queue.PullOptions) (*domain.JobPayload, error)
	Remove(ctx context.Context, jobID string) (int64, error)
}

// DigestPublisher публикует готовые дайджесты.
type DigestPublisher interface {
	PublishDigestReady(ctx context.Context, payload mq.DigestReadyPayload) error
}

// Target — пара (канал, интервал), которую dispatcher сбрасывает.
type Target struct {
	Channel  string
	Interval string
}

// Dispatcher сбрасывает накопленные jobs в очередь digests.ready.
//
// На каждом тике для каждой due-пары (канал, интервал) dispatcher
// вычерпывает свободные jobs: Pull → publish → Remove. Упавший между
// Pull и Remove тик ничего не теряет — lease истекает, следующий тик
// заберёт job заново (дайджест может быть опубликован повторно,
// at-least-once).
type Dispatcher struct {
	source    JobSource
	publisher DigestPublisher
	targets   []Target
	logger    *slog.Logger

	maxJobsPerTick int
	leaseTTL       time.Duration
	lastTick       time.Time
}

// Config — конфигурация Dispatcher.
type Config struct {
	// Source — очередь jobs.
	Source JobSource

	// Publisher — публикация digest.ready.
	Publisher DigestPublisher

	// Targets — пары (канал, интервал) для сброса.
	Targets []Target

	// MaxJobsPerTick — предел jobs на пару за один тик (default: 100).
	MaxJobsPerTick int

	// LeaseTTL — длительность lease на время публикации (default: 30s).
	LeaseTTL time.Duration

	// Logger (опционально; если nil — slog.Default()).
	Logger *slog.Logger
}

// New создаёт новый Dispatcher.
func New(cfg Config) *Dispatcher {
	maxJobs := cfg.MaxJobsPerTick
	if maxJobs <= 0 {
		maxJobs = defaultMaxJobsPerTick
	}

	leaseTTL := cfg.LeaseTTL
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		source:         cfg.Source,
		publisher:      cfg.Publisher,
		targets:        cfg.Targets,
		logger:         logger,
		maxJobsPerTick: maxJobs,
		leaseTTL:       leaseTTL,
	}
}

// Tick выполняет один тик: вычерпывает due-пары (канал, интервал).
//
// Ошибки одной пары не блокируют обработку остальных.
func (d *Dispatcher) Tick(ctx context.Context) error {
	now := time.Now()
	lastTick := d.lastTick
	if lastTick.IsZero() {
		lastTick = now.Add(-time.Minute)
	}
	d.lastTick = now

	var published int
	for _, target := range d.targets {
		due, err := Due(target.Interval, lastTick, now)
		if err != nil {
			d.logger.Error("failed to evaluate flush cadence",
				"channel", target.Channel,
				"interval", target.Interval,
				"error", err,
			)
			continue
		}
		if !due {
			continue
		}

		n, err := d.drainTarget(ctx, target)
		if err != nil {
			d.logger.Error("failed to drain target",
				"channel", target.Channel,
				"interval", target.Interval,
				"error", err,
			)
			continue
		}
		published += n
	}

	if published > 0 {
		d.logger.Info("dispatcher tick completed", "digests_published", published)
	}
	return nil
}

// drainTarget вычерпывает свободные jobs одной пары (канал, интервал).
func (d *Dispatcher) drainTarget(ctx context.Context, target Target) (int, error) {
	var published int

	for i := 0; i < d.maxJobsPerTick; i++ {
		jobID := uuid.New().String()

		payload, err := d.source.Pull(ctx, queue.PullOptions{
			Channel:  target.Channel,
			Interval: target.Interval,
			JobID:    jobID,
			LeaseTTL: d.leaseTTL,
		})
		if err != nil {
			return published, fmt.Errorf("pull job: %w", err)
		}
		if payload == nil {
			return published, nil
		}

		err = d.publisher.PublishDigestReady(ctx, mq.DigestReadyPayload{
			JobID:      jobID,
			Recipient:  payload.Recipient,
			Channel:    payload.Channel,
			Interval:   payload.Interval,
			MessageIDs: payload.MessageIDs,
		})
		if err != nil {
			// Job остаётся под lease: после истечения его заберёт
			// следующий тик.
			return published, fmt.Errorf("publish digest: %w", err)
		}

		removed, err := d.source.Remove(ctx, jobID)
		if err != nil {
			return published, fmt.Errorf("remove job: %w", err)
		}
		if removed == 0 {
			// Lease истёк между Pull и Remove — job перехвачен,
			// дайджест будет опубликован повторно.
			d.logger.Warn("job lease lost before remove",
				"channel", target.Channel,
				"interval", target.Interval,
				"job_id", jobID,
			)
		}

		telemetry.DigestsPublished.WithLabelValues(target.Channel, target.Interval).Inc()
		published++

		d.logger.Debug("digest published",
			"channel", payload.Channel,
			"interval", payload.Interval,
			"job_id", jobID,
			"messages", len(payload.MessageIDs),
		)
	}

	d.logger.Warn("tick budget exhausted for target",
		"channel", target.Channel,
		"interval", target.Interval,
		"max_jobs", d.maxJobsPerTick,
	)
	return published, nil
}
