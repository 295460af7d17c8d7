package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/digestq/internal/domain"
	"github.com/shaiso/digestq/internal/repo"
	"github.com/shaiso/digestq/internal/telemetry"
)

// Параметры повторов insert-пути.
//
// Между «job свободных нет» и нашей вставкой есть остаточное окно:
// конкурирующий producer мог вставить job первым. Проигравшая вставка
// упирается в уникальный индекс и повторяется как append.
const (
	insertRetries    = 5
	insertRetryDelay = 20 * time.Millisecond
)

// Aggregator собирает сообщения в jobs по включённым каналам получателя.
//
// Enqueue для каждого включённого канала выполняет acquire-or-detect:
// пытается захватить существующий свободный job коротким lease'ом;
// если захват удался — дописывает message id и снимает lease, иначе
// вставляет новый job. Каналы обрабатываются независимо: ошибка одного
// не блокирует и не откатывает остальные.
type Aggregator struct {
	store    JobStore
	settings SettingsProvider
	logger   *slog.Logger
	shortTTL time.Duration
}

// AggregatorConfig — конфигурация Aggregator.
type AggregatorConfig struct {
	// Store — хранилище jobs.
	Store JobStore

	// Settings — поставщик настроек каналов получателей.
	Settings SettingsProvider

	// ShortLeaseTTL — длительность короткой блокировки
	// (default: domain.ShortLeaseTTL).
	ShortLeaseTTL time.Duration

	// Logger (опционально; если nil — slog.Default()).
	Logger *slog.Logger
}

// NewAggregator создаёт новый Aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	shortTTL := cfg.ShortLeaseTTL
	if shortTTL <= 0 {
		shortTTL = domain.ShortLeaseTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		store:    cfg.Store,
		settings: cfg.Settings,
		logger:   logger,
		shortTTL: shortTTL,
	}
}

// Outcome — результат Enqueue по одному каналу.
type Outcome struct {
	// Created — true, если создан новый job; false — сообщение
	// дописано в существующий.
	Created bool `json:"created"`

	// Err — ошибка канала, если обработка не удалась.
	Err error `json:"-"`
}

// Result — результат Enqueue: канал -> исход.
type Result map[string]Outcome

// Failed возвращает каналы, завершившиеся ошибкой.
func (r Result) Failed() []string {
	var failed []string
	for channel, outcome := range r {
		if outcome.Err != nil {
			failed = append(failed, channel)
		}
	}
	return failed
}

// Enqueue добавляет сообщение в очередь дайджестов получателя.
//
// Для каждого включённого канала из настроек получателя сообщение
// попадает ровно в один job тройки (получатель, канал, интервал);
// после успешного Enqueue job свободен (короткий lease снят).
// Получатель без настроек — no-op с пустым Result.
//
// Ошибка возвращается только для невалидного события или недоступных
// настроек; ошибки отдельных каналов лежат в их Outcome.
func (a *Aggregator) Enqueue(ctx context.Context, msg *domain.MessageEvent) (Result, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	settings, err := a.settings.ChannelSettings(ctx, msg.Recipient)
	if err != nil {
		return nil, fmt.Errorf("get channel settings: %w", err)
	}

	if len(settings) == 0 {
		// Получатель не настроил доставку.
		return Result{}, nil
	}

	recipientKey := domain.RecipientKey(msg.Recipient)
	logger := telemetry.WithRecipientKey(a.logger, recipientKey)

	result := make(Result)
	for channel, setting := range settings {
		if !setting.Enabled {
			continue
		}

		outcome := a.enqueueChannel(ctx, msg, recipientKey, channel, setting.Interval)
		if outcome.Err != nil {
			logger.Error("enqueue failed",
				"channel", channel,
				"interval", setting.Interval,
				"message_id", msg.ID,
				"error", outcome.Err,
			)
		} else {
			telemetry.MessagesEnqueued.WithLabelValues(channel).Inc()
			logger.Debug("message enqueued",
				"channel", channel,
				"interval", setting.Interval,
				"message_id", msg.ID,
				"created", outcome.Created,
			)
		}
		result[channel] = outcome
	}

	return result, nil
}

// enqueueChannel выполняет acquire-or-detect для одного канала.
func (a *Aggregator) enqueueChannel(ctx context.Context, msg *domain.MessageEvent, recipientKey, channel, interval string) Outcome {
	key := domain.JobKey{
		RecipientKey: recipientKey,
		Channel:      channel,
		Interval:     interval,
	}

	for attempt := 0; attempt < insertRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(insertRetryDelay):
			case <-ctx.Done():
				return Outcome{Err: ctx.Err()}
			}
		}

		now := time.Now()
		lease := domain.NewLease(uuid.New().String(), a.shortTTL, now)

		matched, err := a.store.AcquireFree(ctx, key, lease, now)
		if err != nil {
			return Outcome{Err: fmt.Errorf("acquire job lease: %w", err)}
		}

		if !matched {
			// Свободного job нет — создаём новый, сразу без lease.
			job := domain.NewJob(msg.Recipient, channel, interval, msg.ID, now)
			err := a.store.Insert(ctx, job)
			if err == nil {
				telemetry.JobsCreated.WithLabelValues(channel).Inc()
				return Outcome{Created: true}
			}
			if errors.Is(err, repo.ErrAlreadyExists) {
				// Вставку выиграл конкурент — повторяем как append.
				continue
			}
			return Outcome{Err: fmt.Errorf("insert job: %w", err)}
		}

		ok, err := a.store.AppendAndRelease(ctx, lease.ID, msg.ID)
		if err != nil {
			return Outcome{Err: fmt.Errorf("append message: %w", err)}
		}
		if !ok {
			// Захваченный job исчез: lease истёк и job перехвачен.
			return Outcome{Err: ErrLeaseLost}
		}

		telemetry.JobsAppended.WithLabelValues(channel).Inc()
		return Outcome{Created: false}
	}

	return Outcome{Err: fmt.Errorf("enqueue %s/%s: job stayed locked after %d attempts", channel, interval, insertRetries)}
}
