package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/digestq/internal/domain"
	"github.com/shaiso/digestq/internal/mq"
	"github.com/shaiso/digestq/internal/queue"
)

// handleMessageCreated обрабатывает событие message.created.
//
// Семантика ack/nack:
//   - невалидный или нечитаемый payload — ack: redelivery не исправит
//     событие
//   - все каналы упали — error (nack с requeue, событие вернётся)
//   - часть каналов упала — ack с warning: повтор продублировал бы
//     message id в успешных каналах
func (w *Worker) handleMessageCreated(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.MessageCreatedPayload](&delivery.Message)
	if err != nil {
		// Кривой payload redelivery не исправит — ack, иначе событие
		// будет возвращаться в очередь бесконечно.
		w.logger.Error("dropping unparseable message.created payload", "error", err)
		return nil
	}

	msg := &domain.MessageEvent{
		Recipient: payload.Recipient,
		ID:        payload.MessageID,
	}

	result, err := w.enqueuer.Enqueue(ctx, msg)
	if err != nil {
		if errors.Is(err, queue.ErrInvalidMessage) {
			w.logger.Warn("dropping invalid message event",
				"message_id", payload.MessageID,
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("enqueue message: %w", err)
	}

	failed := result.Failed()
	if len(failed) > 0 && len(failed) == len(result) {
		return fmt.Errorf("enqueue failed on all %d channels", len(failed))
	}
	if len(failed) > 0 {
		w.logger.Warn("message enqueued partially",
			"message_id", payload.MessageID,
			"failed_channels", failed,
		)
	}

	return nil
}
