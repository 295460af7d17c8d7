package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shaiso/digestq/internal/domain"
	"github.com/shaiso/digestq/internal/queue"
)

// EnqueueMessage кладёт сообщение в очередь дайджестов получателя.
// POST /api/v1/messages
//
// Ответ содержит поканальные исходы: created=true для нового job,
// false — сообщение дописано в существующий. Получатель без настроек
// получает 200 с пустым channels.
func (h *Handler) EnqueueMessage(w http.ResponseWriter, r *http.Request) {
	var req EnqueueMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	msg := &domain.MessageEvent{
		Recipient: req.Recipient,
		ID:        req.MessageID,
	}

	result, err := h.aggregator.Enqueue(r.Context(), msg)
	if err != nil {
		if errors.Is(err, queue.ErrInvalidMessage) {
			BadRequest(w, err.Error())
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, EnqueueFromResult(req.MessageID, result))
}
