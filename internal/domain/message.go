package domain

import "errors"

// MessageEvent — событие о новом сообщении для получателя.
// Содержимое сообщения в очередь не попадает — агрегируются только
// идентификаторы.
type MessageEvent struct {
	// Recipient — идентификатор получателя.
	Recipient string `json:"recipient"`

	// ID — идентификатор сообщения.
	ID string `json:"id"`
}

// Validate проверяет обязательные поля события.
func (m *MessageEvent) Validate() error {
	if m.Recipient == "" {
		return errors.New("recipient is required")
	}
	if m.ID == "" {
		return errors.New("message id is required")
	}
	return nil
}
