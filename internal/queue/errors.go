package queue

import "errors"

// Ошибки очереди дайджестов.
var (
	// ErrInvalidMessage — событие без получателя или идентификатора.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidCriteria — Pull или Remove без обязательных параметров.
	ErrInvalidCriteria = errors.New("invalid criteria")

	// ErrLeaseLost — короткий lease истёк между захватом и append:
	// job перехвачен другим участником.
	ErrLeaseLost = errors.New("lease lost before append")
)
