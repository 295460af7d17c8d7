// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - message.created — новое сообщение получателю, подлежит агрегации
//   - digest.ready    — собранный дайджест готов к отправке
//
// Exchanges:
//   - digestq.messages — входящие события сообщений
//   - digestq.digests  — готовые дайджесты
//   - digestq.dlq      — dead letter queue
package mq
