// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, aggregator, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - settings_handler.go — обработчики для /recipients/{id}/settings
//   - message_handler.go  — обработчик для /messages
//   - job_handler.go      — обработчик для /jobs
//
// API предоставляет REST endpoints для настроек каналов доставки,
// постановки сообщений в очередь и наблюдения за jobs.
package api
