// Package ingest — приём событий message.created в очередь дайджестов.
//
// # Обзор
//
// Ingest — stateless компонент, который потребляет события о новых
// сообщениях из RabbitMQ и через Aggregator раскладывает их по jobs
// получателей. Отвечает за:
//
//   - Получение событий из очереди messages.created
//   - Enqueue сообщения по всем включённым каналам получателя
//   - Ack/nack в зависимости от исхода по каналам
//
// Экземпляры масштабируются горизонтально — несколько ingest'ов
// потребляют из одной очереди, конкуренция за jobs разрешается
// lease'ами в хранилище.
//
// # Обработка события
//
//  1. Парсинг payload (recipient, message_id)
//  2. Enqueue: по job'у на каждый включённый канал
//  3. Невалидное или нечитаемое событие — ack (redelivery бесполезен)
//  4. Все каналы упали — nack с requeue, событие вернётся
//  5. Частичный успех — ack с warning: повтор дал бы дубликаты
package ingest
