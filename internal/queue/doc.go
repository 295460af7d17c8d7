// Package queue реализует очередь агрегации digest jobs.
//
// # Обзор
//
// Очередь собирает идентификаторы сообщений в jobs — по одному job на
// тройку (получатель, канал, интервал) — и выдаёт их consumer'ам
// целиком. Пакет отвечает за:
//
//   - Enqueue: раскладку сообщения по включённым каналам получателя
//   - Pull: захват свободного job коротко живущим lease'ом
//   - Remove: удаление обработанного job по lease id
//
// Вся взаимная блокировка строится на одном примитиве хранилища:
// атомарный conditional-update («обнови по фильтру, сообщи сколько
// изменено»). В процессах нет ни мьютексов на jobs, ни фоновых
// чистильщиков — координация целиком в документах.
//
// # Ключевые компоненты
//
// ## Aggregator
//
// Producer-сторона. Enqueue для каждого включённого канала выполняет
// acquire-or-detect:
//
//  1. Захват существующего свободного job коротким lease'ом (5s)
//  2. Захват удался → append message id + снятие lease
//  3. Захвата нет → insert нового job без lease
//  4. Insert упёрся в уникальный индекс → повтор как append
//
//	agg := queue.NewAggregator(queue.AggregatorConfig{
//	    Store:    jobRepo,
//	    Settings: settingsRepo,
//	    Logger:   logger,
//	})
//	result, err := agg.Enqueue(ctx, &domain.MessageEvent{
//	    Recipient: "user-42",
//	    ID:        "msg-1001",
//	})
//
// Каналы независимы: ошибка одного не откатывает остальные, исходы
// лежат в Result поканально.
//
// ## Queue
//
// Consumer-сторона. Pull захватывает один свободный job по
// (канал, интервал) lease'ом на время обработки (default 30s) и
// возвращает его содержимое; Remove удаляет job по тому же lease id.
//
//	q := queue.NewQueue(jobRepo, logger)
//	payload, err := q.Pull(ctx, queue.PullOptions{
//	    Channel:  "email",
//	    Interval: "daily",
//	    JobID:    uuid.New().String(),
//	})
//
// Consumer, упавший между Pull и Remove, ничего не ломает: lease
// истекает, job возвращается в оборот. Семантика доставки —
// at-least-once.
//
// # Гарантии
//
//   - На тройку (получатель, канал, интервал) — не более одного job
//   - Message ids внутри job — в порядке поступления, без потерь
//   - Job, выданный Pull, не достанется другим, пока lease жив
//   - Remove с устаревшим lease id — no-op (возвращает 0)
package queue
