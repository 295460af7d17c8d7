// Package dispatcher сбрасывает накопленные jobs в digests.ready.
//
// # Обзор
//
// Dispatcher — периодический компонент, который по расписанию
// вычерпывает свободные jobs очереди дайджестов и публикует их
// содержимое в RabbitMQ для отправителей. Отвечает за:
//
//   - Вычисление расписания сброса по меткам интервалов (cadence)
//   - Захват jobs через Pull с lease'ом на время публикации
//   - Публикацию digest.ready и удаление job через Remove
//
// Метка immediate сбрасывается на каждом тике; hourly/daily/weekly —
// по cron-расписаниям. Пары (канал, интервал) обрабатываются
// независимо: ошибка одной не блокирует остальные.
//
// # Цикл сброса
//
//  1. Тик: для каждой due-пары — drainTarget
//  2. Pull со свежим lease id (он же job id для Remove)
//  3. Publish digest.ready с содержимым job
//  4. Remove по lease id; removed == 0 — lease истёк, warning
//
// Экземпляр dispatcher'а должен быть один на пару (канал, интервал) —
// лидер выбирается advisory lock'ом на уровне сервиса. Падение между
// Pull и Remove не теряет данные: lease истекает и job возвращается в
// оборот, ценой возможной повторной публикации (at-least-once).
package dispatcher
