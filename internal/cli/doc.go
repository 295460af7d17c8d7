// Package cli реализует инструмент командной строки digestq.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с digestq API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления настройками получателей, постановки
// сообщений и наблюдения за jobs.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для digestq API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	jobs, err := client.ListJobs(cli.ListJobsOpts{Channel: "email"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: digestq-cli jobs list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - settings: show, set, delete
//   - message: enqueue
//   - jobs: list
//
// Каждая группа создаётся через фабричную функцию (NewSettingsCmd и
// т.д.), принимающую clientFn и outputFn — замыкания для ленивого
// создания Client и Output после парсинга PersistentFlags.
package cli
