package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema создаёт таблицы и индексы, если их ещё нет.
// Выполняется на старте каждого сервиса; все statements идемпотентны.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id             UUID PRIMARY KEY,
			recipient_key  TEXT NOT NULL,
			recipient      TEXT NOT NULL,
			channel        TEXT NOT NULL,
			"interval"     TEXT NOT NULL,
			message_ids    TEXT[] NOT NULL DEFAULT '{}',
			lease_id       TEXT,
			lease_expires  TIMESTAMPTZ,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		// Инвариант очереди: один job на тройку. Проигравший вставку
		// producer получает unique violation и повторяет как append.
		`CREATE UNIQUE INDEX IF NOT EXISTS jobs_tuple_uniq
			ON jobs (recipient_key, channel, "interval")`,

		`CREATE INDEX IF NOT EXISTS jobs_criteria_idx
			ON jobs (channel, "interval")`,

		// Append и Remove ищут job по lease id.
		`CREATE INDEX IF NOT EXISTS jobs_lease_idx
			ON jobs (lease_id) WHERE lease_id IS NOT NULL`,

		`CREATE TABLE IF NOT EXISTS channel_settings (
			recipient_key  TEXT NOT NULL,
			recipient      TEXT NOT NULL,
			channel        TEXT NOT NULL,
			enabled        BOOLEAN NOT NULL DEFAULT true,
			"interval"     TEXT NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (recipient_key, channel)
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
