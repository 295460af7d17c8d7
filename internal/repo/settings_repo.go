package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/digestq/internal/domain"
)

// SettingsRepo — репозиторий настроек каналов доставки получателей.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

// NewSettingsRepo создаёт новый SettingsRepo.
func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// ChannelSettings возвращает настройки каналов получателя.
// Получатель без записей — пустая map, не ошибка.
func (r *SettingsRepo) ChannelSettings(ctx context.Context, recipient string) (domain.ChannelSettings, error) {
	query := `
		SELECT channel, enabled, "interval"
		FROM channel_settings
		WHERE recipient_key = $1
	`
	rows, err := r.pool.Query(ctx, query, domain.RecipientKey(recipient))
	if err != nil {
		return nil, fmt.Errorf("get channel settings: %w", err)
	}
	defer rows.Close()

	settings := make(domain.ChannelSettings)
	for rows.Next() {
		var channel string
		var setting domain.ChannelSetting
		if err := rows.Scan(&channel, &setting.Enabled, &setting.Interval); err != nil {
			return nil, fmt.Errorf("scan channel setting: %w", err)
		}
		settings[channel] = setting
	}
	return settings, rows.Err()
}

// Upsert заменяет настройки получателя целиком: старые записи
// удаляются, новые вставляются в одной транзакции.
func (r *SettingsRepo) Upsert(ctx context.Context, recipient string, settings domain.ChannelSettings) error {
	key := domain.RecipientKey(recipient)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM channel_settings WHERE recipient_key = $1`, key); err != nil {
		return fmt.Errorf("clear channel settings: %w", err)
	}

	now := time.Now()
	for channel, setting := range settings {
		_, err := tx.Exec(ctx, `
			INSERT INTO channel_settings (recipient_key, recipient, channel, enabled, "interval", updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, key, recipient, channel, setting.Enabled, setting.Interval, now)
		if err != nil {
			return fmt.Errorf("insert channel setting: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Delete удаляет все настройки получателя.
func (r *SettingsRepo) Delete(ctx context.Context, recipient string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM channel_settings WHERE recipient_key = $1`,
		domain.RecipientKey(recipient),
	)
	if err != nil {
		return fmt.Errorf("delete channel settings: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
