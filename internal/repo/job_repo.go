package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/digestq/internal/domain"
)

// JobRepo — репозиторий jobs очереди дайджестов.
//
// Все мутации — одиночные conditional-update statements: предикат
// свободы lease входит в WHERE, результат определяется по
// RowsAffected. Между чтением и записью нет окна — атомарность
// обеспечивает сама СУБД.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// AcquireFree ставит lease на свободный job с ключом key.
// Возвращает true, если job нашёлся и был захвачен.
func (r *JobRepo) AcquireFree(ctx context.Context, key domain.JobKey, lease domain.Lease, now time.Time) (bool, error) {
	query := `
		UPDATE jobs
		SET lease_id = $4, lease_expires = $5
		WHERE recipient_key = $1 AND channel = $2 AND "interval" = $3
		  AND (lease_id IS NULL OR lease_expires <= $6)
	`
	result, err := r.pool.Exec(ctx, query,
		key.RecipientKey,
		key.Channel,
		key.Interval,
		lease.ID,
		lease.ExpiresAt,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("acquire job: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Insert вставляет новый job. Конфликт по уникальному индексу тройки —
// ErrAlreadyExists.
func (r *JobRepo) Insert(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (id, recipient_key, recipient, channel, "interval", message_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.RecipientKey,
		job.Recipient,
		job.Channel,
		job.Interval,
		job.MessageIDs,
		job.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// AppendAndRelease дописывает messageID в job, захваченный lease'ом
// leaseID, и снимает lease. false — job с таким lease уже не существует.
func (r *JobRepo) AppendAndRelease(ctx context.Context, leaseID, messageID string) (bool, error) {
	query := `
		UPDATE jobs
		SET message_ids = array_append(message_ids, $2),
		    lease_id = NULL, lease_expires = NULL
		WHERE lease_id = $1
	`
	result, err := r.pool.Exec(ctx, query, leaseID, messageID)
	if err != nil {
		return false, fmt.Errorf("append message: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// PullFree захватывает lease'ом один свободный job по критериям и
// возвращает его содержимое. nil — подходящих jobs нет.
//
// Подзапрос с FOR UPDATE SKIP LOCKED разводит конкурирующих
// consumer'ов по разным строкам; предикат свободы повторён во внешнем
// WHERE — под READ COMMITTED строка могла быть захвачена между
// подзапросом и обновлением. Порядок выбора не фиксирован.
func (r *JobRepo) PullFree(ctx context.Context, criteria domain.Criteria, lease domain.Lease, now time.Time) (*domain.JobPayload, error) {
	query := `
		UPDATE jobs
		SET lease_id = $3, lease_expires = $4
		WHERE id = (
			SELECT id FROM jobs
			WHERE channel = $1 AND "interval" = $2
			  AND (lease_id IS NULL OR lease_expires <= $5)
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		  AND (lease_id IS NULL OR lease_expires <= $5)
		RETURNING recipient, channel, "interval", message_ids
	`
	var payload domain.JobPayload
	err := r.pool.QueryRow(ctx, query,
		criteria.Channel,
		criteria.Interval,
		lease.ID,
		lease.ExpiresAt,
		now,
	).Scan(
		&payload.Recipient,
		&payload.Channel,
		&payload.Interval,
		&payload.MessageIDs,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pull job: %w", err)
	}
	return &payload, nil
}

// RemoveByLease удаляет job, захваченный lease'ом leaseID.
// Возвращает количество удалённых (0 или 1).
func (r *JobRepo) RemoveByLease(ctx context.Context, leaseID string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE lease_id = $1`, leaseID)
	if err != nil {
		return 0, fmt.Errorf("remove job: %w", err)
	}
	return result.RowsAffected(), nil
}

// List возвращает jobs с опциональными фильтрами по каналу и интервалу.
// Сырой идентификатор получателя наружу не отдаётся — только хэш.
func (r *JobRepo) List(ctx context.Context, channel, interval string, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, recipient_key, channel, "interval", message_ids,
		       lease_id, lease_expires, created_at
		FROM jobs
		WHERE ($1 = '' OR channel = $1)
		  AND ($2 = '' OR "interval" = $2)
		ORDER BY created_at ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, channel, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var job domain.Job
		var leaseID *string
		var leaseExpires *time.Time

		err := rows.Scan(
			&job.ID,
			&job.RecipientKey,
			&job.Channel,
			&job.Interval,
			&job.MessageIDs,
			&leaseID,
			&leaseExpires,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		if leaseID != nil && leaseExpires != nil {
			job.Lease = &domain.Lease{ID: *leaseID, ExpiresAt: *leaseExpires}
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
