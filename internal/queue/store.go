package queue

import (
	"context"
	"time"

	"github.com/shaiso/digestq/internal/domain"
)

// JobStore — минимальный контракт хранилища jobs.
//
// Вся взаимная блокировка построена на одном примитиве хранилища:
// «обнови документы по фильтру, сообщи сколько изменено» — аналог
// compare-and-swap над предикатом. Реализация обязана выполнять каждый
// метод как одну атомарную операцию над хранилищем, без
// read-modify-write в памяти процесса.
//
// Момент времени now передаётся явно: свежесть lease всегда оценивает
// вызывающая сторона, хранилище лишь сравнивает.
type JobStore interface {
	// AcquireFree ставит lease на job с ключом key, если тот свободен
	// (lease отсутствует или истёк на момент now).
	// Возвращает true, если такой job нашёлся и был захвачен.
	AcquireFree(ctx context.Context, key domain.JobKey, lease domain.Lease, now time.Time) (bool, error)

	// Insert вставляет новый job. Если job для той же тройки уже
	// существует — repo.ErrAlreadyExists.
	Insert(ctx context.Context, job *domain.Job) error

	// AppendAndRelease дописывает messageID в job, захваченный lease'ом
	// leaseID, и снимает lease. Возвращает false, если job с таким
	// lease уже не существует (перехвачен после истечения).
	AppendAndRelease(ctx context.Context, leaseID, messageID string) (bool, error)

	// PullFree захватывает lease'ом один свободный job по критериям и
	// возвращает его содержимое. nil — подходящих jobs нет.
	// Выбор среди нескольких свободных jobs за хранилищем.
	PullFree(ctx context.Context, criteria domain.Criteria, lease domain.Lease, now time.Time) (*domain.JobPayload, error)

	// RemoveByLease удаляет job, захваченный lease'ом leaseID.
	// Возвращает количество удалённых (0 или 1).
	RemoveByLease(ctx context.Context, leaseID string) (int64, error)
}

// SettingsProvider отдаёт настройки каналов доставки получателя.
// Сами настройки агрегатору не принадлежат — это внешний collaborator.
type SettingsProvider interface {
	// ChannelSettings возвращает настройки получателя.
	// Пустая map — получатель ничего не настроил.
	ChannelSettings(ctx context.Context, recipient string) (domain.ChannelSettings, error)
}
