package queue

import (
	"context"
	"sync"
	"time"

	"github.com/shaiso/digestq/internal/domain"
	"github.com/shaiso/digestq/internal/repo"
)

// memStore — in-memory реализация JobStore для тестов.
// Каждый метод атомарен под общим мьютексом — тот же контракт
// conditional-update, что у настоящего хранилища.
type memStore struct {
	mu   sync.Mutex
	jobs []*domain.Job
}

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) AcquireFree(_ context.Context, key domain.JobKey, lease domain.Lease, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.Key() == key && j.IsFree(now) {
			l := lease
			j.Lease = &l
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) Insert(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.Key() == job.Key() {
			return repo.ErrAlreadyExists
		}
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *memStore) AppendAndRelease(_ context.Context, leaseID, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.Lease != nil && j.Lease.ID == leaseID {
			j.MessageIDs = append(j.MessageIDs, messageID)
			j.Lease = nil
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) PullFree(_ context.Context, criteria domain.Criteria, lease domain.Lease, now time.Time) (*domain.JobPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.Channel == criteria.Channel && j.Interval == criteria.Interval && j.IsFree(now) {
			l := lease
			j.Lease = &l
			return j.Payload(), nil
		}
	}
	return nil, nil
}

func (s *memStore) RemoveByLease(_ context.Context, leaseID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, j := range s.jobs {
		if j.Lease != nil && j.Lease.ID == leaseID {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// snapshot возвращает копию jobs для проверок.
func (s *memStore) snapshot() []*domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// find возвращает job по тройке или nil.
func (s *memStore) find(key domain.JobKey) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.Key() == key {
			return j
		}
	}
	return nil
}

// hookStore оборачивает JobStore и позволяет подменять отдельные
// методы — для инъекции ошибок и гонок.
type hookStore struct {
	JobStore
	insertHook  func(ctx context.Context, job *domain.Job) error
	acquireHook func(ctx context.Context, key domain.JobKey, lease domain.Lease, now time.Time) (bool, error)
}

func (s *hookStore) Insert(ctx context.Context, job *domain.Job) error {
	if s.insertHook != nil {
		return s.insertHook(ctx, job)
	}
	return s.JobStore.Insert(ctx, job)
}

func (s *hookStore) AcquireFree(ctx context.Context, key domain.JobKey, lease domain.Lease, now time.Time) (bool, error) {
	if s.acquireHook != nil {
		return s.acquireHook(ctx, key, lease, now)
	}
	return s.JobStore.AcquireFree(ctx, key, lease, now)
}

// staticSettings — фиксированные настройки получателей для тестов.
type staticSettings map[string]domain.ChannelSettings

func (s staticSettings) ChannelSettings(_ context.Context, recipient string) (domain.ChannelSettings, error) {
	return s[recipient], nil
}
