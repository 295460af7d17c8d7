package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/digestq/internal/domain"
)

func seedJob(t *testing.T, store *memStore, recipient, channel, interval string, messageIDs ...string) {
	t.Helper()
	job := domain.NewJob(recipient, channel, interval, messageIDs[0], time.Now())
	job.MessageIDs = messageIDs
	if err := store.Insert(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
}

func TestQueue_Pull_Empty(t *testing.T) {
	q := NewQueue(newMemStore(), nil)

	payload, err := q.Pull(context.Background(), PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload != nil {
		t.Errorf("empty queue should return nil payload, got %v", payload)
	}
}

func TestQueue_Pull_ClaimsJob(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, "user-1", "email", domain.IntervalDaily, "msg-1", "msg-2")
	q := NewQueue(store, nil)

	ctx := context.Background()
	payload, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload == nil {
		t.Fatal("expected a payload")
	}
	if payload.Recipient != "user-1" {
		t.Errorf("payload should carry the raw recipient, got %q", payload.Recipient)
	}
	if payload.Channel != "email" || payload.Interval != domain.IntervalDaily {
		t.Errorf("unexpected criteria in payload: %s/%s", payload.Channel, payload.Interval)
	}
	if len(payload.MessageIDs) != 2 || payload.MessageIDs[0] != "msg-1" || payload.MessageIDs[1] != "msg-2" {
		t.Errorf("expected [msg-1 msg-2], got %v", payload.MessageIDs)
	}

	// Job захвачен: второй Pull по тем же критериям — пусто.
	second, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != nil {
		t.Errorf("leased job must not be pulled again, got %v", second)
	}
}

func TestQueue_Pull_CriteriaMismatch(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, "user-1", "email", domain.IntervalDaily, "msg-1")
	q := NewQueue(store, nil)

	cases := []struct{ channel, interval string }{
		{"sms", domain.IntervalDaily},
		{"email", domain.IntervalHourly},
	}
	for _, tc := range cases {
		payload, err := q.Pull(context.Background(), PullOptions{
			Channel:  tc.channel,
			Interval: tc.interval,
			JobID:    uuid.New().String(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if payload != nil {
			t.Errorf("%s/%s should not match, got %v", tc.channel, tc.interval, payload)
		}
	}
}

func TestQueue_Pull_ExpiredLeaseRecovered(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, "user-1", "email", domain.IntervalDaily, "msg-1")
	q := NewQueue(store, nil)

	ctx := context.Background()
	first, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    uuid.New().String(),
		LeaseTTL: 50 * time.Millisecond,
	})
	if err != nil || first == nil {
		t.Fatalf("first pull: payload=%v err=%v", first, err)
	}

	time.Sleep(100 * time.Millisecond)

	// Lease истёк — упавший consumer «теряет» job, и тот снова доступен.
	second, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second == nil {
		t.Fatal("job should be pullable again after lease expiry")
	}
	if len(second.MessageIDs) != 1 || second.MessageIDs[0] != "msg-1" {
		t.Errorf("payload should be intact, got %v", second.MessageIDs)
	}
}

func TestQueue_Pull_Validation(t *testing.T) {
	q := NewQueue(newMemStore(), nil)

	cases := []PullOptions{
		{Channel: "", Interval: domain.IntervalDaily, JobID: "j"},
		{Channel: "email", Interval: "", JobID: "j"},
		{Channel: "email", Interval: domain.IntervalDaily, JobID: ""},
	}
	for _, opts := range cases {
		_, err := q.Pull(context.Background(), opts)
		if !errors.Is(err, ErrInvalidCriteria) {
			t.Errorf("opts %+v: expected ErrInvalidCriteria, got %v", opts, err)
		}
	}
}

func TestQueue_Remove_ByLease(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, "user-1", "email", domain.IntervalDaily, "msg-1")
	q := NewQueue(store, nil)

	ctx := context.Background()
	jobID := uuid.New().String()
	payload, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    jobID,
	})
	if err != nil || payload == nil {
		t.Fatalf("pull: payload=%v err=%v", payload, err)
	}

	removed, err := q.Remove(ctx, jobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	// Job удалён: очередь пуста.
	next, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("queue should be empty after remove, got %v", next)
	}
}

func TestQueue_Remove_UnknownLease(t *testing.T) {
	q := NewQueue(newMemStore(), nil)

	removed, err := q.Remove(context.Background(), uuid.New().String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected 0 removed, got %d", removed)
	}
}

func TestQueue_Remove_EmptyID(t *testing.T) {
	q := NewQueue(newMemStore(), nil)

	_, err := q.Remove(context.Background(), "")
	if !errors.Is(err, ErrInvalidCriteria) {
		t.Errorf("expected ErrInvalidCriteria, got %v", err)
	}
}

func TestQueue_Remove_StaleLeaseAfterTakeover(t *testing.T) {
	store := newMemStore()
	seedJob(t, store, "user-1", "email", domain.IntervalDaily, "msg-1")
	q := NewQueue(store, nil)

	ctx := context.Background()
	staleID := uuid.New().String()
	if payload, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    staleID,
		LeaseTTL: 50 * time.Millisecond,
	}); err != nil || payload == nil {
		t.Fatalf("first pull: payload=%v err=%v", payload, err)
	}

	time.Sleep(100 * time.Millisecond)

	// Другой consumer перехватил job после истечения lease.
	freshID := uuid.New().String()
	if payload, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    freshID,
	}); err != nil || payload == nil {
		t.Fatalf("takeover pull: payload=%v err=%v", payload, err)
	}

	// Опоздавший Remove со старым lease id — no-op.
	removed, err := q.Remove(ctx, staleID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 0 {
		t.Errorf("stale remove must be a no-op, got %d", removed)
	}

	// Работа нового владельца цела.
	removed, err = q.Remove(ctx, freshID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Errorf("fresh remove should delete the job, got %d", removed)
	}
}

// Полный цикл: producer'ы копят сообщения, consumer забирает дайджест
// целиком и удаляет job, после чего новая порция начинает новый job.
func TestQueue_EndToEnd(t *testing.T) {
	store := newMemStore()
	settings := staticSettings{
		"user-1": {"email": {Enabled: true, Interval: domain.IntervalDaily}},
	}
	agg := newTestAggregator(store, settings)
	q := NewQueue(store, nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := agg.Enqueue(ctx, &domain.MessageEvent{
			Recipient: "user-1",
			ID:        fmt.Sprintf("msg-%d", i),
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	jobID := uuid.New().String()
	payload, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    jobID,
	})
	if err != nil || payload == nil {
		t.Fatalf("pull: payload=%v err=%v", payload, err)
	}
	if len(payload.MessageIDs) != 3 {
		t.Fatalf("expected all 3 messages in one digest, got %v", payload.MessageIDs)
	}

	if removed, err := q.Remove(ctx, jobID); err != nil || removed != 1 {
		t.Fatalf("remove: removed=%d err=%v", removed, err)
	}

	// Следующее сообщение начинает новый job.
	result, err := agg.Enqueue(ctx, &domain.MessageEvent{Recipient: "user-1", ID: "msg-4"})
	if err != nil {
		t.Fatalf("enqueue after remove: %v", err)
	}
	if !result["email"].Created {
		t.Error("message after remove should create a fresh job")
	}

	next, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    uuid.New().String(),
	})
	if err != nil || next == nil {
		t.Fatalf("pull fresh job: payload=%v err=%v", next, err)
	}
	if len(next.MessageIDs) != 1 || next.MessageIDs[0] != "msg-4" {
		t.Errorf("fresh job should hold only msg-4, got %v", next.MessageIDs)
	}
}
