package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/digestq/internal/domain"
)

func newTestAggregator(store JobStore, settings SettingsProvider) *Aggregator {
	return NewAggregator(AggregatorConfig{
		Store:    store,
		Settings: settings,
	})
}

func TestAggregator_Enqueue_CreatesJob(t *testing.T) {
	store := newMemStore()
	settings := staticSettings{
		"user-1": {"email": {Enabled: true, Interval: domain.IntervalDaily}},
	}
	agg := newTestAggregator(store, settings)

	result, err := agg.Enqueue(context.Background(), &domain.MessageEvent{Recipient: "user-1", ID: "msg-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, ok := result["email"]
	if !ok {
		t.Fatal("expected outcome for email channel")
	}
	if outcome.Err != nil {
		t.Fatalf("unexpected channel error: %v", outcome.Err)
	}
	if !outcome.Created {
		t.Error("first enqueue should create a job")
	}

	job := store.find(domain.JobKey{
		RecipientKey: domain.RecipientKey("user-1"),
		Channel:      "email",
		Interval:     domain.IntervalDaily,
	})
	if job == nil {
		t.Fatal("job should exist in store")
	}
	if len(job.MessageIDs) != 1 || job.MessageIDs[0] != "msg-1" {
		t.Errorf("expected [msg-1], got %v", job.MessageIDs)
	}
	if job.Lease != nil {
		t.Error("new job should be free")
	}
	if job.Recipient != "user-1" {
		t.Errorf("raw recipient should be stored, got %q", job.Recipient)
	}
}

func TestAggregator_Enqueue_AppendsInOrder(t *testing.T) {
	store := newMemStore()
	settings := staticSettings{
		"user-1": {"email": {Enabled: true, Interval: domain.IntervalDaily}},
	}
	agg := newTestAggregator(store, settings)

	for i := 1; i <= 5; i++ {
		result, err := agg.Enqueue(context.Background(), &domain.MessageEvent{
			Recipient: "user-1",
			ID:        fmt.Sprintf("msg-%d", i),
		})
		if err != nil {
			t.Fatalf("enqueue %d: unexpected error: %v", i, err)
		}
		created := result["email"].Created
		if i == 1 && !created {
			t.Error("first enqueue should create")
		}
		if i > 1 && created {
			t.Errorf("enqueue %d should append, not create", i)
		}
	}

	jobs := store.snapshot()
	if len(jobs) != 1 {
		t.Fatalf("expected a single job, got %d", len(jobs))
	}
	job := jobs[0]
	if len(job.MessageIDs) != 5 {
		t.Fatalf("expected 5 message ids, got %d", len(job.MessageIDs))
	}
	for i, id := range job.MessageIDs {
		want := fmt.Sprintf("msg-%d", i+1)
		if id != want {
			t.Errorf("position %d: expected %s, got %s", i, want, id)
		}
	}
	if job.Lease != nil {
		t.Error("job should be free after append")
	}
}

func TestAggregator_Enqueue_FansOutPerChannel(t *testing.T) {
	store := newMemStore()
	settings := staticSettings{
		"user-1": {
			"email": {Enabled: true, Interval: domain.IntervalDaily},
			"sms":   {Enabled: true, Interval: domain.IntervalImmediate},
			"push":  {Enabled: false, Interval: domain.IntervalHourly},
		},
	}
	agg := newTestAggregator(store, settings)

	result, err := agg.Enqueue(context.Background(), &domain.MessageEvent{Recipient: "user-1", ID: "msg-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected outcomes for 2 enabled channels, got %d", len(result))
	}
	if _, ok := result["push"]; ok {
		t.Error("disabled channel should be skipped")
	}
	for _, channel := range []string{"email", "sms"} {
		if !result[channel].Created {
			t.Errorf("channel %s: expected created job", channel)
		}
	}

	if len(store.snapshot()) != 2 {
		t.Errorf("expected 2 jobs (email, sms), got %d", len(store.snapshot()))
	}
}

func TestAggregator_Enqueue_NoSettingsIsNoop(t *testing.T) {
	store := newMemStore()
	agg := newTestAggregator(store, staticSettings{})

	result, err := agg.Enqueue(context.Background(), &domain.MessageEvent{Recipient: "unknown", ID: "msg-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty result, got %v", result)
	}
	if len(store.snapshot()) != 0 {
		t.Error("no jobs should be created")
	}
}

func TestAggregator_Enqueue_InvalidMessage(t *testing.T) {
	agg := newTestAggregator(newMemStore(), staticSettings{})

	cases := []*domain.MessageEvent{
		{Recipient: "", ID: "msg-1"},
		{Recipient: "user-1", ID: ""},
	}
	for _, msg := range cases {
		_, err := agg.Enqueue(context.Background(), msg)
		if !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("message %+v: expected ErrInvalidMessage, got %v", msg, err)
		}
	}
}

func TestAggregator_Enqueue_ChannelFailureIsIsolated(t *testing.T) {
	store := newMemStore()
	boom := errors.New("storage down")
	hooked := &hookStore{
		JobStore: store,
		insertHook: func(ctx context.Context, job *domain.Job) error {
			if job.Channel == "sms" {
				return boom
			}
			return store.Insert(ctx, job)
		},
	}
	settings := staticSettings{
		"user-1": {
			"email": {Enabled: true, Interval: domain.IntervalDaily},
			"sms":   {Enabled: true, Interval: domain.IntervalImmediate},
		},
	}
	agg := newTestAggregator(hooked, settings)

	result, err := agg.Enqueue(context.Background(), &domain.MessageEvent{Recipient: "user-1", ID: "msg-1"})
	if err != nil {
		t.Fatalf("channel errors must not fail the whole enqueue: %v", err)
	}

	if result["email"].Err != nil {
		t.Errorf("email should succeed, got %v", result["email"].Err)
	}
	if !errors.Is(result["sms"].Err, boom) {
		t.Errorf("sms should carry the storage error, got %v", result["sms"].Err)
	}

	failed := result.Failed()
	if len(failed) != 1 || failed[0] != "sms" {
		t.Errorf("expected Failed()=[sms], got %v", failed)
	}
}

func TestAggregator_Enqueue_InsertRaceRetriesAsAppend(t *testing.T) {
	store := newMemStore()
	settings := staticSettings{
		"user-1": {"email": {Enabled: true, Interval: domain.IntervalDaily}},
	}

	// Первый insert проигрывает гонку: конкурент вставляет job между
	// «свободных нет» и нашей вставкой. Повтор должен пройти как append.
	raced := false
	hooked := &hookStore{JobStore: store}
	hooked.insertHook = func(ctx context.Context, job *domain.Job) error {
		if !raced {
			raced = true
			rival := domain.NewJob("user-1", "email", domain.IntervalDaily, "msg-rival", time.Now())
			if err := store.Insert(ctx, rival); err != nil {
				t.Fatalf("rival insert: %v", err)
			}
		}
		return store.Insert(ctx, job)
	}

	agg := newTestAggregator(hooked, settings)
	result, err := agg.Enqueue(context.Background(), &domain.MessageEvent{Recipient: "user-1", ID: "msg-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["email"].Err != nil {
		t.Fatalf("unexpected channel error: %v", result["email"].Err)
	}
	if result["email"].Created {
		t.Error("losing insert should be retried as append")
	}

	jobs := store.snapshot()
	if len(jobs) != 1 {
		t.Fatalf("expected a single job, got %d", len(jobs))
	}
	ids := jobs[0].MessageIDs
	if len(ids) != 2 || ids[0] != "msg-rival" || ids[1] != "msg-1" {
		t.Errorf("expected [msg-rival msg-1], got %v", ids)
	}
}

func TestAggregator_Enqueue_LeasedJobBlocksEnqueue(t *testing.T) {
	store := newMemStore()
	settings := staticSettings{
		"user-1": {"email": {Enabled: true, Interval: domain.IntervalDaily}},
	}
	agg := newTestAggregator(store, settings)

	ctx := context.Background()
	if _, err := agg.Enqueue(ctx, &domain.MessageEvent{Recipient: "user-1", ID: "msg-1"}); err != nil {
		t.Fatalf("seed enqueue: %v", err)
	}

	// Consumer держит job длинным lease'ом: job существует (insert
	// невозможен), но не свободен (acquire не проходит).
	q := NewQueue(store, nil)
	payload, err := q.Pull(ctx, PullOptions{
		Channel:  "email",
		Interval: domain.IntervalDaily,
		JobID:    uuid.New().String(),
		LeaseTTL: time.Minute,
	})
	if err != nil || payload == nil {
		t.Fatalf("pull should claim the job: payload=%v err=%v", payload, err)
	}

	result, err := agg.Enqueue(ctx, &domain.MessageEvent{Recipient: "user-1", ID: "msg-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["email"].Err == nil {
		t.Error("enqueue against a consumer-leased job should exhaust retries")
	}

	job := store.snapshot()[0]
	if len(job.MessageIDs) != 1 {
		t.Errorf("leased job must not be mutated, got %v", job.MessageIDs)
	}
}

func TestAggregator_Enqueue_Concurrent(t *testing.T) {
	store := newMemStore()
	settings := staticSettings{
		"user-1": {"email": {Enabled: true, Interval: domain.IntervalDaily}},
	}
	agg := newTestAggregator(store, settings)

	const producers = 8
	var wg sync.WaitGroup
	errs := make(chan error, producers)

	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := agg.Enqueue(context.Background(), &domain.MessageEvent{
				Recipient: "user-1",
				ID:        fmt.Sprintf("msg-%d", i),
			})
			if err != nil {
				errs <- err
				return
			}
			if outcome := result["email"]; outcome.Err != nil {
				errs <- outcome.Err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent enqueue failed: %v", err)
	}

	jobs := store.snapshot()
	if len(jobs) != 1 {
		t.Fatalf("expected a single job under contention, got %d", len(jobs))
	}
	job := jobs[0]
	if len(job.MessageIDs) != producers {
		t.Errorf("expected %d message ids, got %d", producers, len(job.MessageIDs))
	}
	seen := make(map[string]bool)
	for _, id := range job.MessageIDs {
		if seen[id] {
			t.Errorf("duplicate message id %s", id)
		}
		seen[id] = true
	}
	if job.Lease != nil {
		t.Error("job should be free after all producers finished")
	}
}

func TestAggregator_Enqueue_LeaseLostOnTakeover(t *testing.T) {
	store := newMemStore()
	settings := staticSettings{
		"user-1": {"email": {Enabled: true, Interval: domain.IntervalDaily}},
	}

	// Acquire сообщает об успехе, но job тут же исчезает — как будто
	// короткий lease истёк и job перехвачен и удалён другим участником.
	hooked := &hookStore{JobStore: store}
	hooked.acquireHook = func(ctx context.Context, key domain.JobKey, lease domain.Lease, now time.Time) (bool, error) {
		matched, err := store.AcquireFree(ctx, key, lease, now)
		if matched {
			if _, rerr := store.RemoveByLease(ctx, lease.ID); rerr != nil {
				return false, rerr
			}
		}
		return matched, err
	}

	agg := newTestAggregator(hooked, settings)
	ctx := context.Background()
	if _, err := agg.Enqueue(ctx, &domain.MessageEvent{Recipient: "user-1", ID: "msg-1"}); err != nil {
		t.Fatalf("seed enqueue: %v", err)
	}

	result, err := agg.Enqueue(ctx, &domain.MessageEvent{Recipient: "user-1", ID: "msg-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(result["email"].Err, ErrLeaseLost) {
		t.Errorf("expected ErrLeaseLost, got %v", result["email"].Err)
	}
}
