package dispatcher

import (
	"testing"
	"time"

	"github.com/shaiso/digestq/internal/domain"
)

func TestNextFlush_Hourly(t *testing.T) {
	from := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := NextFlush(domain.IntervalHourly, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextFlush_Daily(t *testing.T) {
	// После 08:00 — следующий сброс завтра в 08:00.
	from := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	next, err := NextFlush(domain.IntervalDaily, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextFlush_Weekly(t *testing.T) {
	// 10 марта 2025 — понедельник; в 09:00 следующий сброс через неделю.
	from := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	next, err := NextFlush(domain.IntervalWeekly, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextFlush_Immediate(t *testing.T) {
	from := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := NextFlush(domain.IntervalImmediate, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.Equal(from) {
		t.Errorf("immediate should be due right away, got %v", next)
	}
}

func TestNextFlush_Unknown(t *testing.T) {
	if _, err := NextFlush("fortnightly", time.Now()); err == nil {
		t.Error("expected error for unknown interval")
	}
}

func TestDue(t *testing.T) {
	tests := []struct {
		name     string
		interval string
		lastTick time.Time
		now      time.Time
		want     bool
	}{
		{
			name:     "immediate always due",
			interval: domain.IntervalImmediate,
			lastTick: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
			now:      time.Date(2025, 3, 10, 14, 0, 30, 0, time.UTC),
			want:     true,
		},
		{
			name:     "hourly due on the hour",
			interval: domain.IntervalHourly,
			lastTick: time.Date(2025, 3, 10, 14, 59, 30, 0, time.UTC),
			now:      time.Date(2025, 3, 10, 15, 0, 30, 0, time.UTC),
			want:     true,
		},
		{
			name:     "hourly not due mid-hour",
			interval: domain.IntervalHourly,
			lastTick: time.Date(2025, 3, 10, 14, 10, 0, 0, time.UTC),
			now:      time.Date(2025, 3, 10, 14, 11, 0, 0, time.UTC),
			want:     false,
		},
		{
			name:     "daily due at 8am",
			interval: domain.IntervalDaily,
			lastTick: time.Date(2025, 3, 10, 7, 59, 30, 0, time.UTC),
			now:      time.Date(2025, 3, 10, 8, 0, 30, 0, time.UTC),
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Due(tt.interval, tt.lastTick, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected due=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestKnownIntervals(t *testing.T) {
	known := KnownIntervals()

	want := map[string]bool{
		domain.IntervalImmediate: false,
		domain.IntervalHourly:    false,
		domain.IntervalDaily:     false,
		domain.IntervalWeekly:    false,
	}
	for _, interval := range known {
		if _, ok := want[interval]; !ok {
			t.Errorf("unexpected interval %q", interval)
		}
		want[interval] = true
	}
	for interval, seen := range want {
		if !seen {
			t.Errorf("interval %q missing", interval)
		}
	}
}
