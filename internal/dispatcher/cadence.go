package dispatcher

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/digestq/internal/domain"
)

// cronParser — парсер cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// flushCrons — расписания сброса по меткам интервалов.
// Метка immediate обрабатывается отдельно: она due на каждом тике.
var flushCrons = map[string]string{
	domain.IntervalHourly: "0 * * * *",
	domain.IntervalDaily:  "0 8 * * *",
	domain.IntervalWeekly: "0 8 * * 1",
}

// KnownIntervals возвращает метки интервалов, для которых dispatcher
// умеет вычислять расписание сброса.
func KnownIntervals() []string {
	intervals := []string{domain.IntervalImmediate}
	for interval := range flushCrons {
		intervals = append(intervals, interval)
	}
	return intervals
}

// AlwaysDue возвращает true для интервалов, сбрасываемых на каждом тике.
func AlwaysDue(interval string) bool {
	return interval == domain.IntervalImmediate
}

// NextFlush вычисляет следующий момент сброса для метки интервала.
func NextFlush(interval string, from time.Time) (time.Time, error) {
	if AlwaysDue(interval) {
		return from, nil
	}

	expr, ok := flushCrons[interval]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown interval %q", interval)
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse flush cron %q: %w", expr, err)
	}
	return schedule.Next(from).UTC(), nil
}

// Due возвращает true, если интервал должен сбрасываться в окне
// (lastTick, now]. Для immediate — всегда true.
func Due(interval string, lastTick, now time.Time) (bool, error) {
	if AlwaysDue(interval) {
		return true, nil
	}

	next, err := NextFlush(interval, lastTick)
	if err != nil {
		return false, err
	}
	return !next.After(now), nil
}
