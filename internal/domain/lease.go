package domain

import "time"

// Длительности lease по умолчанию.
const (
	// ShortLeaseTTL — короткая блокировка producer'а на время append.
	ShortLeaseTTL = 5 * time.Second

	// DefaultLeaseTTL — блокировка consumer'а на время обработки job.
	DefaultLeaseTTL = 30 * time.Second
)

// Lease — ограниченный по времени маркер эксклюзивного владения Job.
//
// Один и тот же механизм используется в двух местах:
//   - короткая блокировка producer'а на время append (5 секунд)
//   - длинная блокировка consumer'а на время обработки (30 секунд)
//
// Lease хранится в самом job-документе: в процессах никаких замков нет,
// координация целиком идёт через атомарный conditional-update хранилища.
// Истёкший lease эквивалентен отсутствующему — любой участник вправе
// захватить job заново (takeover), не координируясь с прежним
// владельцем. Истечение никем активно не отслеживается: оно проявляется
// лениво, когда чей-то фильтр сравнит ExpiresAt с текущим временем.
type Lease struct {
	// ID — непрозрачный токен владельца.
	ID string `json:"id"`

	// ExpiresAt — момент, начиная с которого lease игнорируется.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewLease создаёт lease с указанным временем жизни.
func NewLease(id string, ttl time.Duration, now time.Time) Lease {
	return Lease{ID: id, ExpiresAt: now.Add(ttl)}
}

// Expired возвращает true, если lease истёк на момент now.
func (l Lease) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
