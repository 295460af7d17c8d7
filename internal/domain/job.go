package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job — агрегированная пачка идентификаторов сообщений для одной
// тройки (получатель, канал, интервал).
//
// Для каждой тройки существует не более одного Job — независимо от
// состояния lease. Producer'ы дописывают message ids в существующий
// Job, consumer захватывает Job целиком (lease), публикует дайджест
// и удаляет Job.
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// RecipientKey — стабильный хэш идентификатора получателя.
	// В ключах поиска и индексах сырой идентификатор не участвует.
	RecipientKey string `json:"recipient_key"`

	// Recipient — сырой идентификатор получателя.
	// Нужен отправителю дайджеста, возвращается при Pull.
	Recipient string `json:"recipient"`

	// Channel — канал доставки ("email", "sms", ...).
	// Открытое множество: новые каналы не требуют изменения кода.
	Channel string `json:"channel"`

	// Interval — метка частоты доставки ("immediate", "daily", ...).
	Interval string `json:"interval"`

	// MessageIDs — идентификаторы сообщений в порядке поступления.
	// Список только растёт; дубликаты допустимы (дедупликации
	// содержимого нет).
	MessageIDs []string `json:"message_ids"`

	// Lease — маркер эксклюзивного владения.
	// nil или истёкший lease означает, что job свободен.
	Lease *Lease `json:"lease,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`
}

// NewJob создаёт новый свободный Job с одним сообщением.
func NewJob(recipient, channel, interval, messageID string, now time.Time) *Job {
	return &Job{
		ID:           uuid.New(),
		RecipientKey: RecipientKey(recipient),
		Recipient:    recipient,
		Channel:      channel,
		Interval:     interval,
		MessageIDs:   []string{messageID},
		CreatedAt:    now,
	}
}

// IsFree возвращает true, если job никем не захвачен на момент now.
func (j *Job) IsFree(now time.Time) bool {
	return j.Lease == nil || j.Lease.Expired(now)
}

// Key возвращает ключ уникальности job.
func (j *Job) Key() JobKey {
	return JobKey{
		RecipientKey: j.RecipientKey,
		Channel:      j.Channel,
		Interval:     j.Interval,
	}
}

// Payload возвращает содержимое job для consumer'а.
func (j *Job) Payload() *JobPayload {
	ids := make([]string, len(j.MessageIDs))
	copy(ids, j.MessageIDs)
	return &JobPayload{
		Recipient:  j.Recipient,
		Channel:    j.Channel,
		Interval:   j.Interval,
		MessageIDs: ids,
	}
}

// JobKey — тройка, по которой job уникален.
type JobKey struct {
	RecipientKey string
	Channel      string
	Interval     string
}

// Criteria — критерии выбора job при Pull: все свободные jobs
// с данными каналом и интервалом, без привязки к получателю.
type Criteria struct {
	Channel  string
	Interval string
}

// JobPayload — содержимое job, возвращаемое consumer'у при Pull.
type JobPayload struct {
	Recipient  string   `json:"recipient"`
	Channel    string   `json:"channel"`
	Interval   string   `json:"interval"`
	MessageIDs []string `json:"message_ids"`
}
