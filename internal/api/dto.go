package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/digestq/internal/domain"
	"github.com/shaiso/digestq/internal/queue"
)

// Settings DTOs

// ChannelSettingDTO — настройка одного канала доставки.
type ChannelSettingDTO struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval"`
}

// SettingsRequest — запрос на замену настроек получателя.
// Ключ map — имя канала.
type SettingsRequest struct {
	Channels map[string]ChannelSettingDTO `json:"channels"`
}

// SettingsResponse — ответ с настройками получателя.
type SettingsResponse struct {
	Recipient string                       `json:"recipient"`
	Channels  map[string]ChannelSettingDTO `json:"channels"`
}

// SettingsFromDomain конвертирует domain.ChannelSettings в ответ.
func SettingsFromDomain(recipient string, settings domain.ChannelSettings) SettingsResponse {
	channels := make(map[string]ChannelSettingDTO, len(settings))
	for channel, setting := range settings {
		channels[channel] = ChannelSettingDTO{
			Enabled:  setting.Enabled,
			Interval: setting.Interval,
		}
	}
	return SettingsResponse{Recipient: recipient, Channels: channels}
}

// SettingsToDomain конвертирует запрос в domain.ChannelSettings.
func (r SettingsRequest) SettingsToDomain() domain.ChannelSettings {
	settings := make(domain.ChannelSettings, len(r.Channels))
	for channel, dto := range r.Channels {
		settings[channel] = domain.ChannelSetting{
			Enabled:  dto.Enabled,
			Interval: dto.Interval,
		}
	}
	return settings
}

// Message DTOs

// EnqueueMessageRequest — запрос на постановку сообщения в очередь.
type EnqueueMessageRequest struct {
	Recipient string `json:"recipient"`
	MessageID string `json:"message_id"`
}

// ChannelOutcomeDTO — исход Enqueue по одному каналу.
type ChannelOutcomeDTO struct {
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// EnqueueResponse — ответ с исходами по каналам.
type EnqueueResponse struct {
	MessageID string                       `json:"message_id"`
	Channels  map[string]ChannelOutcomeDTO `json:"channels"`
}

// EnqueueFromResult конвертирует queue.Result в ответ.
func EnqueueFromResult(messageID string, result queue.Result) EnqueueResponse {
	channels := make(map[string]ChannelOutcomeDTO, len(result))
	for channel, outcome := range result {
		dto := ChannelOutcomeDTO{Created: outcome.Created}
		if outcome.Err != nil {
			dto.Error = outcome.Err.Error()
		}
		channels[channel] = dto
	}
	return EnqueueResponse{MessageID: messageID, Channels: channels}
}

// Job DTOs

// JobResponse — ответ с job. Сырой идентификатор получателя наружу
// не отдаётся — только стабильный хэш.
type JobResponse struct {
	ID           uuid.UUID  `json:"id"`
	RecipientKey string     `json:"recipient_key"`
	Channel      string     `json:"channel"`
	Interval     string     `json:"interval"`
	MessageIDs   []string   `json:"message_ids"`
	Leased       bool       `json:"leased"`
	LeaseExpires *time.Time `json:"lease_expires,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// JobFromDomain конвертирует domain.Job в JobResponse.
func JobFromDomain(j domain.Job) JobResponse {
	resp := JobResponse{
		ID:           j.ID,
		RecipientKey: j.RecipientKey,
		Channel:      j.Channel,
		Interval:     j.Interval,
		MessageIDs:   j.MessageIDs,
		Leased:       !j.IsFree(time.Now()),
		CreatedAt:    j.CreatedAt,
	}
	if j.Lease != nil {
		expires := j.Lease.ExpiresAt
		resp.LeaseExpires = &expires
	}
	return resp
}
