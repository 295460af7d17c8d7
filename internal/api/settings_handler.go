package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/digestq/internal/domain"
)

// GetSettings возвращает настройки каналов получателя.
// GET /api/v1/recipients/{id}/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	recipient := r.PathValue("id")
	if recipient == "" {
		BadRequest(w, "recipient id is required")
		return
	}

	settings, err := h.settingsRepo.ChannelSettings(r.Context(), recipient)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	Success(w, SettingsFromDomain(recipient, settings))
}

// PutSettings заменяет настройки каналов получателя целиком.
// PUT /api/v1/recipients/{id}/settings
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	recipient := r.PathValue("id")
	if recipient == "" {
		BadRequest(w, "recipient id is required")
		return
	}

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	// Валидация: каждый канал обязан нести метку интервала.
	for channel, setting := range req.Channels {
		if channel == "" {
			BadRequest(w, "channel name is required")
			return
		}
		if setting.Interval == "" {
			BadRequest(w, "interval is required for channel "+channel)
			return
		}
	}

	settings := req.SettingsToDomain()
	if err := h.settingsRepo.Upsert(r.Context(), recipient, settings); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("channel settings updated",
		"recipient_key", domain.RecipientKey(recipient),
		"channels", len(settings),
	)

	Success(w, SettingsFromDomain(recipient, settings))
}

// DeleteSettings удаляет все настройки получателя.
// DELETE /api/v1/recipients/{id}/settings
func (h *Handler) DeleteSettings(w http.ResponseWriter, r *http.Request) {
	recipient := r.PathValue("id")
	if recipient == "" {
		BadRequest(w, "recipient id is required")
		return
	}

	err := h.settingsRepo.Delete(r.Context(), recipient)
	if HandleRepoError(w, h.logger, err, "settings not found") {
		return
	}

	NoContent(w)
}
