package api

import (
	"log/slog"

	"github.com/shaiso/digestq/internal/queue"
	"github.com/shaiso/digestq/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	settingsRepo *repo.SettingsRepo
	jobRepo      *repo.JobRepo
	aggregator   *queue.Aggregator
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	SettingsRepo *repo.SettingsRepo
	JobRepo      *repo.JobRepo
	Aggregator   *queue.Aggregator
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		settingsRepo: cfg.SettingsRepo,
		jobRepo:      cfg.JobRepo,
		aggregator:   cfg.Aggregator,
		logger:       cfg.Logger,
	}
}
