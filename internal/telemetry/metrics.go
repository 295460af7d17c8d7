package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики очереди дайджестов. Регистрируются в default registry,
// каждый сервис экспортирует их через promhttp на /metrics.
var (
	// MessagesEnqueued — сообщения, принятые в jobs, по каналам.
	MessagesEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digestq_messages_enqueued_total",
		Help: "Messages accepted into digest jobs, by channel",
	}, []string{"channel"})

	// JobsCreated — созданные jobs (insert-путь Enqueue).
	JobsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digestq_jobs_created_total",
		Help: "Digest jobs created, by channel",
	}, []string{"channel"})

	// JobsAppended — дописанные jobs (append-путь Enqueue).
	JobsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digestq_jobs_appended_total",
		Help: "Appends to existing digest jobs, by channel",
	}, []string{"channel"})

	// JobsPulled — успешно захваченные consumer'ами jobs.
	JobsPulled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digestq_jobs_pulled_total",
		Help: "Jobs leased to consumers, by channel and interval",
	}, []string{"channel", "interval"})

	// PullsEmpty — вызовы Pull без подходящих jobs.
	PullsEmpty = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digestq_pulls_empty_total",
		Help: "Pull calls that found no free job, by channel and interval",
	}, []string{"channel", "interval"})

	// JobsRemoved — удалённые после обработки jobs.
	JobsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "digestq_jobs_removed_total",
		Help: "Jobs removed after processing",
	})

	// DigestsPublished — опубликованные дайджесты.
	DigestsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "digestq_digests_published_total",
		Help: "Digest events published to the message broker, by channel and interval",
	}, []string{"channel", "interval"})
)
