package domain

// Известные метки интервалов доставки.
// Множество открытое: хранилище принимает любые строки, но dispatcher
// умеет вычислять расписание сброса только для известных меток.
const (
	IntervalImmediate = "immediate"
	IntervalHourly    = "hourly"
	IntervalDaily     = "daily"
	IntervalWeekly    = "weekly"
)

// ChannelSetting — настройка одного канала доставки получателя.
type ChannelSetting struct {
	// Enabled — включён ли канал. Выключенный канал при Enqueue
	// пропускается.
	Enabled bool `json:"enabled"`

	// Interval — частота доставки дайджестов по каналу.
	Interval string `json:"interval"`
}

// ChannelSettings — настройки получателя: канал -> настройка.
// Пустая map означает «получатель не настроил доставку» — для
// агрегатора это не ошибка, а no-op.
type ChannelSettings map[string]ChannelSetting
