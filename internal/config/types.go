package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  *StorageConfig `json:"storage,omitempty"`
	Notify   *NotifyConfig  `json:"notify,omitempty"`
	Reminder ReminderConfig `json:"reminder"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the reminder persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./remindbot_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// NotifyConfig controls outbound delivery. All durations are Go duration
// strings (e.g. "500ms", "10s"). Omitted fields fall back to built-in
// defaults.
type NotifyConfig struct {
	RatePerSec    int    `json:"rate_per_sec"`
	RetryMax      int    `json:"retry_max"`
	RetryBase     string `json:"retry_base"`
	RetryMaxDelay string `json:"retry_max_delay"`
	SendTimeout   string `json:"send_timeout,omitempty"`
}

type ReminderConfig struct {
	// DefaultOccurrences bounds recurring reminders; 0 means the built-in
	// default of 12.
	DefaultOccurrences int `json:"default_occurrences"`
}
