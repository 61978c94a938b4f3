// Package config loads the process configuration of orderdebugd.
package config

import (
	"time"

	"github.com/Station-Manager/orderdebug/internal/oplog"
)

// Config is the whole process configuration.
type Config struct {
	// LogFile is the debug log the listeners append to.
	LogFile string `koanf:"log_file" validate:"required"`
	// SettingsDB is the SQLite database holding the persisted settings.
	SettingsDB string       `koanf:"settings_db" validate:"required"`
	Admin      AdminConfig  `koanf:"admin"`
	Kafka      KafkaConfig  `koanf:"kafka"`
	Logging    oplog.Config `koanf:"logging"`
}

type AdminConfig struct {
	Addr            string        `koanf:"addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

// KafkaConfig configures the host event consumer. When Enabled is false
// events only arrive through the admin webhook and the host is assumed present.
type KafkaConfig struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers" validate:"required_if=Enabled true,dive,hostname_port"`
	Topic   string   `koanf:"topic" validate:"required_if=Enabled true"`
	GroupID string   `koanf:"group_id" validate:"required_if=Enabled true"`
	// ProbeTopic must exist for the host order system to count as installed.
	// Defaults to Topic.
	ProbeTopic  string        `koanf:"probe_topic"`
	DialTimeout time.Duration `koanf:"dial_timeout" validate:"min=0"`
}

const (
	DefaultLogFile         = "wc-logs/wc-order-debug.log"
	DefaultSettingsDB      = "orderdebug.db"
	DefaultAdminAddr       = "127.0.0.1:8089"
	DefaultTopic           = "order-events"
	DefaultGroupID         = "orderdebug"
	defaultShutdownTimeout = 10 * time.Second
	defaultDialTimeout     = 5 * time.Second
)

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogFile
	}
	if cfg.SettingsDB == "" {
		cfg.SettingsDB = DefaultSettingsDB
	}
	if cfg.Admin.Addr == "" {
		cfg.Admin.Addr = DefaultAdminAddr
	}
	if cfg.Admin.ShutdownTimeout == 0 {
		cfg.Admin.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultTopic
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultGroupID
	}
	if cfg.Kafka.ProbeTopic == "" {
		cfg.Kafka.ProbeTopic = cfg.Kafka.Topic
	}
	if cfg.Kafka.DialTimeout == 0 {
		cfg.Kafka.DialTimeout = defaultDialTimeout
	}

	defaults := oplog.DefaultConfig()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Level
	}
	if !cfg.Logging.ConsoleLogging && !cfg.Logging.FileLogging {
		cfg.Logging.ConsoleLogging = true
		cfg.Logging.WithTimestamp = true
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = defaults.MaxBackups
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = defaults.MaxAgeDays
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = defaults.MaxSizeMB
	}
}
