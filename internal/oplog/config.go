package oplog

// Config controls the operational logger.
type Config struct {
	Level          string `koanf:"level" validate:"required,oneof=trace debug info warn error disabled"`
	WithTimestamp  bool   `koanf:"with_timestamp"`
	ConsoleLogging bool   `koanf:"console_logging"`
	ConsoleNoColor bool   `koanf:"console_no_color"`
	FileLogging    bool   `koanf:"file_logging"`
	Dir            string `koanf:"dir" validate:"required_if=FileLogging true"`
	// FileName defaults to the executable name with a .log suffix.
	FileName   string `koanf:"file_name"`
	MaxBackups int    `koanf:"max_backups" validate:"min=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"min=0"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"min=0"`
}

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:          "info",
		WithTimestamp:  true,
		ConsoleLogging: true,
		MaxBackups:     3,
		MaxAgeDays:     7,
		MaxSizeMB:      10,
	}
}
