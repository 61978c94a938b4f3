package config

import (
	"os"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override file values:
// ORDERDEBUG_KAFKA_GROUP_ID sets kafka.group_id, ORDERDEBUG_LOG_FILE sets log_file.
const EnvPrefix = "ORDERDEBUG_"

const maxConfigFileSize = 1024 * 1024

const (
	errMsgReadFile  = "Failed to read configuration file."
	errMsgTooLarge  = "Configuration file is too large."
	errMsgParse     = "Failed to parse configuration file."
	errMsgEnv       = "Failed to load environment overrides."
	errMsgUnmarshal = "Failed to unmarshal configuration."
)

// sections whose env keys split into section.field
var sections = map[string]bool{
	"admin":   true,
	"kafka":   true,
	"logging": true,
}

// Load reads the YAML file at path, when given and present, then applies
// environment overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	const op errors.Op = "config.Load"
	k := koanf.New(".")

	if path != "" {
		content, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if content != nil {
			if err = k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, errors.New(op).Err(err).Msg(errMsgParse)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgEnv)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgUnmarshal)
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readFile returns nil content for a missing file.
func readFile(path string) ([]byte, error) {
	const op errors.Op = "config.readFile"
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgReadFile)
	}
	if info.Size() > maxConfigFileSize {
		return nil, errors.New(op).Msg(errMsgTooLarge)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgReadFile)
	}
	return content, nil
}

// envKey maps ORDERDEBUG_KAFKA_GROUP_ID to kafka.group_id. Keys outside the
// known sections stay top level.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 2 && sections[parts[0]] {
		return parts[0] + "." + parts[1]
	}
	return lower
}
