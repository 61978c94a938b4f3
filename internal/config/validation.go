package config

import (
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/go-playground/validator/v10"
)

const (
	errMsgNilConfig     = "Configuration is nil."
	errMsgConfigInvalid = "Configuration is invalid."
)

var validate *validator.Validate
var once sync.Once

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	const op errors.Op = "config.Validate"
	if cfg == nil {
		return errors.New(op).Msg(errMsgNilConfig)
	}

	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	if err := validate.Struct(cfg); err != nil {
		return errors.New(op).Err(err).Msg(errMsgConfigInvalid)
	}
	return nil
}
