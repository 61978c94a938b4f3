package oplog

import (
	"io"
	"os"
	"path/filepath"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/utils"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	emptyString = ""

	errMsgNilService   = "Operational logger service is nil."
	errMsgNilConfig    = "Operational logger config is nil."
	errMsgNoChannels   = "No logging channels enabled."
	errMsgInvalidLevel = "Invalid logging level."
	errMsgLogDir       = "Failed to create operational log directory."
)

// Logger is the subset of the service the rest of the module depends on.
type Logger interface {
	DebugWith() LogEvent
	InfoWith() LogEvent
	WarnWith() LogEvent
	ErrorWith() LogEvent
}

type Service struct {
	Config *Config
	// Writer, when set, receives output in addition to the configured channels.
	Writer io.Writer

	logger      atomic.Pointer[zerolog.Logger]
	fileWriter  *lumberjack.Logger
	initialized atomic.Bool
}

// New returns a ready logger writing JSON lines to w at the given level.
func New(w io.Writer, level string) (*Service, error) {
	s := &Service{
		Config: &Config{Level: level},
		Writer: w,
	}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Nop returns a logger that discards everything.
func Nop() *Service {
	return &Service{}
}

// Initialize builds the zerolog logger from Config. Calling it twice is a no-op.
func (s *Service) Initialize() error {
	const op errors.Op = "oplog.Service.Initialize"
	if s == nil {
		return errors.New(op).Msg(errMsgNilService)
	}
	if s.initialized.Load() {
		return nil
	}
	if s.Config == nil {
		return errors.New(op).Msg(errMsgNilConfig)
	}

	level, err := parseLevel(s.Config.Level)
	if err != nil {
		return errors.New(op).Err(err).Msg(errMsgInvalidLevel)
	}

	var writers []io.Writer
	if s.Writer != nil {
		writers = append(writers, s.Writer)
	}
	if s.Config.FileLogging {
		if err = os.MkdirAll(s.Config.Dir, 0o755); err != nil {
			return errors.New(op).Err(err).Msg(errMsgLogDir)
		}
		s.fileWriter = s.rollingFileWriter()
		writers = append(writers, s.fileWriter)
	}
	if s.Config.ConsoleLogging {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, NoColor: s.Config.ConsoleNoColor})
	}
	if len(writers) == 0 {
		return errors.New(op).Msg(errMsgNoChannels)
	}

	logger := zerolog.New(io.MultiWriter(writers...)).Level(level)
	if s.Config.WithTimestamp {
		logger = logger.With().Timestamp().Logger()
	}

	s.logger.Store(&logger)
	s.initialized.Store(true)
	return nil
}

// Close releases the rolling file, if any. Safe to call more than once.
func (s *Service) Close() error {
	const op errors.Op = "oplog.Service.Close"
	if s == nil || !s.initialized.Swap(false) {
		return nil
	}
	s.logger.Store(nil)
	if s.fileWriter != nil {
		if err := s.fileWriter.Close(); err != nil {
			return errors.New(op).Err(err).Msg("Failed to close operational log file.")
		}
		s.fileWriter = nil
	}
	return nil
}

func (s *Service) rollingFileWriter() *lumberjack.Logger {
	name := s.Config.FileName
	if name == emptyString {
		exeName, err := utils.ExecName(true)
		if err != nil || exeName == emptyString {
			exeName = "orderdebug"
		}
		name = exeName + ".log"
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(s.Config.Dir, name),
		MaxBackups: s.Config.MaxBackups,
		MaxAge:     s.Config.MaxAgeDays,
		MaxSize:    s.Config.MaxSizeMB,
	}
}

func (s *Service) DebugWith() LogEvent { return s.event(zerolog.DebugLevel) }

func (s *Service) InfoWith() LogEvent { return s.event(zerolog.InfoLevel) }

func (s *Service) WarnWith() LogEvent { return s.event(zerolog.WarnLevel) }

func (s *Service) ErrorWith() LogEvent { return s.event(zerolog.ErrorLevel) }

// event returns a no-op LogEvent when the service is not ready or the level is disabled.
func (s *Service) event(level zerolog.Level) LogEvent {
	if s == nil || !s.initialized.Load() {
		return newLogEvent(nil)
	}
	logger := s.logger.Load()
	if logger == nil || logger.GetLevel() > level {
		return newLogEvent(nil)
	}
	return newLogEvent(logger.WithLevel(level))
}
