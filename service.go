package orderdebug

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/orderdebug/internal/metrics"
	"github.com/Station-Manager/orderdebug/internal/oplog"
	"go.uber.org/atomic"
)

// Service owns the debugger state: the category switches, the seen order ids
// and the log file. Construct one per process and pass it to whatever
// registers handlers.
type Service struct {
	LogFile string
	// Store persists the settings; nil keeps them in memory only.
	Store OptionStore
	// Probe checks the host order system; nil assumes it is present.
	Probe     HostProbe
	Logger    oplog.Logger
	Formatter *Formatter

	filter      *CategoryFilter
	seen        *DuplicateDetector
	appender    *FileAppender
	active      atomic.Bool
	initialized atomic.Bool
}

// Initialize loads the settings once and probes the host. A missing host
// disables the service with a single warning; it is not an error. Calling it
// twice is a no-op.
func (s *Service) Initialize(ctx context.Context) error {
	const op errors.Op = "orderdebug.Service.Initialize"
	if s == nil {
		return errors.New(op).Msg(errMsgNilService)
	}
	if s.initialized.Load() {
		return nil
	}
	if s.LogFile == emptyString {
		return errors.New(op).Msg(errMsgNoLogFile)
	}
	if s.Logger == nil {
		s.Logger = oplog.Nop()
	}
	if s.Formatter == nil {
		s.Formatter = NewFormatter()
	}

	if err := os.MkdirAll(filepath.Dir(s.LogFile), 0o755); err != nil {
		return errors.New(op).Err(err).Msg(errMsgLogDir)
	}

	s.appender = NewFileAppender(s.LogFile, s.Logger)
	s.seen = NewDuplicateDetector()
	s.filter = NewCategoryFilter(s.loadSettings(ctx))

	active := true
	if s.Probe != nil {
		if err := s.Probe.Probe(ctx); err != nil {
			s.Logger.WarnWith().Err(err).
				Msg("Order debug requires the order management system to be installed and active; logging is disabled.")
			active = false
		}
	}
	s.active.Store(active)
	s.initialized.Store(true)

	s.Logger.InfoWith().Str("log_file", s.LogFile).Bool("active", active).Msg("Order debug initialized.")
	return nil
}

// loadSettings never fails: unreadable settings are reported and defaults used.
func (s *Service) loadSettings(ctx context.Context) Settings {
	if s.Store == nil {
		return DefaultSettings()
	}
	raw, found, err := s.Store.GetOption(ctx, SettingsOptionName)
	if err != nil {
		s.Logger.WarnWith().Err(err).Msg("Unable to read debug settings; using defaults.")
		return DefaultSettings()
	}
	if !found {
		return DefaultSettings()
	}
	settings, err := DecodeSettings(raw)
	if err != nil {
		s.Logger.WarnWith().Err(err).Msg("Debug settings partially unreadable; defaults applied to the rest.")
	}
	return settings
}

// Active reports whether handlers are registered on Register.
func (s *Service) Active() bool {
	return s != nil && s.initialized.Load() && s.active.Load()
}

// Register binds one handler per event kind and returns how many were bound.
// An inactive service registers nothing.
func (s *Service) Register(reg Registrar) int {
	if !s.Active() || reg == nil {
		return 0
	}
	for _, kind := range eventKinds {
		reg.On(kind, s.handle)
	}
	return len(eventKinds)
}

// Settings returns a copy of the current switches.
func (s *Service) Settings() Settings {
	if s == nil || !s.initialized.Load() {
		return DefaultSettings()
	}
	return s.filter.Settings()
}

// UpdateSettings replaces all switches. The store is written first; when that
// fails the in-memory switches stay as they were.
func (s *Service) UpdateSettings(ctx context.Context, settings Settings) error {
	const op errors.Op = "orderdebug.Service.UpdateSettings"
	if s == nil || !s.initialized.Load() {
		return errors.New(op).Msg(errMsgNotReady)
	}
	settings = settings.Clone()
	if s.Store != nil {
		data, err := settings.Encode()
		if err != nil {
			return errors.New(op).Err(err).Msg(errMsgSaveSettings)
		}
		if err = s.Store.SetOption(ctx, SettingsOptionName, data); err != nil {
			return errors.New(op).Err(err).Msg(errMsgSaveSettings)
		}
	}
	s.filter.Replace(settings)
	s.Logger.InfoWith().Interface("settings", settings).Msg("Debug settings updated.")
	return nil
}

// ClearLog deletes the contents of the debug log.
func (s *Service) ClearLog() error {
	const op errors.Op = "orderdebug.Service.ClearLog"
	if s == nil || !s.initialized.Load() {
		return errors.New(op).Msg(errMsgNotReady)
	}
	if err := s.appender.Clear(); err != nil {
		return err
	}
	s.Logger.InfoWith().Str("log_file", s.LogFile).Msg("Debug log cleared.")
	return nil
}

// LogContents returns the debug log, or ErrNoEntries when it is empty or absent.
func (s *Service) LogContents() (string, error) {
	const op errors.Op = "orderdebug.Service.LogContents"
	if s == nil || !s.initialized.Load() {
		return emptyString, errors.New(op).Msg(errMsgNotReady)
	}
	return s.appender.Contents()
}

// SeenOrders is the number of distinct order ids observed since start.
func (s *Service) SeenOrders() int {
	if s == nil || !s.initialized.Load() {
		return 0
	}
	return s.seen.Len()
}

// Close marks the service inactive. Safe to call more than once.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	s.active.Store(false)
	return nil
}

// write formats and appends one block. Append failures are reported by the
// appender and never returned to the caller.
func (s *Service) write(message string, payload Payload, severity Severity) {
	block := s.Formatter.Format(message, payload, severity, s.filter.IsEnabled(CategoryBacktrace))
	if err := s.appender.Append(block); err != nil {
		return
	}
	if severity == emptyString {
		severity = SeverityInfo
	}
	metrics.EntriesWritten.WithLabelValues(string(severity)).Inc()
}

// enabled checks c and counts the event as skipped when it is switched off.
func (s *Service) enabled(c Category) bool {
	if s.filter.IsEnabled(c) {
		return true
	}
	metrics.EventsSkipped.WithLabelValues(string(c)).Inc()
	return false
}
