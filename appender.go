package orderdebug

import (
	stderrs "errors"
	"io/fs"
	"os"

	"github.com/Station-Manager/errors"
	"github.com/Station-Manager/orderdebug/internal/metrics"
	"github.com/Station-Manager/orderdebug/internal/oplog"
	"go.uber.org/atomic"
)

// ErrNoEntries is returned by Contents when the log file does not exist.
var ErrNoEntries = stderrs.New("no log entries yet")

// FileAppender writes blocks to the debug log. The file is opened and closed
// on every call and no lock is taken, so concurrent writers may interleave.
type FileAppender struct {
	Path   string
	Logger oplog.Logger

	// set while writes fail; only the first failure is reported
	failing atomic.Bool
}

func NewFileAppender(path string, logger oplog.Logger) *FileAppender {
	return &FileAppender{Path: path, Logger: logger}
}

// Append writes block in a single write. A failure is reported to the
// operational log once, until a later write succeeds.
func (a *FileAppender) Append(block string) error {
	const op errors.Op = "orderdebug.FileAppender.Append"

	f, err := os.OpenFile(a.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err == nil {
		_, err = f.WriteString(block)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}

	if err != nil {
		metrics.WriteFailures.Inc()
		if a.failing.CompareAndSwap(false, true) {
			a.logger().WarnWith().Err(err).Str("path", a.Path).
				Msg("Debug log is not writable; further failures are suppressed until a write succeeds.")
		}
		return errors.New(op).Err(err).Msg(errMsgAppend)
	}

	if a.failing.CompareAndSwap(true, false) {
		a.logger().InfoWith().Str("path", a.Path).Msg("Debug log is writable again.")
	}
	return nil
}

// Clear deletes the log file. A missing file is not an error.
func (a *FileAppender) Clear() error {
	const op errors.Op = "orderdebug.FileAppender.Clear"
	if err := os.Remove(a.Path); err != nil && !stderrs.Is(err, fs.ErrNotExist) {
		return errors.New(op).Err(err).Msg(errMsgClear)
	}
	return nil
}

// Contents returns the whole log, or ErrNoEntries when it is missing or empty.
func (a *FileAppender) Contents() (string, error) {
	const op errors.Op = "orderdebug.FileAppender.Contents"
	data, err := os.ReadFile(a.Path)
	if err != nil {
		if stderrs.Is(err, fs.ErrNotExist) {
			return emptyString, ErrNoEntries
		}
		return emptyString, errors.New(op).Err(err).Msg(errMsgRead)
	}
	if len(data) == 0 {
		return emptyString, ErrNoEntries
	}
	return string(data), nil
}

func (a *FileAppender) logger() oplog.Logger {
	if a.Logger == nil {
		return oplog.Nop()
	}
	return a.Logger
}
