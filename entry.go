package orderdebug

import (
	"strconv"
	"strings"
	"time"
)

// Severity classifies a block for display only; it never filters.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
	SeverityEmail Severity = "email"
)

// Label is the uppercase tag printed in a block header. Empty means info.
func (s Severity) Label() string {
	if s == emptyString {
		s = SeverityInfo
	}
	return strings.ToUpper(string(s))
}

// Frame is one call-stack entry of a backtrace.
type Frame struct {
	File      string
	Line      int
	Qualifier string
	Function  string
}

// LogEntry is one block of the debug log. A nil Trace omits the Backtrace
// section; an empty non-nil Trace prints the header alone.
type LogEntry struct {
	Time     time.Time
	Severity Severity
	Message  string
	Payload  Payload
	Trace    []Frame
}

// Render produces the text block, terminated by the separator line.
func (e LogEntry) Render() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(e.Time.Format(TimestampLayout))
	b.WriteString("] [")
	b.WriteString(e.Severity.Label())
	b.WriteString("] ")
	b.WriteString(e.Message)
	b.WriteByte('\n')

	if len(e.Payload) > 0 {
		b.WriteString("Data:\n")
		renderPayload(&b, e.Payload)
	}

	if e.Trace != nil {
		b.WriteString("Backtrace:\n")
		for i, f := range e.Trace {
			b.WriteByte('#')
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteByte(' ')
			b.WriteString(f.File)
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(f.Line))
			b.WriteString(" - ")
			b.WriteString(f.Qualifier)
			b.WriteString(f.Function)
			b.WriteString("()\n")
		}
	}

	b.WriteString(Separator)
	b.WriteByte('\n')
	return b.String()
}
