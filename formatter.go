package orderdebug

import "time"

// Formatter turns a message and its context into a text block.
// Zero values of Now and Stack fall back to time.Now and RuntimeStack.
type Formatter struct {
	Now   func() time.Time
	Stack StackCapturer
}

func NewFormatter() *Formatter {
	return &Formatter{Now: time.Now, Stack: RuntimeStack{}}
}

// Format renders a block. With includeBacktrace the stack is captured starting
// at the caller of Format.
func (f *Formatter) Format(message string, payload Payload, severity Severity, includeBacktrace bool) string {
	var trace []Frame
	if includeBacktrace {
		trace = f.stack().Capture(MaxBacktraceDepth)
		if trace == nil {
			trace = []Frame{}
		}
	}
	return LogEntry{
		Time:     f.now(),
		Severity: severity,
		Message:  message,
		Payload:  payload,
		Trace:    trace,
	}.Render()
}

func (f *Formatter) now() time.Time {
	if f == nil || f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func (f *Formatter) stack() StackCapturer {
	if f == nil || f.Stack == nil {
		return RuntimeStack{}
	}
	return f.Stack
}
