package orderdebug

import "context"

// OptionStore is the persisted configuration store. Values are opaque bytes
// keyed by option name.
type OptionStore interface {
	GetOption(ctx context.Context, name string) (value []byte, found bool, err error)
	SetOption(ctx context.Context, name string, value []byte) error
}

// HostProbe reports whether the host order-management system is present.
// A non-nil error disables the whole subsystem.
type HostProbe interface {
	Probe(ctx context.Context) error
}

// StackCapturer returns up to maxDepth frames of the current goroutine's stack,
// innermost first, excluding Capture and the function that called it.
type StackCapturer interface {
	Capture(maxDepth int) []Frame
}

// Registrar accepts one handler per event kind.
type Registrar interface {
	On(kind EventKind, h Handler)
}
