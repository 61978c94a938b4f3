package orderdebug

import (
	"path/filepath"
	"runtime"
	"strings"
)

// RuntimeStack captures frames with runtime.Callers.
type RuntimeStack struct{}

func (RuntimeStack) Capture(maxDepth int) []Frame {
	frames := make([]Frame, 0, maxDepth)
	if maxDepth <= 0 {
		return frames
	}
	// runtime.Callers, Capture, and Capture's caller
	const skip = 3
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return frames
	}
	iter := runtime.CallersFrames(pcs[:n])
	for len(frames) < maxDepth {
		f, more := iter.Next()
		frames = append(frames, newFrame(f))
		if !more {
			break
		}
	}
	return frames
}

func newFrame(f runtime.Frame) Frame {
	qualifier, function := splitFunction(f.Function)
	return Frame{
		File:      filepath.Base(f.File),
		Line:      f.Line,
		Qualifier: qualifier,
		Function:  function,
	}
}

// splitFunction turns "github.com/a/b.(*T).M" into ("b.(*T).", "M").
func splitFunction(name string) (qualifier, function string) {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return emptyString, name
	}
	return name[:i+1], name[i+1:]
}
