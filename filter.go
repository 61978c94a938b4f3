package orderdebug

import "sync"

// CategoryFilter is the process-wide set of category switches.
type CategoryFilter struct {
	mu       sync.RWMutex
	settings Settings
}

func NewCategoryFilter(s Settings) *CategoryFilter {
	return &CategoryFilter{settings: s.Clone()}
}

// IsEnabled reports whether events of category c are logged.
func (f *CategoryFilter) IsEnabled(c Category) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.settings.Enabled(c)
}

// LogsHook reports whether the named host action or filter is listed.
func (f *CategoryFilter) LogsHook(kind HookKind, name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	switch kind {
	case HookAction:
		return f.settings.LogsAction(name)
	case HookFilter:
		return f.settings.LogsFilter(name)
	default:
		return false
	}
}

// Settings returns a copy of the current switches.
func (f *CategoryFilter) Settings() Settings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.settings.Clone()
}

// Replace swaps in a complete set of switches.
func (f *CategoryFilter) Replace(s Settings) {
	s = s.Clone()
	f.mu.Lock()
	f.settings = s
	f.mu.Unlock()
}
