package orderdebug

import "sync"

// DuplicateDetector remembers the order ids seen by the new-order listener.
// The set lives for the process lifetime only; after a restart every id is new
// again.
type DuplicateDetector struct {
	mu   sync.Mutex
	seen map[int64]struct{}
}

func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{seen: make(map[int64]struct{})}
}

// ObserveAndCheck records orderID and reports whether it had been seen before.
func (d *DuplicateDetector) ObserveAndCheck(orderID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[orderID]; ok {
		return true
	}
	d.seen[orderID] = struct{}{}
	return false
}

func (d *DuplicateDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
