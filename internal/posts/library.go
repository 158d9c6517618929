package posts

import (
	"sync"
	"sync/atomic"
)

// Library owns the current post collection. Readers get a consistent
// snapshot without locking; Reload replaces the snapshot wholesale.
type Library struct {
	loader *Loader

	mu      sync.Mutex // serializes Reload
	current atomic.Pointer[Collection]
	last    atomic.Pointer[Report]
}

// NewLibrary creates a library backed by loader. Call Reload to populate it.
func NewLibrary(loader *Loader) *Library {
	lib := &Library{loader: loader}
	lib.current.Store(NewCollection(nil))
	return lib
}

// Reload runs a full load and publishes the result.
func (lib *Library) Reload() *Report {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	report := lib.loader.Load()
	lib.current.Store(report.Collection)
	lib.last.Store(report)
	return report
}

// Snapshot returns the current collection. It is never nil.
func (lib *Library) Snapshot() *Collection {
	return lib.current.Load()
}

// LastReport returns the report of the most recent Reload, or nil.
func (lib *Library) LastReport() *Report {
	return lib.last.Load()
}
