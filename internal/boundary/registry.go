// Package boundary hands tick records to callers outside Go as opaque handles.
//
// Every handle has exactly one owner. Clone produces a second handle and leaves the first
// valid; Release ends ownership of exactly one handle. Releasing a handle twice, or using it
// after release, is a caller bug: like runtime/cgo.Handle, the registry panics rather than
// trying to recover, since the caller's view of ownership is already wrong.
package boundary

import (
	"fmt"
	"sync"
)

// Handle is an opaque, non-zero token. The zero Handle is never issued.
type Handle uintptr

// Registry owns every record currently handed out. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	next    Handle
	records map[Handle]any
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[Handle]any)}
}

// Len is the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *Registry) put(v any) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.records[r.next] = v
	return r.next
}

func (r *Registry) get(h Handle) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.records[h]
	if !ok {
		panic(fmt.Sprintf("boundary: invalid handle %d", h))
	}
	return v
}

func (r *Registry) release(h Handle) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.records[h]
	if !ok {
		panic(fmt.Sprintf("boundary: release of invalid handle %d", h))
	}
	delete(r.records, h)
	return v
}

func lookup[T any](r *Registry, h Handle) T {
	v, ok := r.get(h).(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("boundary: handle %d is not a %T", h, zero))
	}
	return v
}

func releaseAs[T any](r *Registry, h Handle) {
	// Check the kind before removing so a wrong-kind release leaves the handle intact.
	lookup[T](r, h)
	r.release(h)
}

// cString renders s NUL-terminated for callers that expect a C string.
func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
