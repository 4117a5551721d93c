package alloc

import (
	"io"
	"sync"
)

// Locked serializes every call to an Allocator behind one mutex. The block
// list algorithm is unchanged; callers just never observe it mid-update.
//
// Payload slices returned by Bytes are not protected by the lock.
type Locked struct {
	mu sync.Mutex
	a  *Allocator
}

// NewLocked wraps a. The caller must stop using a directly.
func NewLocked(a *Allocator) *Locked {
	return &Locked{a: a}
}

func (l *Locked) Allocate(size int) (Ref, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Allocate(size)
}

func (l *Locked) Deallocate(ref Ref) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Deallocate(ref)
}

func (l *Locked) Reallocate(ref Ref, size int) (Ref, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Reallocate(ref, size)
}

func (l *Locked) ZeroAllocate(count, size int) (Ref, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.ZeroAllocate(count, size)
}

func (l *Locked) Bytes(ref Ref) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Bytes(ref)
}

func (l *Locked) UsedBytes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.UsedBytes()
}

func (l *Locked) FreeBytes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.FreeBytes()
}

func (l *Locked) HeapDump() []BlockInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.HeapDump()
}

func (l *Locked) Dump(w io.Writer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Dump(w)
}

func (l *Locked) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Stats()
}

func (l *Locked) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Verify()
}

// Do runs fn with the lock held, for sequences that must not interleave
// with other callers (for example allocate-then-fill).
func (l *Locked) Do(fn func(a *Allocator) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.a)
}

func (l *Locked) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.a.Close()
}
