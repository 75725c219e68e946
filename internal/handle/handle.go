// Package handle wraps native display-server resources so their release
// function runs exactly once.
//
// Go has no destructors, so the idiom is to acquire a handle and defer its
// Close on the next line. Close is idempotent: the first call runs the
// release function and records its result, later calls return that result.
//
// None of the types here are safe for concurrent use. xprobe drives every
// handle from a single goroutine.
package handle

import (
	"errors"
	"fmt"
)

// Scoped exclusively owns a raw handle.
type Scoped[T any] struct {
	raw      T
	release  func(T) error
	released bool
	err      error
}

// Acquire takes ownership of raw. release is called once, on the first Close.
func Acquire[T any](raw T, release func(T) error) *Scoped[T] {
	return &Scoped[T]{raw: raw, release: release}
}

// Get returns the raw handle without transferring ownership.
func (s *Scoped[T]) Get() T {
	return s.raw
}

// Released reports whether Close has already run.
func (s *Scoped[T]) Released() bool {
	return s.released
}

// Close releases the handle. Calling it again returns the first result.
func (s *Scoped[T]) Close() error {
	if s == nil {
		return nil
	}
	if s.released {
		return s.err
	}
	s.released = true
	if s.release != nil {
		s.err = s.release(s.raw)
	}
	return s.err
}

type sharedCore[T any] struct {
	raw      T
	release  func(T) error
	refs     int
	released bool
	err      error
}

// Shared is one holder's reference to a reference-counted raw handle.
// The release function runs when the last holder closes its reference.
type Shared[T any] struct {
	core   *sharedCore[T]
	closed bool
}

// Share wraps raw in a reference count of one and returns that reference.
func Share[T any](raw T, release func(T) error) *Shared[T] {
	return &Shared[T]{core: &sharedCore[T]{raw: raw, release: release, refs: 1}}
}

// Get returns the raw handle. It stays valid for as long as any holder
// keeps its reference open.
func (s *Shared[T]) Get() T {
	return s.core.raw
}

// Clone registers a new holder. Cloning a closed reference panics: the
// caller no longer owns anything it could share.
func (s *Shared[T]) Clone() *Shared[T] {
	if s.closed || s.core.released {
		panic("handle: clone of closed shared handle")
	}
	s.core.refs++
	return &Shared[T]{core: s.core}
}

// Refs returns the number of open holders.
func (s *Shared[T]) Refs() int {
	return s.core.refs
}

// Released reports whether the underlying resource has been released.
func (s *Shared[T]) Released() bool {
	return s.core.released
}

// Close drops this holder's reference. The last Close releases the
// resource and returns the release result; earlier ones return nil.
func (s *Shared[T]) Close() error {
	if s == nil {
		return nil
	}
	if s.closed {
		if s.core.released {
			return s.core.err
		}
		return nil
	}
	s.closed = true
	s.core.refs--
	if s.core.refs > 0 {
		return nil
	}
	s.core.released = true
	if s.core.release != nil {
		s.core.err = s.core.release(s.core.raw)
	}
	return s.core.err
}

// Dependent owns a raw handle whose release needs a second, shared
// resource to still be alive (an X font needs its connection, for one).
// It holds its own reference on that resource and drops it only after
// releasing the raw handle.
type Dependent[T, D any] struct {
	dep    *Shared[D]
	scoped *Scoped[T]
	err    error
}

// AcquireWith takes ownership of raw and clones dep.
func AcquireWith[T, D any](raw T, dep *Shared[D], release func(D, T) error) *Dependent[T, D] {
	ref := dep.Clone()
	return &Dependent[T, D]{
		dep: ref,
		scoped: Acquire(raw, func(t T) error {
			return release(ref.Get(), t)
		}),
	}
}

// Get returns the raw handle.
func (d *Dependent[T, D]) Get() T {
	return d.scoped.Get()
}

// Dep returns the resource this handle depends on.
func (d *Dependent[T, D]) Dep() D {
	return d.dep.Get()
}

// Released reports whether Close has already run.
func (d *Dependent[T, D]) Released() bool {
	return d.scoped.Released()
}

// Close releases the raw handle and then drops the dependency reference.
func (d *Dependent[T, D]) Close() error {
	if d == nil {
		return nil
	}
	if d.scoped.Released() {
		return d.err
	}
	relErr := d.scoped.Close()
	depErr := d.dep.Close()
	if depErr != nil {
		depErr = fmt.Errorf("release dependency: %w", depErr)
	}
	d.err = errors.Join(relErr, depErr)
	return d.err
}
