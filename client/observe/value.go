// Package observe holds a minimal observable value container. Session state
// (logged-in flag, current user) and presence are owned by explicit instances
// of these instead of package-level globals, so their lifecycle follows the
// session that created them.
package observe

import "sync"

// Value holds a T and notifies subscribers on every Set.
type Value[T any] struct {
	mu   sync.Mutex
	v    T
	subs map[int]func(T)
	next int
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[int]func(T))}
}

func (o *Value[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Set stores the new value and notifies subscribers. Callbacks run outside
// the lock, so they may call back into the Value.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	o.v = v
	fns := make([]func(T), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe registers fn for future updates and returns a cancel func.
func (o *Value[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}
