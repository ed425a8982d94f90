// Package sim is a small observable simulation model: motes with positions
// and memory, a tick clock and a radio medium. Every entity announces
// changes through payload-free observer callbacks.
package sim

import "sync"

// Observers is an ordered list of change callbacks
type Observers struct {
	mu  sync.Mutex
	fns []func()
}

// AddObserver registers fn to run on every Notify
func (o *Observers) AddObserver(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fns = append(o.fns, fn)
}

// Notify calls every observer in registration order. Observers run outside
// the lock and may register further observers.
func (o *Observers) Notify() {
	o.mu.Lock()
	fns := make([]func(), len(o.fns))
	copy(fns, o.fns)
	o.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of registered observers
func (o *Observers) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.fns)
}
