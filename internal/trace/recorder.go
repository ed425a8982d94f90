package trace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pumped "github.com/pumped-fn/pumped-react"
)

// Recorder turns watch changes into trace entries. Changes are buffered
// as they happen and written by Flush.
type Recorder struct {
	store *Store
	id    uuid.UUID
	tick  func() int64
	now   func() time.Time

	mu      sync.Mutex
	seq     int64
	pending []Entry
	errs    []error
}

// NewRecorder starts a new recording for scenario. tick reports the
// simulation time stamped on each entry.
func NewRecorder(ctx context.Context, store *Store, scenario string, tick func() int64) (*Recorder, error) {
	id, err := store.BeginRecording(ctx, scenario, time.Now())
	if err != nil {
		return nil, err
	}

	return &Recorder{
		store: store,
		id:    id,
		tick:  tick,
		now:   time.Now,
	}, nil
}

// ID returns the recording id
func (r *Recorder) ID() uuid.UUID {
	return r.id
}

// Watch records sig's current value and every later change under name
func Watch[T any](r *Recorder, name string, sig pumped.Signal[T]) pumped.Cleanup {
	r.record(name, sig.Now())
	return sig.Observe(func(v T) {
		r.record(name, v)
	})
}

// WatchStream records every value fired by st under name
func WatchStream[T any](r *Recorder, name string, st *pumped.Stream[T]) pumped.Cleanup {
	return st.Observe(func(v T) {
		r.record(name, v)
	})
}

// Pending returns the number of buffered entries
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush writes the buffered entries. Values that could not be encoded are
// reported here too.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	pending := r.pending
	errs := r.errs
	r.pending = nil
	r.errs = nil
	r.mu.Unlock()

	if err := r.store.Append(ctx, pending...); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Recorder) record(name string, v any) {
	encoded, err := json.MarshalToString(v)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("encoding %s: %w", name, err))
		return
	}

	r.seq++
	r.pending = append(r.pending, Entry{
		Recording:  r.id,
		Seq:        r.seq,
		Tick:       r.tick(),
		Watch:      name,
		Value:      encoded,
		RecordedAt: r.now(),
	})
}
