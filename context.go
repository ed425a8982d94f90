package pumped

import "sync"

// depLog collects the signals read during one tracked evaluation.
// Entries are appended in read order and may repeat.
type depLog struct {
	reads []AnySignal
}

func (l *depLog) record(sig AnySignal) {
	l.reads = append(l.reads, sig)
}

// distinct returns the logged signals without repeats, in first-read order
func (l *depLog) distinct() []AnySignal {
	if len(l.reads) == 0 {
		return nil
	}

	seen := make(map[uint64]struct{}, len(l.reads))
	out := make([]AnySignal, 0, len(l.reads))
	for _, sig := range l.reads {
		if _, ok := seen[sig.ID()]; ok {
			continue
		}
		seen[sig.ID()] = struct{}{}
		out = append(out, sig)
	}
	return out
}

func (l *depLog) reset() {
	clear(l.reads)
	l.reads = l.reads[:0]
}

// tracker is the process-wide dynamic scope: a stack of dependency logs
// where the top entry receives reads, whatever scope the read signal
// belongs to. A nil entry marks an untracked frame.
//
// The stack is shared by every goroutine. Tracked evaluations running
// concurrently on different goroutines interleave their frames, so tracked
// evaluation must stay on one goroutine at a time.
type tracker struct {
	mu    sync.Mutex
	stack []*depLog
}

var tracking tracker

func (t *tracker) push(l *depLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stack = append(t.stack, l)
}

func (t *tracker) pop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stack[len(t.stack)-1] = nil
	t.stack = t.stack[:len(t.stack)-1]
}

func (t *tracker) active() *depLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

func (t *tracker) depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stack)
}

// TrackingDepth returns the number of evaluation frames currently installed
func TrackingDepth() int {
	return tracking.depth()
}

// withLog installs l for the duration of fn. The previous frame is
// restored on every exit path, including a panic in fn.
func withLog[T any](l *depLog, fn func() T) T {
	tracking.push(l)
	defer tracking.pop()
	return fn()
}

func untracked[T any](fn func() T) T {
	return withLog(nil, fn)
}
