package server

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// RunTracker tracks in-flight verification runs so they can be canceled
// when a client disconnects or the server shuts down.
type RunTracker struct {
	mu     sync.Mutex
	runs   map[string]context.CancelFunc
	closed bool
}

// NewRunTracker creates an empty RunTracker.
func NewRunTracker() *RunTracker {
	return &RunTracker{runs: make(map[string]context.CancelFunc)}
}

// Start derives a cancellable context for a new run. The returned done func
// must be called when the run ends. After CloseAll, Start returns an already
// canceled context.
func (t *RunTracker) Start(parent context.Context) (ctx context.Context, id string, done func()) {
	ctx, cancel := context.WithCancel(parent)
	id = uuid.New().String()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		cancel()
		return ctx, id, func() {}
	}
	t.runs[id] = cancel
	return ctx, id, func() { t.Cancel(id) }
}

// Cancel stops a run and forgets it. Unknown ids are ignored.
func (t *RunTracker) Cancel(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cancel, ok := t.runs[id]; ok {
		cancel()
		delete(t.runs, id)
	}
}

// Active returns the number of runs in flight.
func (t *RunTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.runs)
}

// CloseAll cancels every run and refuses new ones.
func (t *RunTracker) CloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for id, cancel := range t.runs {
		cancel()
		delete(t.runs, id)
	}
}
