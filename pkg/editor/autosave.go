package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is how long the scheduler waits after the last mutation
// before saving.
const DefaultDebounce = 2 * time.Second

// SaveFunc performs one persistence attempt.
type SaveFunc func(ctx context.Context) error

// Autosave debounces graph mutations into save attempts. It moves through
// four states: idle, pending (timer armed), saving (request in flight) and
// dirty-while-saving. At most one save is ever in flight: the timer and
// Flush share the same guard, and a mutation landing during a save re-arms
// the debounce only after the in-flight request resolves. A failed save is
// logged and left for the next debounce cycle; it is never retried on its
// own and never rolls local state back.
type Autosave struct {
	mu      sync.Mutex
	delay   time.Duration
	save    SaveFunc
	timer   *time.Timer
	saving  bool
	dirty   bool // mutation arrived while a save was in flight
	primed  bool // first Notify after Reset is swallowed (load side-effect)
	stopped bool
}

// NewAutosave builds a scheduler around save. A non-positive delay falls
// back to DefaultDebounce.
func NewAutosave(delay time.Duration, save SaveFunc) *Autosave {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Autosave{delay: delay, save: save}
}

// Reset cancels any pending timer and swallows the next Notify. Call it
// right before populating editor state from a load, so the load itself
// cannot trigger a save.
func (a *Autosave) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelTimerLocked()
	a.dirty = false
	a.primed = false
}

// Notify records a mutation. The first call after Reset is the load
// side-effect and arms nothing; later calls re-arm the debounce timer, or
// mark the state dirty when a save is already in flight.
func (a *Autosave) Notify() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if !a.primed {
		a.primed = true
		return
	}
	if a.saving {
		a.dirty = true
		return
	}
	a.armLocked()
}

// Flush runs a save immediately, cancelling any pending timer. It shares
// the in-flight guard with the timer path: if a save is already running the
// state is marked dirty and Flush returns without a second request.
func (a *Autosave) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	if a.saving {
		a.dirty = true
		a.mu.Unlock()
		return nil
	}
	a.cancelTimerLocked()
	a.saving = true
	a.mu.Unlock()

	err := a.save(ctx)
	a.finish(err)
	return err
}

// Stop cancels the pending timer and prevents any future arms. An in-flight
// save is not awaited; delivery is best-effort on teardown.
func (a *Autosave) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.cancelTimerLocked()
}

func (a *Autosave) armLocked() {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosave) cancelTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// fire is the timer callback: it claims the in-flight guard and runs one
// save attempt.
func (a *Autosave) fire() {
	a.mu.Lock()
	if a.stopped || a.saving {
		a.mu.Unlock()
		return
	}
	a.saving = true
	a.timer = nil
	a.mu.Unlock()

	err := a.save(context.Background())
	a.finish(err)
}

// finish releases the guard and, if mutations landed mid-save, arms a new
// debounce cycle so the follow-up save carries the latest state.
func (a *Autosave) finish(err error) {
	if err != nil {
		slog.Warn("autosave failed", "error", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.saving = false
	if a.dirty && !a.stopped {
		a.dirty = false
		a.armLocked()
	}
}
