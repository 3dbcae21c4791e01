package timing

import (
	"sync"

	"github.com/kercylan98/evtimer/timers"
)

// Timer is a single scheduled facade task: the return value of
// After/AfterFunc/Loop/Cron, stoppable independent of the scheduler's own
// bucket bookkeeping.
type Timer interface {
	// Stop cancels the timer. Returns false if it was already stopped.
	Stop() bool

	// Stopped reports whether Stop has been called.
	Stopped() bool
}

func newTimer() *timerImpl {
	return &timerImpl{}
}

// timerImpl wraps the *timers.Timeout backing a facade Timer. Loop and Cron
// replace it on every re-arm, so handle access is guarded rather than
// immutable like the rest of the package's value types.
type timerImpl struct {
	mu      sync.Mutex
	handle  *timers.Timeout
	stopped bool
}

// setHandle installs the current *timers.Timeout backing this Timer. If
// Stop was already called, the incoming handle is closed immediately
// instead of being installed, so a Loop/Cron re-arm race never resurrects a
// stopped timer.
func (t *timerImpl) setHandle(h *timers.Timeout) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		h.Close()
		return
	}
	t.handle = h
}

func (t *timerImpl) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	if t.handle != nil {
		t.handle.Close()
	}
	return true
}

func (t *timerImpl) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
