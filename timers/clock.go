package timers

import (
	"sync"
	"time"

	chrono "github.com/kercylan98/evtimer"
)

// Clock supplies the monotonic "now" the scheduler stamps activations with.
// Tests substitute a fake clock; production code uses SystemClock.
type Clock interface {
	// Now returns the current monotonic time in milliseconds.
	Now() int64
}

// SystemClock is the production Clock: the wall-clock milliseconds of the
// first reading (converted with the ambient chrono package's millisecond
// helper) plus the monotonic time elapsed since, so wall-clock adjustments
// never move it backwards.
type SystemClock struct{}

var systemClockEpoch = time.Now()

func (SystemClock) Now() int64 {
	return chrono.TimeToMillisecond(systemClockEpoch) + time.Since(systemClockEpoch).Milliseconds()
}

// NativeTimer is the collaborator contract of §4.A: one armed fire callback
// slot, arm/stop/close, and ref/unref toggling of process liveness.
type NativeTimer interface {
	// Arm schedules fire to run once, delay milliseconds from now. A delay of
	// 0 means "as soon as possible, but not synchronously".
	Arm(delayMs int64, fire func())
	// Stop cancels a pending fire without releasing the handle.
	Stop()
	// Close stops and releases the handle.
	Close()
	// Ref marks the handle as keeping the process alive.
	Ref()
	// Unref marks the handle as not keeping the process alive.
	Unref()
}

// NativeTimerFactory creates a fresh NativeTimer, one per bucket or per
// migrated unref'd one-shot. Production code uses NewRealNativeTimer;
// tests inject a factory backed by a MockClock.
type NativeTimerFactory func() NativeTimer

// NewRealNativeTimer returns a NativeTimer backed by time.AfterFunc, the same
// approach the retrieved grafana/k6 tc55 timers implementation uses for this
// exact problem (one time.AfterFunc per pending head timer, rearmed on every
// drain).
func NewRealNativeTimer(liveness *ProcessLiveness) NativeTimer {
	return &realNativeTimer{liveness: liveness}
}

type realNativeTimer struct {
	mu       sync.Mutex
	timer    *time.Timer
	liveness *ProcessLiveness
	refed    bool
}

func (t *realNativeTimer) Arm(delayMs int64, fire func()) {
	if delayMs < 0 {
		delayMs = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(time.Duration(delayMs)*time.Millisecond, fire)
}

func (t *realNativeTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *realNativeTimer) Close() {
	t.Stop()
	t.Unref()
}

func (t *realNativeTimer) Ref() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refed || t.liveness == nil {
		return
	}
	t.refed = true
	t.liveness.add(1)
}

func (t *realNativeTimer) Unref() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.refed || t.liveness == nil {
		return
	}
	t.refed = false
	t.liveness.add(-1)
}

// ProcessLiveness tracks how many armed native timers currently keep the
// host process alive. A host event loop polls Count() == 0 the way it would
// poll an active-handle count, instead of the process.
type ProcessLiveness struct {
	mu       sync.Mutex
	count    int
	onChange func(int)
}

func (p *ProcessLiveness) add(delta int) {
	p.mu.Lock()
	p.count += delta
	n := p.count
	cb := p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb(n)
	}
}

// Count returns the number of ref'd handles currently keeping the process alive.
func (p *ProcessLiveness) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}
