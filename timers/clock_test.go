package timers

import "sync"

// mockClock is a fake Clock a test advances manually, so bucket/item
// deadline math can be exercised without sleeping real wall-clock time.
type mockClock struct {
	mu  sync.Mutex
	now int64
}

func newMockClock(start int64) *mockClock {
	return &mockClock{now: start}
}

func (c *mockClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(delta int64) {
	c.mu.Lock()
	c.now += delta
	c.mu.Unlock()
}

// mockNativeTimer is a NativeTimer double that never actually schedules a
// goroutine: Arm just records the fire func and the requested delay, and the
// test fires it explicitly by calling Fire. This makes bucket/registry
// behavior (arm/rearm/close/ref/unref counts) deterministic and assertable.
type mockNativeTimer struct {
	mu       sync.Mutex
	delay    int64
	fire     func()
	stopped  bool
	closed   bool
	refed    bool
	liveness *ProcessLiveness
	arms     int
}

func newMockNativeTimerFactory(liveness *ProcessLiveness, reg *[]*mockNativeTimer) NativeTimerFactory {
	var mu sync.Mutex
	return func() NativeTimer {
		t := &mockNativeTimer{liveness: liveness}
		mu.Lock()
		*reg = append(*reg, t)
		mu.Unlock()
		return t
	}
}

func (t *mockNativeTimer) Arm(delayMs int64, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = delayMs
	t.fire = fire
	t.stopped = false
	t.arms++
}

func (t *mockNativeTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *mockNativeTimer) Close() {
	t.mu.Lock()
	t.closed = true
	t.stopped = true
	t.mu.Unlock()
	t.Unref()
}

func (t *mockNativeTimer) Ref() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refed || t.liveness == nil {
		return
	}
	t.refed = true
	t.liveness.add(1)
}

func (t *mockNativeTimer) Unref() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.refed || t.liveness == nil {
		return
	}
	t.refed = false
	t.liveness.add(-1)
}

// Fire invokes the last-armed callback directly, as if delay had elapsed.
// No-op if the timer was stopped/closed since it was armed.
func (t *mockNativeTimer) Fire() {
	t.mu.Lock()
	stopped := t.stopped
	fire := t.fire
	t.mu.Unlock()
	if stopped || fire == nil {
		return
	}
	fire()
}
