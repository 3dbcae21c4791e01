package timers

import "time"

// Timeout is the handle returned by SetTimeout/SetInterval: the public face
// of the internal item, letting a caller Ref/Unref/Close it without seeing
// the bucket/list machinery underneath (§6).
type Timeout struct {
	it    *item
	sched *Scheduler
}

// ID returns this timer's debug correlation id. The id is not added to log
// fields or metrics labels.
func (t *Timeout) ID() string {
	return t.it.id
}

// Unref detaches this timer from its shared duration bucket onto a private
// native timer that does not keep the process alive (§4.F's ref/unref
// transitions). Like active()/insertLocked, migrating restarts the full
// idleTimeout window rather than preserving whatever was left on the shared
// bucket's clock. A one-shot that has already fired is unenrolled instead.
// A no-op if the timer already has a private handle.
func (t *Timeout) Unref() {
	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()

	it := t.it
	if it.called && it.repeat == nil {
		s.unenrollLocked(it)
		return
	}
	if it.handle != nil {
		it.handle.Unref()
		return
	}
	if !it.linked() {
		return
	}

	b := it.bucket
	b.items.remove(it.elem)
	it.elem = nil
	it.bucket = nil
	if !b.unrefed && b.items.isEmpty() {
		s.registry.drop(s, b)
	}

	handle := s.newNativeTimer()
	handle.Unref()
	it.handle = handle
	it.idleStart = s.clock.Now()
	it.idleStartSet = true
	handle.Arm(it.idleTimeout, func() { s.onFireItem(it) })
}

// Ref moves a previously-Unref'd timer back onto its shared, process-keeping
// bucket. A no-op if the timer was never Unref'd or is a one-shot that has
// already fired.
func (t *Timeout) Ref() {
	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()

	it := t.it
	if it.handle == nil || it.linked() || (it.called && it.repeat == nil) {
		return
	}

	it.handle.Close()
	it.handle = nil

	b := s.registry.getOrCreate(s, it.idleTimeout, false)
	it.idleStart = s.clock.Now()
	it.idleStartSet = true
	it.elem = b.items.append(it)
	it.bucket = b
}

// Close cancels the timer. Equivalent to ClearTimeout/ClearInterval called
// on it; safe to call more than once and on an already-fired one-shot.
func (t *Timeout) Close() {
	s := t.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	t.it.onTimeout = nil
	t.it.repeat = nil
	s.unenrollLocked(t.it)
}

// SetTimeout schedules cb to run once, after the given delay (§4.F). A
// non-positive or excessively large delay coerces to 1ms, matching the
// source runtime's historical setTimeout(fn, -1) behavior.
func (s *Scheduler) SetTimeout(cb func(), after time.Duration, domain Domain) (*Timeout, error) {
	if cb == nil {
		return nil, newTypeError("setTimeout's callback isn't a callable function")
	}

	ms := clampDelay(after.Milliseconds(), s.timeoutMax())
	it := newItem()
	it.domain = domain
	it.onTimeout = cb

	if err := s.enroll(it, float64(ms)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.insertLocked(it, false)
	s.mu.Unlock()

	return &Timeout{it: it, sched: s}, nil
}

// SetInterval schedules cb to run repeatedly, every repeat duration, until
// cleared (§4.F). Each firing re-arms before the next delay window starts,
// directly against the item's private handle if it has been Unref'd, or by
// re-inserting into the shared bucket otherwise.
func (s *Scheduler) SetInterval(cb func(), repeat time.Duration, domain Domain) (*Timeout, error) {
	if cb == nil {
		return nil, newTypeError("setInterval's callback isn't a callable function")
	}

	ms := clampDelay(repeat.Milliseconds(), s.timeoutMax())
	it := newItem()
	it.domain = domain
	it.repeat = cb

	it.onTimeout = func() {
		cb()
		if it.repeat == nil {
			return
		}

		s.mu.Lock()
		handle := it.handle
		if handle == nil {
			s.insertLocked(it, false)
			s.mu.Unlock()
			return
		}
		it.idleStart = s.clock.Now()
		it.idleStartSet = true
		s.mu.Unlock()
		handle.Arm(ms, func() { s.onFireItem(it) })
	}

	if err := s.enroll(it, float64(ms)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.insertLocked(it, false)
	s.mu.Unlock()

	return &Timeout{it: it, sched: s}, nil
}

// ClearTimeout cancels a pending one-shot timer. Safe to call on nil, twice,
// or on an already-fired timer.
func (s *Scheduler) ClearTimeout(t *Timeout) {
	if t == nil {
		return
	}
	t.Close()
}

// ClearInterval cancels a repeating timer. Alias of ClearTimeout, kept
// distinct for API parity with the setTimeout/setInterval pairing (§6).
func (s *Scheduler) ClearInterval(t *Timeout) {
	s.ClearTimeout(t)
}

func (s *Scheduler) timeoutMax() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.TimeoutMax
}

// clampDelay implements the public API's permissive coercion (§6): a
// non-positive delay, or one of TIMEOUT_MAX+1 or more, collapses to 1ms rather
// than being rejected the way the low-level enroll/Enroll validates msecs.
func clampDelay(ms int64, max int64) int64 {
	if ms <= 0 || ms >= max+1 {
		return 1
	}
	return ms
}
