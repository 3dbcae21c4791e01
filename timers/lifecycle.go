package timers

import "math"

// Enroll validates msecs and prepares it for scheduling (§4.D's enroll).
// If it is already linked into a bucket, it is unenrolled first. enroll
// never arms a timer; a subsequent Active/UnrefActive call does that.
func (s *Scheduler) Enroll(it *InternalItem, msecs float64) error {
	return s.enroll(it.item, msecs)
}

func (s *Scheduler) enroll(it *item, msecs float64) error {
	if !isFinite(msecs) {
		return newRangeError("msecs must be finite")
	}
	if msecs < 0 {
		return newRangeError("msecs must be >= 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if it.linked() {
		s.unenrollLocked(it)
	}

	capped := int64(msecs)
	if capped > s.config.TimeoutMax {
		capped = s.config.TimeoutMax
	}
	it.idleTimeout = capped
	it.idleStartSet = false
	return nil
}

// Active stamps idleStart and appends it to a ref'd bucket (§4.D's active).
func (s *Scheduler) Active(it *InternalItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(it.item, false)
}

// UnrefActive is the unref'd counterpart of Active (§4.D's _unrefActive).
func (s *Scheduler) UnrefActive(it *InternalItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(it.item, true)
}

// insertLocked implements §4.D's insert: a negative/unset idleTimeout is a
// silent no-op, by design, so that cancelled items "fail safe".
func (s *Scheduler) insertLocked(it *item, unrefed bool) {
	if it.idleTimeout < 0 {
		return
	}

	it.idleStart = s.clock.Now()
	it.idleStartSet = true

	b := s.registry.getOrCreate(s, it.idleTimeout, unrefed)
	it.elem = b.items.append(it)
	it.bucket = b
}

// Unenroll removes it from its list and, if it was the last item in a ref'd
// bucket, collapses that bucket immediately (§4.D's unenroll). Unref'd
// buckets are left for the dispatch loop to collapse, preserving the
// asymmetry documented in §9.
func (s *Scheduler) Unenroll(it *InternalItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unenrollLocked(it.item)
}

func (s *Scheduler) unenrollLocked(it *item) {
	b := it.bucket
	if b != nil {
		b.items.remove(it.elem)
		it.bucket = nil
		it.elem = nil

		if !b.unrefed && b.items.isEmpty() {
			s.registry.drop(s, b)
		}
	}
	if it.handle != nil {
		it.handle.Close()
		it.handle = nil
	}
	it.idleTimeout = -1
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
