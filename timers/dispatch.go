package timers

import (
	"fmt"

	"go.uber.org/zap"
)

// onFire is the native callback bound to a bucket: it drains every item
// whose deadline has passed, in activation order, handling partial
// progress, re-arming, and bucket collapse (§4.E).
//
// The scheduler lock is held only while inspecting/mutating the bucket's
// list and the registries, never while a user callback runs — a callback
// that calls back into the scheduler (an interval re-arming itself, a
// sibling cancelling itself) must not deadlock against the drain that
// invoked it.
func (s *Scheduler) onFire(b *bucket) {
	s.mu.Lock()
	now := s.clock.Now()

	for {
		head, ok := b.items.peek().(*item)
		if !ok {
			s.registry.drop(s, b)
			s.mu.Unlock()
			return
		}

		diff := now - head.idleStart
		if diff < b.msecs {
			b.handle.Arm(b.msecs-diff, func() { s.onFire(b) })
			s.mu.Unlock()
			return
		}

		b.items.remove(head.elem)
		head.bucket = nil
		head.elem = nil

		if head.onTimeout == nil {
			continue
		}

		if head.domain != nil && head.domain.Disposed() {
			// A disposed domain aborts the drain entirely; the bucket keeps
			// its surviving items and is not re-armed here (§7, §9) — the
			// next active() call heals it.
			s.mu.Unlock()
			return
		}

		if head.domain != nil {
			head.domain.Enter()
		}
		head.called = true
		cb := head.onTimeout
		swallowed := swallows(head.domain)
		s.mu.Unlock()

		panicked, err := s.invokeGuarded(cb, swallowed, func() { s.onFire(b) })
		s.recordDispatchError(err)
		s.metrics.firedTimers.Inc()
		if head.domain != nil {
			head.domain.Exit()
		}

		if panicked && !swallowed {
			// Deferred resumption will continue the drain; do not run the
			// remaining siblings synchronously in this stack frame.
			return
		}

		s.mu.Lock()
	}
}

// invokeGuarded runs cb, recovering a panic so a thrown callback cannot
// starve its siblings on the same bucket (§4.E.g). It reports whether cb
// panicked; when it did and swallowed is false, resume has already been
// scheduled as a deferred re-entry into the same drain so the remaining
// items still run, just not in the throwing stack frame.
func (s *Scheduler) invokeGuarded(cb func(), swallowed bool, resume func()) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = panicToError(r)
			s.metrics.droppedCallbacks.Inc()
			s.logger.Error("timer callback panicked", zap.Any("panic", r), zap.Error(err))
			if !swallowed {
				s.resume.schedule(resume)
			}
		}
	}()
	cb()
	return false, nil
}

// onFireItem is onFire's single-item counterpart for a Timeout that has been
// migrated onto a private native timer by Unref (§6): no bucket, no
// siblings, nothing to rearm beyond what the fired callback itself does (an
// interval's wrapper re-arms via it.handle directly).
func (s *Scheduler) onFireItem(it *item) {
	s.mu.Lock()
	if it.handle == nil || it.onTimeout == nil {
		s.mu.Unlock()
		return
	}
	if it.domain != nil && it.domain.Disposed() {
		s.mu.Unlock()
		return
	}
	if it.domain != nil {
		it.domain.Enter()
	}
	it.called = true
	cb := it.onTimeout
	swallowed := swallows(it.domain)
	s.mu.Unlock()

	_, err := s.invokeGuarded(cb, swallowed, func() { s.onFireItem(it) })
	s.recordDispatchError(err)
	s.metrics.firedTimers.Inc()
	if it.domain != nil {
		it.domain.Exit()
	}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return newCallbackError(err)
	}
	return newCallbackError(fmt.Errorf("%v", r))
}

// recordDispatchError stashes err (nil clears it) as the most recent
// callback failure observed on the timer-dispatch path (onFire/onFireItem),
// the re-raise-to-the-host surface §4.E.g asks for, parallel to
// LastImmediateDrainError on the immediate-dispatch path.
func (s *Scheduler) recordDispatchError(err error) {
	s.mu.Lock()
	s.lastDispatchErr = err
	s.mu.Unlock()
}

// LastDispatchError returns the error from the most recently fired
// setTimeout/setInterval callback that panicked, or nil if the most recent
// one didn't.
func (s *Scheduler) LastDispatchError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDispatchErr
}
