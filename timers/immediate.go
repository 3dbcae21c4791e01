package timers

import "go.uber.org/multierr"

// SetImmediate appends cb to the immediate queue, to run once on the next
// event-loop turn, bypassing duration buckets entirely (§4.F).
func (s *Scheduler) SetImmediate(cb func(), domain Domain) (*Immediate, error) {
	if cb == nil {
		return nil, newTypeError("setImmediate's callback isn't a callable function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	im := &Immediate{onImmediate: cb, domain: domain, id: newImmediateID()}
	im.elem = s.immediateQueue.append(im)
	s.needImmediateCallback = true
	s.metrics.immediateDepth.Set(float64(s.immediateQueue.len()))
	return im, nil
}

// ClearImmediate cancels a pending immediate. Safe to call multiple times
// and on an already-run immediate.
func (s *Scheduler) ClearImmediate(im *Immediate) {
	if im == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if im.cleared {
		return
	}
	im.cleared = true
	im.onImmediate = nil
	if im.elem != nil {
		s.immediateQueue.remove(im.elem)
		im.elem = nil
	}
	s.metrics.immediateDepth.Set(float64(s.immediateQueue.len()))
	if s.immediateQueue.isEmpty() {
		s.needImmediateCallback = false
	}
}

// DispatchImmediates is the host-polled entry point of §4.F's "Immediate
// dispatch": invoked once per event-loop turn when NeedImmediateCallback is
// set. Immediates enqueued during this call run on the next turn, never in
// this drain (§8's property 4).
func (s *Scheduler) DispatchImmediates() {
	s.mu.Lock()
	if !s.needImmediateCallback {
		s.mu.Unlock()
		return
	}
	queue := s.immediateQueue
	s.immediateQueue = newItemList()
	s.mu.Unlock()

	s.drainImmediateQueue(queue)
}

// NeedImmediateCallback reports whether the host should invoke
// DispatchImmediates on its next turn (§6's scheduler collaborator
// contract).
func (s *Scheduler) NeedImmediateCallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needImmediateCallback
}

// drainImmediateQueue runs queue's immediates in order. queue is a local
// snapshot owned by this call, so shifting from it needs no lock; only the
// touches of shared scheduler state (s.immediateQueue, the flag, metrics)
// take s.mu, and never while a callback is running — an immediate that
// itself calls SetImmediate/ClearImmediate must not deadlock against the
// drain that is running it.
func (s *Scheduler) drainImmediateQueue(queue *itemList) {
	var turnErr error

	for {
		v := queue.shift()
		if v == nil {
			break
		}
		im := v.(*Immediate)
		if im.cleared || im.onImmediate == nil {
			continue
		}
		if im.domain != nil && im.domain.Disposed() {
			continue
		}
		if im.domain != nil {
			im.domain.Enter()
		}

		swallowed := swallows(im.domain)
		cb := im.onImmediate
		panicked, err := s.invokeGuarded(cb, swallowed, func() { s.resumeImmediateDrain() })
		turnErr = multierr.Append(turnErr, err)

		if im.domain != nil {
			im.domain.Exit()
		}

		if panicked && !swallowed {
			s.mu.Lock()
			s.requeueRemaining(queue)
			s.updateImmediateFlagLocked()
			s.recordDrainErrorLocked(turnErr)
			s.mu.Unlock()
			return
		}
	}

	s.mu.Lock()
	s.updateImmediateFlagLocked()
	s.recordDrainErrorLocked(turnErr)
	s.mu.Unlock()
}

// recordDrainErrorLocked stashes the aggregated error of the turn just
// drained, overwriting whatever the previous turn left behind. Caller must
// hold s.mu. A nil turnErr (the common case: nothing panicked) clears it.
func (s *Scheduler) recordDrainErrorLocked(turnErr error) {
	s.lastDrainErr = turnErr
}

// LastImmediateDrainError returns the combined error of every immediate
// callback that panicked during the most recently completed drain, or nil if
// none did. A drain is a DispatchImmediates turn, or the deferred resumption
// that runs the immediates a panic left queued; a resumption that finds the
// queue empty leaves the previous result in place. Multiple panics in the
// same drain are joined with go.uber.org/multierr; without a swallowing
// Domain a drain stops at its first panic.
func (s *Scheduler) LastImmediateDrainError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDrainErr
}

func (s *Scheduler) resumeImmediateDrain() {
	s.mu.Lock()
	if s.immediateQueue.isEmpty() {
		s.mu.Unlock()
		return
	}
	queue := s.immediateQueue
	s.immediateQueue = newItemList()
	s.mu.Unlock()

	s.drainImmediateQueue(queue)
}

// requeueRemaining prepends queue's un-processed items in front of whatever
// was freshly enqueued into s.immediateQueue during the drain (§4.F.2), then
// installs the combination as the new immediate queue. Caller must hold s.mu.
func (s *Scheduler) requeueRemaining(queue *itemList) {
	fresh := s.immediateQueue
	combined := newItemList()

	for {
		v := queue.shift()
		if v == nil {
			break
		}
		im := v.(*Immediate)
		im.elem = combined.append(im)
	}
	for {
		v := fresh.shift()
		if v == nil {
			break
		}
		im := v.(*Immediate)
		im.elem = combined.append(im)
	}

	s.immediateQueue = combined
}

// updateImmediateFlagLocked refreshes needImmediateCallback and the depth
// gauge. Caller must hold s.mu.
func (s *Scheduler) updateImmediateFlagLocked() {
	s.needImmediateCallback = !s.immediateQueue.isEmpty()
	s.metrics.immediateDepth.Set(float64(s.immediateQueue.len()))
}
