package timers

import (
	"sync"
	"sync/atomic"
)

const (
	resumeSleeping = iota
	resumeWorking
)

// resumptionPump schedules deferred resumptions (§4.E.g, §4.F's immediate
// dispatch throw-recovery): a callback is queued to run on the "next tick"
// rather than synchronously in the throwing stack frame, and queued
// resumptions run strictly one at a time and in order.
//
// The sleeping/working compare-and-swap, plus the missed-wakeup counter, is
// the same idiom the teacher's internal/delayqueue.DelayQueue uses to avoid
// spawning a worker goroutine per task while still guaranteeing only one
// drain runs at a time and no task queued during a drain is lost.
type resumptionPump struct {
	state atomic.Int32
	n     atomic.Int64
	mu    sync.Mutex
	tasks []func()
}

func (p *resumptionPump) schedule(task func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, task)
	p.mu.Unlock()

	if p.state.CompareAndSwap(resumeSleeping, resumeWorking) {
		go p.run()
	} else {
		p.n.Add(1)
	}
}

func (p *resumptionPump) run() {
	for {
		p.drain()
		p.state.Store(resumeSleeping)
		if p.n.Load() == 0 {
			return
		}
		if !p.state.CompareAndSwap(resumeSleeping, resumeWorking) {
			return
		}
	}
}

func (p *resumptionPump) drain() {
	p.n.Store(0)
	for {
		p.mu.Lock()
		if len(p.tasks) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.tasks[0]
		p.tasks = p.tasks[1:]
		p.mu.Unlock()

		task()
	}
}
