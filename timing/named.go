package timing

import (
	"sync"
	"time"
)

// Named is the Wheel view keyed by task name: scheduling again under a name
// already in use stops the previous timer first, and Stop/Clear cancel by
// name instead of by Timer handle.
type Named interface {
	// After 创建一个在一段时间后执行的任务，若同名任务存在则先停止它
	After(name string, duration time.Duration, task Task)

	// Loop 创建一个循环执行的任务，若同名任务存在则先停止它
	Loop(name string, duration time.Duration, task LoopTask)

	// Cron 通过 cron 表达式创建一个任务，若同名任务存在则先停止它
	//  - 表达式说明可参阅：https://github.com/gorhill/cronexpr
	Cron(name string, cron string, task Task) error

	// Stop 停止指定名称的任务
	Stop(name string)

	// Clear 清除所有任务
	Clear()

	// Timer 获取底层的 Wheel
	Timer() Wheel
}

func newNamed(w Wheel) Named {
	return &named{
		Wheel:  w,
		timers: make(map[string]Timer),
	}
}

type named struct {
	Wheel
	mu     sync.Mutex
	timers map[string]Timer
}

func (n *named) After(name string, duration time.Duration, task Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if old, ok := n.timers[name]; ok {
		old.Stop()
	}
	n.timers[name] = n.Wheel.After(duration, task)
}

func (n *named) Loop(name string, duration time.Duration, task LoopTask) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if old, ok := n.timers[name]; ok {
		old.Stop()
	}
	n.timers[name] = n.Wheel.Loop(duration, task)
}

func (n *named) Cron(name string, cron string, task Task) error {
	timer, err := n.Wheel.Cron(cron, task)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if old, ok := n.timers[name]; ok {
		old.Stop()
	}
	n.timers[name] = timer
	return nil
}

func (n *named) Stop(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if timer, ok := n.timers[name]; ok {
		timer.Stop()
	}
	delete(n.timers, name)
}

func (n *named) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, timer := range n.timers {
		timer.Stop()
	}
	n.timers = make(map[string]Timer)
}

func (n *named) Timer() Wheel {
	return n.Wheel
}
