package timing

import (
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	chrono "github.com/kercylan98/evtimer"
	"github.com/kercylan98/evtimer/timers"
)

var builder = &Builder{}

// New 创建一个用于管理大量定时任务的 Wheel
func New(configurator ...Configurator) Wheel {
	b := GetBuilder()
	if len(configurator) > 0 {
		return b.FromConfigurators(configurator...)
	}
	return b.Build()
}

// GetBuilder 获取一个用于创建 Wheel 的构建器
func GetBuilder() *Builder {
	return builder
}

// Builder 构建一个 Wheel
type Builder struct{}

// Build 创建一个默认配置的 Wheel
func (b *Builder) Build() Wheel {
	return b.FromConfiguration(NewConfig())
}

// FromConfiguration 从配置中创建一个 Wheel
func (b *Builder) FromConfiguration(config Configuration) Wheel {
	return &wheel{
		sched:  timers.NewScheduler(),
		config: config,
		named:  make(map[string]Named),
	}
}

// FromCustomize 通过自定义配置构建 Wheel
func (b *Builder) FromCustomize(configuration Configuration, configurators ...Configurator) Wheel {
	for _, c := range configurators {
		c.Configure(configuration)
	}
	return b.FromConfiguration(configuration)
}

// FromConfigurators 从配置器中创建一个 Wheel
func (b *Builder) FromConfigurators(configurators ...Configurator) Wheel {
	config := NewConfig()
	for _, c := range configurators {
		c.Configure(config)
	}
	return b.FromConfiguration(config)
}

// Wheel 调度 Task/LoopTask，是 Cron/Named/Options 体系的入口，底层由
// github.com/kercylan98/evtimer/timers 的调度核心驱动
type Wheel interface {
	// After 创建一个在一段时间后执行的任务
	After(duration time.Duration, task Task) Timer

	// AfterFunc 是 After 的函数式版本，无需先包装为 TaskFn
	AfterFunc(duration time.Duration, fn func()) Timer

	// Loop 创建一个循环执行的任务，它将在 duration 时间后首次执行，然后根据 LoopTask.Next 方法返回的时间再次执行
	Loop(duration time.Duration, task LoopTask) Timer

	// Cron 通过 cron 表达式创建一个任务，当表达式无效时将返回错误
	//  - 表达式说明可参阅：https://github.com/gorhill/cronexpr
	Cron(cron string, task Task) (Timer, error)

	// Named 获取使用命名维护任务的时间轮 API
	//   - 当 topic 不为空时，将返回一个命名空间为 topic 的 Named 实例，不同的 Named 实例之间的任务不会相互影响
	Named(topic ...string) Named
}

// wheel 是 Wheel 的默认实现，持有一个 *timers.Scheduler 作为调度核心
type wheel struct {
	sched  *timers.Scheduler
	config Configuration

	mu    sync.RWMutex
	named map[string]Named
}

// quantize 将 duration 圆整到配置的 tick 边界（毫秒级），复用 chrono 的
// 毫秒转换与截断助手，和教师原本用于推进轮盘当前时间的方式一致：粗粒度的
// tick 能让彼此接近的计时器共享同一个桶，代价是至多一个 tick 的额外延迟。
func (t *wheel) quantize(d time.Duration) time.Duration {
	tick := t.config.FetchTick()
	if tick <= 1 {
		return d
	}

	now := time.Now()
	nowMs := chrono.TimeToMillisecond(now)
	deadlineMs := chrono.TimeToMillisecond(now.Add(d))

	truncated := chrono.Truncate(deadlineMs, tick)
	if truncated < deadlineMs {
		truncated += tick
	}
	return time.Duration(truncated-nowMs) * time.Millisecond
}

func (t *wheel) run(task Task) {
	t.config.FetchExecutor().Execute(task.Execute)
}

func (t *wheel) After(duration time.Duration, task Task) Timer {
	tm := newTimer()
	handle, _ := t.sched.SetTimeout(func() { t.run(task) }, t.quantize(duration), timers.NopDomain{})
	tm.setHandle(handle)
	return tm
}

func (t *wheel) AfterFunc(duration time.Duration, fn func()) Timer {
	return t.After(duration, TaskFn(fn))
}

func (t *wheel) Loop(duration time.Duration, task LoopTask) Timer {
	tm := newTimer()

	var schedule func(d time.Duration, expiration time.Time)
	schedule = func(d time.Duration, expiration time.Time) {
		handle, _ := t.sched.SetTimeout(func() {
			t.run(task)
			if tm.Stopped() {
				return
			}
			next := task.Next(expiration)
			if next.IsZero() || !next.After(expiration) {
				return
			}
			d2 := time.Until(next)
			if d2 < 0 {
				d2 = 0
			}
			schedule(d2, next)
		}, t.quantize(d), timers.NopDomain{})
		tm.setHandle(handle)
	}

	schedule(duration, time.Now().Add(duration))
	return tm
}

func (t *wheel) Cron(cron string, task Task) (Timer, error) {
	expression, err := cronexpr.Parse(cron)
	if err != nil {
		return nil, err
	}

	tm := newTimer()

	var schedule func(after time.Time)
	schedule = func(after time.Time) {
		next := expression.Next(after)
		d := time.Until(next)
		if d < 0 {
			d = 0
		}
		handle, _ := t.sched.SetTimeout(func() {
			t.run(task)
			if tm.Stopped() {
				return
			}
			schedule(next)
		}, t.quantize(d), timers.NopDomain{})
		tm.setHandle(handle)
	}

	schedule(time.Now())
	return tm, nil
}

func (t *wheel) Named(topic ...string) Named {
	t.mu.Lock()
	defer t.mu.Unlock()

	var name string
	if len(topic) > 0 {
		name = topic[0]
	}
	if n, ok := t.named[name]; ok {
		return n
	}
	n := newNamed(t)
	t.named[name] = n
	return n
}
