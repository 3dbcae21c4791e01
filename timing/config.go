package timing

import (
	"time"

	"github.com/kercylan98/options"
)

var (
	_               Configuration = (*configuration)(nil)
	defaultExecutor               = ExecutorFn(func(task func()) {
		task()
	})
)

// NewConfig 创建一个用于 Wheel 的默认配置器：1ms 的量化粒度，以及一个同步、
// 捕获 panic 的执行器
func NewConfig() Configuration {
	c := &configuration{
		tick:     1,
		executor: defaultExecutor,
	}
	c.LogicOptions = options.NewLogicOptions[OptionsFetcher, Options](c, c)
	return c
}

// Configurator 是 Wheel 的配置接口，它允许结构化的配置 Wheel
type Configurator interface {
	Configure(config Configuration)
}

// ConfiguratorFn 是 Wheel 的配置接口，它允许通过函数式的方式配置 Wheel
type ConfiguratorFn func(config Configuration)

func (f ConfiguratorFn) Configure(config Configuration) {
	f(config)
}

type Configuration interface {
	Options
	OptionsFetcher
}

type Options interface {
	options.LogicOptions[OptionsFetcher, Options]

	// WithTick 设置量化粒度（毫秒）：After/Loop/Cron 会把请求的到期时间向上圆整到
	// 这个粒度的边界，让同一时刻创建、到期时间彼此接近的计时器共享底层调度核心里同一个桶
	WithTick(tick time.Duration) Configuration

	// withTick 内部设置量化粒度，单位为毫秒，该函数不进行换算
	withTick(tick int64) Configuration

	// WithExecutor 设置运行 Task.Execute 的执行器
	WithExecutor(executor Executor) Configuration
}

type OptionsFetcher interface {
	FetchTick() int64

	FetchExecutor() Executor
}

type configuration struct {
	options.LogicOptions[OptionsFetcher, Options]
	tick     int64 // 量化粒度，单位毫秒
	executor Executor
}

func (t *configuration) WithTick(tick time.Duration) Configuration {
	t.tick = int64(tick / time.Millisecond)
	return t
}

func (t *configuration) withTick(tick int64) Configuration {
	t.tick = tick
	return t
}

func (t *configuration) WithExecutor(executor Executor) Configuration {
	t.executor = executor
	return t
}

func (t *configuration) FetchTick() int64 {
	return t.tick
}

func (t *configuration) FetchExecutor() Executor {
	return t.executor
}
