package timing

import "go.uber.org/zap"

// Executor 执行一个 Task.Execute：宿主可以用它把任务执行挪到自己的协程池
// 或限流器上，而不是在调度核心的回调里直接跑
type Executor interface {
	// Execute 执行任务
	Execute(task func())
}

// ExecutorFn 把函数适配为 Executor，捕获并记录 panic，避免一个出错的任务
// 拖垮整个 Wheel
type ExecutorFn func(task func())

func (f ExecutorFn) Execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("timing: task panicked", zap.Any("panic", r))
		}
	}()
	f(task)
}
