package timers

import (
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Scheduler is the singleton scheduler value called for in §9's Design
// Notes: it owns the two bucket registries, the immediate queue, and the
// injected clock/logger/metrics, replacing the source's language-level
// globals with an explicit value a host threads through its event loop.
type Scheduler struct {
	mu sync.Mutex

	clock                 Clock
	newNativeTimer        NativeTimerFactory
	registry              *bucketRegistry
	immediateQueue        *itemList
	needImmediateCallback bool

	config  Config
	logger  *zap.Logger
	level   zap.AtomicLevel
	metrics *metrics

	liveness    *ProcessLiveness
	resume      *resumptionPump
	metricsReg  prometheus.Registerer
	loggerGiven bool

	lastDrainErr    error
	lastDispatchErr error
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithClock injects a Clock, overriding SystemClock. Used by tests to drive
// deterministic scenarios (§8's mock-clock property tests).
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithNativeTimerFactory injects a NativeTimerFactory, overriding the
// time.AfterFunc-backed default. Used by tests to observe arm/stop/ref/unref
// calls without real timers firing.
func WithNativeTimerFactory(f NativeTimerFactory) Option {
	return func(s *Scheduler) { s.newNativeTimer = f }
}

// WithConfig sets the scheduler's Config, overriding DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) { s.config = cfg.normalized() }
}

// WithLogger injects a *zap.Logger, overriding the Config.LogLevel-derived default.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l; s.loggerGiven = true }
}

// WithMetricsRegisterer registers this scheduler's prometheus metrics
// against reg instead of the fresh private registry each Scheduler otherwise
// creates for itself.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(s *Scheduler) { s.metricsReg = reg }
}

// NewScheduler constructs a Scheduler ready to accept registrations.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:          SystemClock{},
		config:         DefaultConfig(),
		liveness:       &ProcessLiveness{},
		resume:         &resumptionPump{},
		immediateQueue: newItemList(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newNativeTimer == nil {
		s.newNativeTimer = func() NativeTimer { return NewRealNativeTimer(s.liveness) }
	}
	s.registry = newBucketRegistry()
	if s.metrics == nil {
		reg := s.metricsReg
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		s.metrics = newMetrics(s.config.MetricsNamespace, reg)
	}
	s.liveness.onChange = func(n int) { s.metrics.refedLiveness.Set(float64(n)) }
	if !s.loggerGiven {
		s.level = zap.NewAtomicLevelAt(parseLevel(s.config.LogLevel))
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(os.Stdout), s.level)
		s.logger = zap.New(core)
	}
	return s
}

// Liveness returns the process-liveness counter ref'd handles contribute to
// (§3's invariant 5, §8's property 6).
func (s *Scheduler) Liveness() *ProcessLiveness {
	return s.liveness
}

// applyConfig re-applies a reloaded Config: the metrics namespace is fixed
// for a Scheduler's lifetime (metrics are already registered), but the log
// level is live-adjustable whenever the logger wasn't overridden via
// WithLogger.
func (s *Scheduler) applyConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg.normalized()
	if !s.loggerGiven {
		s.level.SetLevel(parseLevel(s.config.LogLevel))
	}
}

var (
	defaultOnce      sync.Once
	defaultScheduler *Scheduler
)

// DefaultScheduler returns a process-wide Scheduler, lazily constructed,
// for hosts that want setTimeout/setInterval/setImmediate as free functions
// rather than threading a *Scheduler explicitly (spec's original global
// surface, §6).
func DefaultScheduler() *Scheduler {
	defaultOnce.Do(func() {
		defaultScheduler = NewScheduler()
	})
	return defaultScheduler
}
