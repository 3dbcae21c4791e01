package timers

import (
	"os"
	"sync"
	"time"

	chrono "github.com/kercylan98/evtimer"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config carries the host-tunable knobs of the scheduler. It is the
// ambient-configuration counterpart of the teacher's timing.Configuration,
// loaded from YAML rather than built through options.LogicOptions since
// these values are operator-facing (log level, metrics namespace) rather
// than structural.
type Config struct {
	// TimeoutMax clamps enroll's msecs argument (§4.D). Zero means use
	// DefaultTimeoutMax.
	TimeoutMax int64 `yaml:"timeout_max"`
	// MetricsNamespace prefixes the prometheus metrics registered by a Scheduler.
	MetricsNamespace string `yaml:"metrics_namespace"`
	// LogLevel controls the injected zap logger's level ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
}

// DefaultTimeoutMax is TIMEOUT_MAX from §6: the largest millisecond duration
// enroll will accept without clamping.
const DefaultTimeoutMax int64 = 2147483647

// DefaultConfig returns the zero-value-safe configuration used when a
// Scheduler is constructed without an explicit Config.
func DefaultConfig() Config {
	return Config{TimeoutMax: DefaultTimeoutMax, MetricsNamespace: "timers", LogLevel: "info"}
}

func (c Config) normalized() Config {
	if c.TimeoutMax <= 0 {
		c.TimeoutMax = DefaultTimeoutMax
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = "timers"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg.normalized(), nil
}

// ConfigWatcher hot-reloads a YAML config file with fsnotify and applies log
// level / TimeoutMax changes to a running Scheduler without a restart (the
// metrics namespace stays as it was at construction), the way the retrieved SeleniaProject/orizon vfs watcher wraps
// fsnotify for its own file-change notifications.
type ConfigWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	sched   *Scheduler

	mu     sync.Mutex
	closed bool
}

// WatchConfig starts watching path for changes and re-applies the config to sched on each write.
func WatchConfig(path string, sched *Scheduler) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return nil, err
	}
	cw := &ConfigWatcher{path: path, watcher: w, sched: sched}
	go cw.loop()
	return cw, nil
}

func (cw *ConfigWatcher) loop() {
	for {
		select {
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadConfig(cw.path)
			if err != nil {
				cw.sched.logger.Warn("config reload failed", zap.String("path", cw.path), zap.Error(err))
				continue
			}
			cw.sched.applyConfig(cfg)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.sched.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

// WatchConfigWithRetry is WatchConfig with retry: fsnotify setup (opening an
// inotify instance, watching path) can fail transiently under fd pressure,
// so this backs off exponentially between attempts using the same backoff
// helper the module's chrono package exposes. It retries while that helper
// returns a delay, which for a non-negative maxRetries means at most
// maxRetries+2 attempts in all; a negative maxRetries retries without limit.
func WatchConfigWithRetry(path string, sched *Scheduler, maxRetries int) (*ConfigWatcher, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		cw, err := WatchConfig(path, sched)
		if err == nil {
			return cw, nil
		}
		lastErr = err

		delay := chrono.StandardExponentialBackoff(attempt, maxRetries, 50*time.Millisecond, 2*time.Second)
		if delay < 0 {
			return nil, lastErr
		}
		time.Sleep(delay)
	}
}

// Close stops watching the config file.
func (cw *ConfigWatcher) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.closed {
		return nil
	}
	cw.closed = true
	return cw.watcher.Close()
}
