// Package rushlog provides the structured logger used across rush,
// wrapping klog behind a small interface so call sites never depend on the
// logging backend directly.
package rushlog

import (
	"flag"
	"sync"

	"k8s.io/klog/v2"
)

// LoggerInterface is implemented by every logger rush code depends on.
type LoggerInterface interface {
	Info(msg string, keysAndValues ...interface{})
	Error(err error, msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	WithValues(keysAndValues ...interface{}) LoggerInterface
}

// Logger is the klog-backed LoggerInterface implementation.
type Logger struct {
	klog.Logger
}

var _ LoggerInterface = (*Logger)(nil)

var (
	globalLogger LoggerInterface
	once         sync.Once
	mutex        sync.RWMutex
)

// InitLogger initializes the process-wide logger exactly once.
func InitLogger(debug bool) LoggerInterface {
	once.Do(func() {
		globalLogger = Init(debug)
	})
	return globalLogger
}

// Get returns the global logger instance, initializing it with defaults
// if no caller has called InitLogger yet.
func Get() LoggerInterface {
	once.Do(func() {
		globalLogger = Init(false)
	})
	mutex.RLock()
	defer mutex.RUnlock()
	return globalLogger
}

// SetLogger overrides the global logger; used by tests to inject a mock.
func SetLogger(l LoggerInterface) {
	mutex.Lock()
	defer mutex.Unlock()
	globalLogger = l
}

// ResetLogger clears the singleton so the next Get/InitLogger call
// reinitializes it; used by tests.
func ResetLogger() {
	mutex.Lock()
	defer mutex.Unlock()
	globalLogger = nil
	once = sync.Once{}
}

// Init builds a fresh Logger without touching the global singleton.
func Init(debug bool) *Logger {
	if flag.Lookup("v") == nil {
		klog.InitFlags(nil)
	}
	klog.SetOutput(nil)
	klog.SetLogger(klog.NewKlogr())

	verbosity := "0"
	if debug {
		verbosity = "4"
	}
	if err := flag.Set("v", verbosity); err != nil {
		panic("rushlog: failed to set verbosity: " + err.Error())
	}
	flag.Parse()

	return &Logger{Logger: klog.Background()}
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, keysAndValues...)
}

func (l *Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Logger.Error(err, msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.V(4).Info(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Info("[WARN] "+msg, keysAndValues...)
}

func (l *Logger) WithValues(keysAndValues ...interface{}) LoggerInterface {
	return &Logger{Logger: l.Logger.WithValues(keysAndValues...)}
}

// WithComponent scopes a logger to one component, tagging every line with
// its name. No code in this module calls it.
func WithComponent(l LoggerInterface, name string) LoggerInterface {
	return l.WithValues("component", name)
}
