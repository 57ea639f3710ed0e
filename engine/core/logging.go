package core

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the structured logging surface used by the engine packages.
// *log.Logger satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				singleton = &logger{NewLogger(os.Stderr, "Denoiser 🌫️ ", log.DebugLevel)}
			})
	}
	return singleton
}

// NewLogger builds a charmbracelet logger with the engine defaults.
func NewLogger(w io.Writer, prefix string, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	l.SetLevel(level)
	return l
}

// NopLogger discards everything.
func NopLogger() *log.Logger {
	return log.New(io.Discard)
}

// DefaultLogger returns the process wide logger.
func DefaultLogger() *log.Logger {
	return getLogger().Logger
}

// SetLogLevel changes the level of the process wide logger.
func SetLogLevel(level log.Level) {
	getLogger().SetLevel(level)
}

// ParseLevel maps a config string ("debug", "info", ...) to a log level.
func ParseLevel(s string) (log.Level, error) {
	return log.ParseLevel(s)
}

// WithFields returns a Logger that appends keyvals to every entry.
func WithFields(l Logger, keyvals ...interface{}) Logger {
	if cl, ok := l.(*log.Logger); ok {
		return cl.With(keyvals...)
	}
	return &fieldLogger{parent: l, fields: keyvals}
}

type fieldLogger struct {
	parent Logger
	fields []interface{}
}

func (f *fieldLogger) merge(keyvals []interface{}) []interface{} {
	out := make([]interface{}, 0, len(f.fields)+len(keyvals))
	out = append(out, f.fields...)
	return append(out, keyvals...)
}

func (f *fieldLogger) Debug(msg interface{}, keyvals ...interface{}) {
	f.parent.Debug(msg, f.merge(keyvals)...)
}

func (f *fieldLogger) Info(msg interface{}, keyvals ...interface{}) {
	f.parent.Info(msg, f.merge(keyvals)...)
}

func (f *fieldLogger) Warn(msg interface{}, keyvals ...interface{}) {
	f.parent.Warn(msg, f.merge(keyvals)...)
}

func (f *fieldLogger) Error(msg interface{}, keyvals ...interface{}) {
	f.parent.Error(msg, f.merge(keyvals)...)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
