package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ncobase/collab/config"
	"github.com/ncobase/collab/ctxutil"
	"github.com/sirupsen/logrus"
)

// Key constants
const (
	VersionKey = "version"
	traceKey   = "trace_id"
	userKey    = "user_id"
	tenantKey  = "tenant_id"
)

// Logger wraps logrus with context-aware, key-value logging methods.
type Logger struct {
	*logrus.Logger
	version      string
	logFile      *os.File
	logPath      string
	desensitizer *Desensitizer
	mu           sync.Mutex
	stop         chan struct{}
}

var (
	stdLogger *Logger
	once      sync.Once
)

// StdLogger returns the process-wide logger.
func StdLogger() *Logger {
	once.Do(func() {
		stdLogger = newLogger()
	})
	return stdLogger
}

func newLogger() *Logger {
	l := &Logger{Logger: logrus.New(), stop: make(chan struct{})}
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	l := newLogger()
	l.SetOutput(io.Discard)
	return l
}

// New configures the standard logger and returns a cleanup function.
func New(c *config.Logger) (func(), error) {
	return StdLogger().Init(c)
}

// SetVersion sets the version for logging
func (l *Logger) SetVersion(v string) {
	l.version = v
}

// Init initializes the logger with the given configuration
func (l *Logger) Init(c *config.Logger) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	l.SetLevel(logrus.Level(c.Level))

	switch c.Format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	switch c.Output {
	case "stderr":
		l.SetOutput(os.Stderr)
	case "file":
		l.logPath = c.OutputFile
		if l.logPath != "" {
			if err := l.setupLogFile(); err != nil {
				return nil, err
			}
			go l.periodicLogRotation()
		}
	default:
		l.SetOutput(os.Stdout)
	}

	if c.Desensitization != nil && c.Desensitization.Enabled {
		l.desensitizer = NewDesensitizer(c.Desensitization)
	}

	return func() {
		close(l.stop)
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.logFile != nil {
			_ = l.logFile.Close()
		}
	}, nil
}

func (l *Logger) setupLogFile() error {
	if err := os.MkdirAll(filepath.Dir(l.logPath), 0o755); err != nil {
		return err
	}
	return l.rotateLog()
}

func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		if err := l.logFile.Close(); err != nil {
			return err
		}
	}

	name := fmt.Sprintf("%s.%s.log", strings.TrimSuffix(l.logPath, ".log"), time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(name, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}

	l.logFile = f
	l.SetOutput(f)
	return nil
}

func (l *Logger) periodicLogRotation() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			if err := l.rotateLog(); err != nil {
				l.Logger.Errorf("Error rotating log: %v", err)
			}
		}
	}
}

// entryFromContext creates a new log entry with fields from context
func (l *Logger) entryFromContext(ctx context.Context, kv []any) *logrus.Entry {
	fields := logrus.Fields{}

	if ctx != nil {
		if traceID := ctxutil.GetTraceID(ctx); traceID != "" {
			fields[traceKey] = traceID
		}
		if uid := ctxutil.GetUserID(ctx); uid != "" {
			fields[userKey] = uid
		}
		if tid := ctxutil.GetTenantID(ctx); tid != "" {
			fields[tenantKey] = tid
		}
	}
	if l.version != "" {
		fields[VersionKey] = l.version
	}

	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		if err, isErr := kv[i+1].(error); isErr {
			fields[key] = err.Error()
			continue
		}
		fields[key] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		fields["!BADKEY"] = kv[len(kv)-1]
	}

	if l.desensitizer != nil {
		fields = l.desensitizer.DesensitizeFields(fields)
	}
	return l.WithFields(fields)
}

func (l *Logger) log(ctx context.Context, level logrus.Level, msg string, kv []any) {
	if !l.IsLevelEnabled(level) {
		return
	}
	l.entryFromContext(ctx, kv).Log(level, msg)
}

// Debug logs msg with key-value pairs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.DebugLevel, msg, kv)
}

// Info logs msg with key-value pairs at info level.
func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.InfoLevel, msg, kv)
}

// Warn logs msg with key-value pairs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.WarnLevel, msg, kv)
}

// Error logs msg with key-value pairs at error level.
func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.ErrorLevel, msg, kv)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(ctx context.Context, msg string, kv ...any) {
	l.log(ctx, logrus.FatalLevel, msg, kv)
}

// Package-level helpers delegating to StdLogger.

func Debug(ctx context.Context, msg string, kv ...any) { StdLogger().Debug(ctx, msg, kv...) }
func Info(ctx context.Context, msg string, kv ...any)  { StdLogger().Info(ctx, msg, kv...) }
func Warn(ctx context.Context, msg string, kv ...any)  { StdLogger().Warn(ctx, msg, kv...) }
func Error(ctx context.Context, msg string, kv ...any) { StdLogger().Error(ctx, msg, kv...) }
func Fatal(ctx context.Context, msg string, kv ...any) { StdLogger().Fatal(ctx, msg, kv...) }
