package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the board services.
// - Debug/Info/Warn/Error/Fatal with printf variants
// - key/value variants (Infow, Warnw, Errorw) for workflow events
// - Init(level) picks the threshold, SetOutput redirects (tests)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
)

// ParseLevel maps a case-insensitive name to a Level; unknown names are Info.
func ParseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return LevelInfo
}

// Init sets the global log level. Call early during startup.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = ParseLevel(l)
}

// SetOutput redirects log output and returns a func restoring the previous writer.
func SetOutput(w io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := logger
	logger = log.New(w, "", 0)
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func output(l Level, msg string) {
	mu.RLock()
	lg := logger
	mu.RUnlock()
	lg.Printf("%s [%s] %s", time.Now().Format(time.RFC3339), strings.ToUpper(levelNames[l]), msg)
}

func logf(l Level, format string, v ...interface{}) {
	if !enabled(l) {
		return
	}
	output(l, fmt.Sprintf(format, v...))
}

// fields renders alternating key/value pairs as key=value. A dangling key
// is printed with a "?" value.
func fields(kv []interface{}) string {
	var b strings.Builder
	for i := 0; i < len(kv); i += 2 {
		b.WriteByte(' ')
		fmt.Fprint(&b, kv[i])
		b.WriteByte('=')
		if i+1 < len(kv) {
			fmt.Fprint(&b, kv[i+1])
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

func logw(l Level, msg string, kv []interface{}) {
	if !enabled(l) {
		return
	}
	output(l, msg+fields(kv))
}

func Debugf(format string, v ...interface{}) { logf(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logf(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logf(LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { logf(LevelError, format, v...) }

func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}

func Debugw(msg string, kv ...interface{}) { logw(LevelDebug, msg, kv) }
func Infow(msg string, kv ...interface{})  { logw(LevelInfo, msg, kv) }
func Warnw(msg string, kv ...interface{})  { logw(LevelWarn, msg, kv) }
func Errorw(msg string, kv ...interface{}) { logw(LevelError, msg, kv) }

func Info(v string) { Infof("%s", v) }
func Warn(v string) { Warnf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return levelNames[level]
}

// Writer adapts the logger to io.Writer at the given level, for libraries
// that want a *log.Logger (gorm, gin).
func Writer(l Level) io.Writer { return levelWriter(l) }

type levelWriter Level

func (w levelWriter) Write(p []byte) (int, error) {
	logf(Level(w), "%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
