// Package logging provides categorized file-based logging for hiveterm.
// Log output goes to .hiveterm/logs/ under the workspace, never to the
// terminal: the TUI owns stdout and stderr while a session is live.
// Before Init (or when debug is off) every logger is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names one subsystem's log stream.
type Category string

const (
	CategoryBoot    Category = "boot"    // startup, CLI wiring
	CategoryStream  Category = "stream"  // block scanning
	CategoryDecode  Category = "decode"  // artifact decode and rejection
	CategoryWidget  Category = "widget"  // widget lifecycle, focus changes
	CategorySession Category = "session" // source and pipeline lifecycle
	CategorySubmit  Category = "submit"  // submission delivery
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
	file *os.File
)

// Init opens the session log file under the workspace and installs the
// shared root logger. Safe to skip entirely; everything stays a no-op.
func Init(workspace string, debug bool) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	dir := filepath.Join(workspace, ".hiveterm", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}

	name := time.Now().Format("2006-01-02") + ".log"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), level)

	mu.Lock()
	if file != nil {
		file.Close()
	}
	root = zap.New(core)
	file = f
	mu.Unlock()

	Get(CategoryBoot).Info("logging initialized",
		zap.String("workspace", workspace),
		zap.Bool("debug", debug))
	return nil
}

// Get returns the logger for a category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(string(category))
}

// Sync flushes and closes the log file. Call once at shutdown.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	root.Sync()
	if file != nil {
		file.Close()
		file = nil
	}
	root = zap.NewNop()
}
