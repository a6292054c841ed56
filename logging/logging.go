package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"inmo_scrooper/models"
)

const defaultMaxSize = 2 * 1024 * 1024 // 2MB

var minRank atomic.Int32

func init() {
	minRank.Store(int32(models.LogLevelInfo.Rank()))
}

type RotatingWriter struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	size    int64
	maxSize int64
	closed  bool
}

// Setup sends the standard logger to stdout and to a size-capped file at
// logPath. maxSize <= 0 uses the 2MB default.
func Setup(logPath string, maxSize int64) (*RotatingWriter, error) {
	rw, err := NewRotatingWriter(logPath, maxSize)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rw))
	return rw, nil
}

func NewRotatingWriter(logPath string, maxSize int64) (*RotatingWriter, error) {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}

	// Truncate if too large on startup
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxSize {
		os.Truncate(logPath, 0)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	size := int64(0)
	if info, _ := f.Stat(); info != nil {
		size = info.Size()
	}

	return &RotatingWriter{
		file:    f,
		path:    logPath,
		size:    size,
		maxSize: maxSize,
	}, nil
}

func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// The file went away on a failed rotation. Stdout still gets the line
	// through Setup's MultiWriter, so only the file copy is dropped.
	if w.file == nil && (w.closed || !w.reopen()) {
		return len(p), nil
	}

	n, err = w.file.Write(p)
	w.size += int64(n)

	if w.size > w.maxSize {
		w.rotate()
	}

	return n, err
}

// rotate runs under the standard logger's lock, so it must never log or
// touch log.SetOutput.
func (w *RotatingWriter) rotate() {
	w.file.Close()
	w.file = nil

	// Keep one backup
	os.Rename(w.path, w.path+".1")

	w.reopen()
}

func (w *RotatingWriter) reopen() bool {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return false
	}
	w.file = f
	w.size = 0
	if info, _ := f.Stat(); info != nil {
		w.size = info.Size()
	}
	return true
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// SetLevel drops messages below level from the leveled helpers.
func SetLevel(level models.LogLevel) {
	minRank.Store(int32(level.Rank()))
}

func Enabled(level models.LogLevel) bool {
	return int32(level.Rank()) >= minRank.Load()
}

// Logf writes "[level] component: message" through the standard logger.
func Logf(level models.LogLevel, component, format string, args ...any) {
	if !Enabled(level) {
		return
	}
	log.Output(3, fmt.Sprintf("[%s] %s: %s", level, component, fmt.Sprintf(format, args...)))
}

func Debugf(component, format string, args ...any) {
	Logf(models.LogLevelDebug, component, format, args...)
}

func Infof(component, format string, args ...any) {
	Logf(models.LogLevelInfo, component, format, args...)
}

func Warnf(component, format string, args ...any) {
	Logf(models.LogLevelWarn, component, format, args...)
}

func Errorf(component, format string, args ...any) {
	Logf(models.LogLevelError, component, format, args...)
}
