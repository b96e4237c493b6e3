package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// RenderLog represents a single completed HandleFractalRequest.
type RenderLog struct {
	Timestamp          time.Time `json:"timestamp"`
	SessionID          string    `json:"session_id"`
	RequestID          string    `json:"request_id"`
	TraceID            string    `json:"trace_id,omitempty"`
	Handler            string    `json:"handler"`
	Strategy           string    `json:"strategy"`
	DataID             int64     `json:"data_id"`
	ViewportID         int64     `json:"viewport_id"`
	DurationMs         int64     `json:"duration_ms"`
	Incremental        bool      `json:"incremental"`
	ApproximateLayout  bool      `json:"approximate_layout,omitempty"`
	CopiedPixels       int       `json:"copied_pixels,omitempty"`
	FreshPixels        int       `json:"fresh_pixels,omitempty"`
	Success            bool      `json:"success"`
	Error              string    `json:"error,omitempty"`
	OutputBytes        int       `json:"output_bytes,omitempty"`
}

// Logger handles render logging.
type Logger struct {
	mu      sync.Mutex
	enabled bool
	file    *os.File
	console bool
}

var defaultLogger = &Logger{enabled: true, console: true}

// Default returns the default logger.
func Default() *Logger {
	return defaultLogger
}

// SetOutput sets the log output file.
func (l *Logger) SetOutput(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// SetConsole enables/disables console output.
func (l *Logger) SetConsole(enabled bool) {
	l.mu.Lock()
	l.console = enabled
	l.mu.Unlock()
}

// Log writes a render log entry.
func (l *Logger) Log(entry *RenderLog) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}

	entry.Timestamp = time.Now()

	if l.console {
		status := "✓"
		if !entry.Success {
			status = "✗"
		}
		incr := ""
		if entry.Incremental {
			incr = " [incremental]"
		}
		approx := ""
		if entry.ApproximateLayout {
			approx = " [approx]"
		}
		fmt.Printf("[render] %s %s %s %s %dms%s%s\n",
			status, entry.RequestID, entry.Handler, entry.Strategy, entry.DurationMs, incr, approx)
		if entry.Error != "" {
			fmt.Printf("[render]   error: %s\n", entry.Error)
		}
	}

	if l.file != nil {
		data, _ := json.Marshal(entry)
		l.file.Write(append(data, '\n'))
	}
}

// Close closes the log file.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
