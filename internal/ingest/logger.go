package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nixlim/good-console/internal/events"
)

// Logger records every event the reader decodes, before filtering.
// Implementations must be safe for concurrent use.
type Logger interface {
	// LogEvent logs a decoded event with the input line it came from.
	LogEvent(line int, e events.Event)
}

// NopLogger discards all log output. This is the default when debug logging
// is not enabled.
type NopLogger struct{}

// LogEvent is a no-op.
func (NopLogger) LogEvent(int, events.Event) {}

// logEntry is the JSON structure written by FileLogger.
type logEntry struct {
	Timestamp string   `json:"ts"`
	Type      string   `json:"type"`
	Kind      string   `json:"kind"`
	Line      int      `json:"line"`
	Tags      []string `json:"tags,omitempty"`
}

// FileLogger writes structured JSON debug output to an io.Writer.
// Each line is a complete JSON object (JSONL format).
type FileLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewFileLogger creates a FileLogger that writes to the given writer.
func NewFileLogger(w io.Writer) *FileLogger {
	return &FileLogger{w: w}
}

// LogEvent writes a JSON line for a decoded event. Events without a
// timestamp are stamped with the current time.
func (l *FileLogger) LogEvent(line int, e events.Event) {
	meta := e.Metadata()
	ts := time.Now()
	if meta.Timestamp != 0 {
		ts = time.UnixMilli(meta.Timestamp)
	}

	l.write(logEntry{
		Timestamp: ts.UTC().Format(time.RFC3339Nano),
		Type:      "event",
		Kind:      e.Kind(),
		Line:      line,
		Tags:      meta.Tags,
	})
}

// write serialises a logEntry as JSON and writes it as a single line.
// Serialisation errors are silently dropped to avoid disrupting the reader.
func (l *FileLogger) write(entry logEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s\n", data)
}
