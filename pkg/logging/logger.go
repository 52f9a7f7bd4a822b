// Package logging provides structured logging for the toycc CLI: leveled,
// field-tagged log entries in text or JSON, each batch of output from a
// single `compile` invocation tagged with a random compile ID so
// concurrent `toycc serve` requests can be told apart in the log stream.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log entry.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Format selects the logger's output encoding.
type Format int

const (
	TextFormat Format = iota
	JSONFormat
)

// Entry is a single structured log record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	CompileID string         `json:"compile_id,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger writes structured log entries to an output stream.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	minLevel  Level
	format    Format
	compileID string
	fields    map[string]any
}

// New creates a Logger writing to w at minLevel in the given format.
func New(w io.Writer, minLevel Level, format Format) *Logger {
	return &Logger{out: w, minLevel: minLevel, format: format}
}

// NewCompile returns a Logger for a single compile invocation, tagging
// every entry it writes with a fresh compile ID (google/uuid) so `toycc
// serve`'s concurrent requests can be told apart in the shared log
// stream.
func NewCompile(w io.Writer, minLevel Level, format Format) *Logger {
	l := New(w, minLevel, format)
	l.compileID = uuid.NewString()
	return l
}

// With returns a child Logger that prefixes every entry with the given
// fields in addition to any the parent already carries.
func (l *Logger) With(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{
		out:       l.out,
		minLevel:  l.minLevel,
		format:    l.format,
		compileID: l.compileID,
		fields:    merged,
	}
}

func (l *Logger) log(level Level, msg string, fields map[string]any) {
	if level < l.minLevel {
		return
	}
	merged := l.fields
	if len(fields) > 0 {
		merged = make(map[string]any, len(l.fields)+len(fields))
		for k, v := range l.fields {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}
	}

	entry := Entry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		CompileID: l.compileID,
		Fields:    merged,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.format {
	case JSONFormat:
		b, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.out, "log marshal error: %v\n", err)
			return
		}
		fmt.Fprintln(l.out, string(b))
	default:
		l.writeText(entry)
	}
}

func (l *Logger) writeText(e Entry) {
	fmt.Fprintf(l.out, "%s [%-5s]", e.Timestamp.Format(time.RFC3339), e.Level)
	if e.CompileID != "" {
		fmt.Fprintf(l.out, " compile=%s", e.CompileID)
	}
	fmt.Fprintf(l.out, " %s", e.Message)
	for k, v := range e.Fields {
		fmt.Fprintf(l.out, " %s=%v", k, v)
	}
	fmt.Fprintln(l.out)
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { l.logv(Debug, msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { l.logv(Info, msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { l.logv(Warn, msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { l.logv(Error, msg, fields) }

func (l *Logger) logv(level Level, msg string, fields []map[string]any) {
	var f map[string]any
	if len(fields) > 0 {
		f = fields[0]
	}
	l.log(level, msg, f)
}

// Default returns a Logger writing text-formatted Info-and-above entries
// to stderr. pkg/pipeline falls back to it when no Logger is given.
func Default() *Logger {
	return New(os.Stderr, Info, TextFormat)
}
