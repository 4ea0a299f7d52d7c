package ecl

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Logger receives trace lines. Values are printed with fmt.Sprint and
// joined by single spaces. Implementations must be safe for concurrent use.
type Logger interface {
	LogLine(values ...any)
}

// WriterLogger returns a Logger that writes one line per call to w.
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

type writerLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *writerLogger) LogLine(values ...any) {
	line := traceLine(values)
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, line+"\n")
}

// BufferedLogger keeps trace lines in memory.
type BufferedLogger struct {
	mu    sync.Mutex
	lines []string
}

func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) LogLine(values ...any) {
	line := traceLine(values)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

// Lines returns a copy of the recorded lines.
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// String returns the recorded lines, each ended by a newline.
func (l *BufferedLogger) String() string {
	var sb strings.Builder
	for _, line := range l.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

type nullLogger struct{}

func (nullLogger) LogLine(...any) {}

// NullLogger returns a Logger that drops everything.
func NullLogger() Logger {
	return nullLogger{}
}

func traceLine(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
