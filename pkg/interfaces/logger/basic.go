package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BasicLogger prints log lines using fmt.Printf. Used by tests and any
// demo entry point that does not need structured sinks.
type BasicLogger struct {
	mu     *sync.Mutex
	fields map[string]any
}

var _ Logger = (*BasicLogger)(nil)

// New returns a basic logger that writes to stdout.
func New() *BasicLogger {
	return &BasicLogger{
		mu:     &sync.Mutex{},
		fields: make(map[string]any),
	}
}

// Default returns the default basic logger implementation.
func Default() Logger {
	return New()
}

func (l *BasicLogger) With(args ...any) Logger {
	if len(args) == 0 {
		return l
	}
	next := l.clone()
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		next.fields[key] = args[i+1]
	}
	return next
}

func (l *BasicLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }
func (l *BasicLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *BasicLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *BasicLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }

func (l *BasicLogger) log(level, msg string, args ...any) {
	allArgs := append(fieldArgs(l.fields), args...)
	line := fmt.Sprintf("[%s] %s", level, msg)
	if rendered := formatArgs(allArgs); rendered != "" {
		line += " " + rendered
	}
	l.mu.Lock()
	fmt.Println(line)
	l.mu.Unlock()
}

func (l *BasicLogger) clone() *BasicLogger {
	out := &BasicLogger{
		mu:     l.mu,
		fields: make(map[string]any, len(l.fields)),
	}
	for k, v := range l.fields {
		out.fields[k] = v
	}
	return out
}

func fieldArgs(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var parts []string
	for i := 0; i < len(args); {
		if key, ok := args[i].(string); ok && i+1 < len(args) {
			parts = append(parts, fmt.Sprintf("%s=%s", key, fmt.Sprint(args[i+1])))
			i += 2
			continue
		}
		parts = append(parts, fmt.Sprint(args[i]))
		i++
	}
	return strings.Join(parts, " ")
}
