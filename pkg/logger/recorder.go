package logger

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is a single message captured by Recorder.
type Entry struct {
	Method  string
	Message string
	Args    []any
}

// Recorder keeps every message in memory. It is intended for tests and for
// callers that want to surface binding failures after a render pass.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

var _ Logger = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Log(args ...any)   { r.record("log", args) }
func (r *Recorder) Info(args ...any)  { r.record("info", args) }
func (r *Recorder) Warn(args ...any)  { r.record("warn", args) }
func (r *Recorder) Error(args ...any) { r.record("error", args) }

func (r *Recorder) Dir(obj any, title string) {
	msg := Dump(obj)
	if title = strings.TrimSpace(title); title != "" {
		msg = title + ":\n" + msg
	}
	r.append(Entry{Method: "dir", Message: msg, Args: []any{obj}})
}

// Entries returns a copy of the captured messages.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Messages returns the messages logged with method, in order.
func (r *Recorder) Messages(method string) []string {
	var out []string
	for _, entry := range r.Entries() {
		if entry.Method == method {
			out = append(out, entry.Message)
		}
	}
	return out
}

// Reset drops all captured entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

func (r *Recorder) record(method string, args []any) {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}
	r.append(Entry{Method: method, Message: strings.Join(parts, " "), Args: args})
}

func (r *Recorder) append(entry Entry) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}
