// Package agentlog writes per-agent activity logs, one file per agent
// identity under a shared directory.
//
// A Registry hands out one Logger per agent id for the life of the process;
// repeated Get calls for the same id return the same Logger, so components
// constructed at different times share a single log stream. Loggers implement
// memory.EventSink and are meant to be injected into the memory manager via
// memory.WithSink.
package agentlog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/statefulmind/recall-go-sdk/memory"
)

// Registry maps agent identities to loggers. Construct one per process and
// pass loggers where they are needed instead of reaching for global state.
type Registry struct {
	dir string

	mu      sync.Mutex
	loggers map[string]*Logger
}

// NewRegistry creates a registry writing under dir ("logs" when empty).
func NewRegistry(dir string) *Registry {
	if dir == "" {
		dir = "logs"
	}
	return &Registry{
		dir:     dir,
		loggers: make(map[string]*Logger),
	}
}

// Get returns the logger for an agent identity, creating it (and its log
// file) on first use.
func (r *Registry) Get(agentID string) (*Logger, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agentlog: agent id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.loggers[agentID]; ok {
		return l, nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("agentlog: create log directory: %w", err)
	}

	path := filepath.Join(r.dir, agentID+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("agentlog: open %s: %w", path, err)
	}

	l := &Logger{
		agentID: agentID,
		out:     log.New(f, "", log.LstdFlags),
		file:    f,
	}
	r.loggers[agentID] = l
	return l, nil
}

// Close closes every logger's file. The registry is unusable afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, l := range r.loggers {
		if err := l.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.loggers = make(map[string]*Logger)
	return firstErr
}

// Logger writes one agent's activity lines.
type Logger struct {
	agentID string
	out     *log.Logger
	file    *os.File
}

// Log writes one activity line: "[kind] {payload as JSON}".
func (l *Logger) Log(kind string, payload map[string]any) {
	rendered, err := json.Marshal(payload)
	if err != nil {
		rendered = []byte(fmt.Sprintf("%v", payload))
	}
	l.out.Printf("INFO [%s] %s", kind, rendered)
}

// OnEvent implements memory.EventSink.
func (l *Logger) OnEvent(ev memory.Event) {
	l.Log(ev.Kind, ev.Payload)
}
