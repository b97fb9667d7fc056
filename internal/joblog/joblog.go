// Package joblog keeps one JSONL event history file per job: nil-safe
// methods, a Registry as sole owner of file lifetime, one append-only
// file per entity id.
package joblog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/haricheung/spoold/internal/spooltypes"
)

// Entry is one line written to a job's JSONL log.
type Entry struct {
	Time   time.Time             `json:"time"`
	Kind   spooltypes.EventKind  `json:"kind"`
	Fields map[string]any        `json:"fields,omitempty"`
}

// JobLog owns one JSONL file for a single job id. A nil *JobLog
// silently discards writes, so callers never need a nil check before
// logging.
type JobLog struct {
	jobID int
	mu    sync.Mutex
	f     *os.File
}

// Append writes one Entry as a JSON line. Errors are swallowed beyond a
// best-effort write; job logging is an observability aid, not part of
// the job's correctness contract.
func (l *JobLog) Append(ev spooltypes.Event) {
	if l == nil || l.f == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	enc := json.NewEncoder(l.f)
	_ = enc.Encode(Entry{Time: ev.Timestamp, Kind: ev.Kind, Fields: ev.Fields})
}

func (l *JobLog) close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}

// Registry is the sole owner of job log file lifetimes, mirroring
// tasklog.Registry's role for per-task logs.
type Registry struct {
	dir string
	mu  sync.Mutex
	m   map[int]*JobLog
}

// NewRegistry creates a Registry rooted at dir, creating dir if needed.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("joblog: create dir: %w", err)
	}
	return &Registry{dir: dir, m: make(map[int]*JobLog)}, nil
}

// Open creates (or reopens) the log file for jobID and returns its
// JobLog. Safe to call multiple times for the same id.
func (r *Registry) Open(jobID int) (*JobLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if jl, ok := r.m[jobID]; ok {
		return jl, nil
	}
	path := filepath.Join(r.dir, fmt.Sprintf("job-%d.jsonl", jobID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("joblog: open %s: %w", path, err)
	}
	jl := &JobLog{jobID: jobID, f: f}
	r.m[jobID] = jl
	return jl, nil
}

// Get returns the JobLog for jobID if one is open, or nil.
func (r *Registry) Get(jobID int) *JobLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[jobID]
}

// Close closes and forgets the log for jobID.
func (r *Registry) Close(jobID int) error {
	r.mu.Lock()
	jl, ok := r.m[jobID]
	delete(r.m, jobID)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return jl.close()
}
