// Package jobtable is the job table (component 4.B): a bounded,
// index-stable-by-id record of every job. Compaction (sweep_terminal)
// shifts surviving entries down but never renumbers their id field,
// per the id-stability invariant.
package jobtable

import (
	"sync"
	"time"

	"github.com/haricheung/spoold/internal/spoolerr"
	"github.com/haricheung/spoold/internal/spooltypes"
)

// Table is the job table: a dense prefix of a fixed-capacity slice.
type Table struct {
	mu      sync.Mutex
	maxSize int
	nextID  int
	jobs    []spooltypes.Job
}

// New creates a Table bounded at maxSize entries.
func New(maxSize int) *Table {
	return &Table{maxSize: maxSize}
}

// ReserveSlot allocates a new job id and appends a Created job with the
// given input path and source type. Fails if the table is full.
func (t *Table) ReserveSlot(inputPath, sourceType string, now time.Time) (spooltypes.Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.jobs) >= t.maxSize {
		return spooltypes.Job{}, spoolerr.New(spoolerr.Capacity, "job table full")
	}

	j := spooltypes.Job{
		ID:              t.nextID,
		InputPath:       inputPath,
		SourceType:      sourceType,
		Status:          spooltypes.JobCreated,
		CreatedAt:       now,
		StatusChangedAt: now,
	}
	t.nextID++
	t.jobs = append(t.jobs, j)
	return j, nil
}

func (t *Table) indexOf(id int) int {
	for i := range t.jobs {
		if t.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the job with the given id.
func (t *Table) Get(id int) (spooltypes.Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.indexOf(id)
	if idx < 0 {
		return spooltypes.Job{}, false
	}
	return t.jobs[idx], true
}

// At returns the job at array position i (used for table-order
// iteration by try_schedule and jobs listing), not by id.
func (t *Table) At(i int) (spooltypes.Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.jobs) {
		return spooltypes.Job{}, false
	}
	return t.jobs[i], true
}

// Count returns the number of live jobs.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// All returns a snapshot copy of every live job, in table order.
func (t *Table) All() []spooltypes.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]spooltypes.Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// Mutate looks up the job by id and applies fn to the stored record in
// place, under the table lock. fn should set StatusChangedAt itself if the
// status field changes. Returns false if id is unknown.
func (t *Table) Mutate(id int, fn func(*spooltypes.Job)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := t.indexOf(id)
	if idx < 0 {
		return false
	}
	fn(&t.jobs[idx])
	return true
}

// SweepTerminal removes every job in {Finished, Aborted} whose
// status_changed_at is at least graceWindow in the past, compacting
// the table. onDelete is invoked (outside the lock-protected slice
// mutation boundary is not needed here since Table is single-threaded
// by the spooler's own model, but the hook runs while still holding
// no lock) for every removed job, allowing the caller to emit
// job_deleted and release owned resources. Surviving jobs keep their
// id fields; only their array position changes.
func (t *Table) SweepTerminal(now time.Time, graceWindow time.Duration, onDelete func(spooltypes.Job)) {
	t.mu.Lock()
	kept := t.jobs[:0]
	var removed []spooltypes.Job
	for _, j := range t.jobs {
		if (j.Status == spooltypes.JobFinished || j.Status == spooltypes.JobAborted) &&
			now.Sub(j.StatusChangedAt) >= graceWindow {
			removed = append(removed, j)
			continue
		}
		kept = append(kept, j)
	}
	t.jobs = kept
	t.mu.Unlock()

	for _, j := range removed {
		if onDelete != nil {
			onDelete(j)
		}
	}
}
