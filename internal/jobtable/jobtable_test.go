package jobtable

import (
	"testing"
	"time"

	"github.com/haricheung/spoold/internal/spoolerr"
	"github.com/haricheung/spoold/internal/spooltypes"
)

func TestReserveSlotAssignsStableIDs(t *testing.T) {
	tb := New(4)
	now := time.Now()

	j0, err := tb.ReserveSlot("a.pdf", "pdf", now)
	if err != nil {
		t.Fatalf("ReserveSlot: %v", err)
	}
	j1, err := tb.ReserveSlot("b.pdf", "pdf", now)
	if err != nil {
		t.Fatalf("ReserveSlot: %v", err)
	}
	if j0.ID != 0 || j1.ID != 1 {
		t.Fatalf("expected ids 0,1; got %d,%d", j0.ID, j1.ID)
	}
}

func TestReserveSlotCapacity(t *testing.T) {
	tb := New(1)
	now := time.Now()
	if _, err := tb.ReserveSlot("a.pdf", "pdf", now); err != nil {
		t.Fatalf("ReserveSlot: %v", err)
	}
	_, err := tb.ReserveSlot("b.pdf", "pdf", now)
	if spoolerr.KindOf(err) != spoolerr.Capacity {
		t.Fatalf("expected Capacity error, got %v", err)
	}
}

func TestSweepTerminalPreservesIDsAndCompacts(t *testing.T) {
	tb := New(4)
	now := time.Now()
	old := now.Add(-20 * time.Second)

	j0, _ := tb.ReserveSlot("a.pdf", "pdf", old)
	j1, _ := tb.ReserveSlot("b.pdf", "pdf", now)
	j2, _ := tb.ReserveSlot("c.pdf", "pdf", old)

	tb.Mutate(j0.ID, func(j *spooltypes.Job) { j.Status = spooltypes.JobFinished; j.StatusChangedAt = old })
	tb.Mutate(j1.ID, func(j *spooltypes.Job) { j.Status = spooltypes.JobRunning })
	tb.Mutate(j2.ID, func(j *spooltypes.Job) { j.Status = spooltypes.JobAborted; j.StatusChangedAt = old })

	var deleted []int
	tb.SweepTerminal(now, 10*time.Second, func(j spooltypes.Job) { deleted = append(deleted, j.ID) })

	if len(deleted) != 2 {
		t.Fatalf("expected 2 jobs deleted, got %v", deleted)
	}
	if tb.Count() != 1 {
		t.Fatalf("expected 1 surviving job, got %d", tb.Count())
	}
	surv, ok := tb.Get(j1.ID)
	if !ok || surv.ID != j1.ID {
		t.Fatalf("surviving job should keep id %d, got %v ok=%v", j1.ID, surv, ok)
	}
}

func TestSweepTerminalRespectsGraceWindow(t *testing.T) {
	tb := New(4)
	now := time.Now()
	j0, _ := tb.ReserveSlot("a.pdf", "pdf", now)
	tb.Mutate(j0.ID, func(j *spooltypes.Job) { j.Status = spooltypes.JobFinished; j.StatusChangedAt = now })

	var deleted []int
	tb.SweepTerminal(now.Add(5*time.Second), 10*time.Second, func(j spooltypes.Job) { deleted = append(deleted, j.ID) })
	if len(deleted) != 0 {
		t.Fatalf("job should not be swept before grace window elapses")
	}
}
