package scheduler

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/haricheung/spoold/internal/pipeline"
	"github.com/haricheung/spoold/internal/spooltypes"
)

// waitReal blocks for a real child status change with the given extra
// options, the same WNOHANG-free pattern the supervisor's own reaper
// uses internally but invoked directly here so the test can hand the
// resulting WaitStatus straight to reconcile.
func waitReal(t *testing.T, pid int, options int) syscall.WaitStatus {
	t.Helper()
	var status syscall.WaitStatus
	got, err := syscall.Wait4(pid, &status, options, nil)
	if err != nil {
		t.Fatalf("Wait4: %v", err)
	}
	if got != pid {
		t.Fatalf("Wait4 returned pid %d, want %d", got, pid)
	}
	return status
}

func TestDrainChildEventsFinishesJobAndReleasesPrinter(t *testing.T) {
	s := newTestScheduler(t)
	s.DeclareType("txt")
	s.DeclarePrinter("alice", "txt")
	s.Enable("alice")

	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start true: %v", err)
	}
	s.launch = func(p pipeline.Plan) (int, error) { return cmd.Process.Pid, nil }

	path := writeTempFile(t, "a.txt")
	id, err := s.Submit(path, "alice")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job, _ := s.jobs.Get(id)
	if job.SupervisorPGID != cmd.Process.Pid {
		t.Fatalf("expected SupervisorPGID %d, got %d", cmd.Process.Pid, job.SupervisorPGID)
	}

	// Let the real process actually exit, then let the production
	// drain loop (wait-any, not a direct reconcile call) reap and
	// reconcile it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.DrainChildEvents()
		job, _ = s.jobs.Get(id)
		if job.Status == spooltypes.JobFinished || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if job.Status != spooltypes.JobFinished {
		t.Fatalf("expected Finished, got %v", job.Status)
	}
	if job.SupervisorPGID != 0 {
		t.Fatalf("expected SupervisorPGID cleared on terminal transition, got %d", job.SupervisorPGID)
	}
	p, _ := s.printers.FindByName("alice")
	if p.Status != spooltypes.PrinterIdle {
		t.Fatalf("expected printer released to Idle, got %v", p.Status)
	}
}

func TestReconcilePausedThenRunningThenAbortedBySignal(t *testing.T) {
	s := newTestScheduler(t)
	s.DeclareType("txt")
	s.DeclarePrinter("bob", "txt")
	s.Enable("bob")

	cmd := exec.Command("sleep", "5")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	pid := cmd.Process.Pid
	s.launch = func(p pipeline.Plan) (int, error) { return pid, nil }

	path := writeTempFile(t, "b.txt")
	id, err := s.Submit(path, "bob")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := syscall.Kill(-pid, syscall.SIGSTOP); err != nil {
		t.Fatalf("SIGSTOP: %v", err)
	}
	status := waitReal(t, pid, syscall.WUNTRACED)
	s.reconcile(pid, status)
	job, _ := s.jobs.Get(id)
	if job.Status != spooltypes.JobPaused {
		t.Fatalf("expected Paused, got %v", job.Status)
	}
	if job.SupervisorPGID != pid {
		t.Fatalf("Paused job must keep its SupervisorPGID, got %d", job.SupervisorPGID)
	}

	if err := syscall.Kill(-pid, syscall.SIGCONT); err != nil {
		t.Fatalf("SIGCONT: %v", err)
	}
	status = waitReal(t, pid, syscall.WCONTINUED)
	s.reconcile(pid, status)
	job, _ = s.jobs.Get(id)
	if job.Status != spooltypes.JobRunning {
		t.Fatalf("expected Running after continue, got %v", job.Status)
	}
	p, _ := s.printers.FindByName("bob")
	if p.Status != spooltypes.PrinterBusy {
		t.Fatalf("printer should stay Busy across pause/resume, got %v", p.Status)
	}

	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		t.Fatalf("SIGTERM: %v", err)
	}
	status = waitReal(t, pid, 0)
	s.reconcile(pid, status)
	job, _ = s.jobs.Get(id)
	if job.Status != spooltypes.JobAborted {
		t.Fatalf("expected Aborted after SIGTERM, got %v", job.Status)
	}
	if job.SupervisorPGID != 0 {
		t.Fatalf("expected SupervisorPGID cleared after terminal transition, got %d", job.SupervisorPGID)
	}
	p, _ = s.printers.FindByName("bob")
	if p.Status != spooltypes.PrinterIdle {
		t.Fatalf("expected printer released to Idle after abort, got %v", p.Status)
	}
}
