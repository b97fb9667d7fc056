package scheduler

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/haricheung/spoold/internal/events"
	"github.com/haricheung/spoold/internal/spooltypes"
)

// StartReaper installs the SIGCHLD handler and starts the
// reconciliation goroutine named in the design notes: the handler
// itself (Go's signal.Notify channel) does nothing but deliver a
// wakeup; all actual work happens here, draining every pending child
// status change with a non-blocking wait before re-running the
// scheduler, matching the observable contract of 4.F ("reaper drains
// to completion, then scheduler runs"). Returns a stop function.
func (s *Scheduler) StartReaper(ctx context.Context) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGCHLD)

	done := make(chan struct{})
	quit := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				signal.Stop(sigCh)
				return
			case <-quit:
				return
			case <-sigCh:
				s.DrainChildEvents()
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(quit)
		<-done
	}
}

// DrainChildEvents repeatedly performs a non-blocking wait
// (WNOHANG|WUNTRACED|WCONTINUED) until no pending child status change
// remains, reconciling job/printer state for each one, then re-runs
// try_schedule once so printers just released can pick up pending
// jobs. Exported so the REPL's async hook (the signal-safe hook
// contract in the concurrency model) can also call it directly before
// blocking on line input.
func (s *Scheduler) DrainChildEvents() {
	for {
		var status syscall.WaitStatus
		pid, err := syscall.Wait4(-1, &status, syscall.WNOHANG|syscall.WUNTRACED|syscall.WCONTINUED, nil)
		if err != nil || pid <= 0 {
			break
		}
		s.reconcile(pid, status)
	}
	s.TryScheduleCreated()
}

func (s *Scheduler) reconcile(pid int, status syscall.WaitStatus) {
	s.mu.Lock()
	var target *spooltypes.Job
	for _, j := range s.jobs.All() {
		if j.SupervisorPGID == pid {
			jj := j
			target = &jj
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return
	}
	job := *target

	switch {
	case status.Stopped():
		s.setJobStatus(job.ID, spooltypes.JobPaused)
	case status.Continued():
		s.setJobStatus(job.ID, spooltypes.JobRunning)
	case status.Exited():
		var newStatus spooltypes.JobStatus
		if status.ExitStatus() == 0 {
			newStatus = spooltypes.JobFinished
		} else {
			// Open Question decision: a non-zero supervisor exit is
			// Aborted, not Finished (see SPEC_FULL.md).
			newStatus = spooltypes.JobAborted
		}
		s.finishJob(job, newStatus, status.ExitStatus())
	case status.Signaled():
		s.finishJob(job, spooltypes.JobAborted, -1)
	}
	s.mu.Unlock()
}

// setJobStatus handles the Paused/Running transitions, which have no
// printer side-effect. Must be called with mu held.
func (s *Scheduler) setJobStatus(id int, status spooltypes.JobStatus) {
	s.jobs.Mutate(id, func(j *spooltypes.Job) {
		j.Status = status
		j.StatusChangedAt = timeNow()
	})
	s.bus.Publish(events.JobStatus(id, status))
}

// finishJob handles the terminal transitions (Finished/Aborted), which
// release the owning printer back to Idle before publishing so that a
// subsequent try_schedule observes it, per the ordering guarantee in
// the concurrency model. Must be called with mu held.
func (s *Scheduler) finishJob(job spooltypes.Job, status spooltypes.JobStatus, exitCode int) {
	s.jobs.Mutate(job.ID, func(j *spooltypes.Job) {
		j.Status = status
		j.StatusChangedAt = timeNow()
		// Finished/Aborted is terminal: no supervisor remains, so
		// SupervisorPGID must not keep pointing at a reaped pid (see
		// Job.HasPipeline).
		j.SupervisorPGID = 0
	})
	if job.AssignedPrinter != "" {
		if err := s.printers.SetStatus(job.AssignedPrinter, spooltypes.PrinterIdle); err != nil {
			s.log.Error("finishJob: release printer %s: %v", job.AssignedPrinter, err)
		}
	}
	s.bus.Publish(events.JobStatus(job.ID, status))
	if status == spooltypes.JobFinished {
		ev := events.JobFinished(job.ID, exitCode)
		s.bus.Publish(ev)
		if jl := s.joblogs.Get(job.ID); jl != nil {
			jl.Append(ev)
		}
	} else {
		reason := "supervisor exited non-zero"
		if exitCode == -1 {
			reason = "supervisor terminated by signal"
		}
		ev := events.JobAborted(job.ID, reason)
		s.bus.Publish(ev)
		if jl := s.joblogs.Get(job.ID); jl != nil {
			jl.Append(ev)
		}
	}
}
