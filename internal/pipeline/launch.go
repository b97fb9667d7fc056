package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Launch starts a detached supervisor process for plan and returns its
// process group id (equal to its pid, since it establishes a new
// group). The supervisor is released immediately: the spooler's global
// reaper, not this call, owns reaping it (see internal/scheduler's
// SIGCHLD-driven drain loop), matching the reference's single-thread,
// async-reap model.
func Launch(plan Plan) (pgid int, err error) {
	self, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("pipeline: resolve self executable: %w", err)
	}

	planR, planW, err := os.Pipe()
	if err != nil {
		return 0, fmt.Errorf("pipeline: create plan pipe: %w", err)
	}

	cmd := exec.Command(self, ReexecSentinel)
	cmd.ExtraFiles = []*os.File{planR}
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		planR.Close()
		planW.Close()
		return 0, fmt.Errorf("pipeline: start supervisor: %w", err)
	}

	// The child has its own copy of the read end now.
	planR.Close()

	go func() {
		defer planW.Close()
		_ = json.NewEncoder(planW).Encode(plan)
	}()

	pid := cmd.Process.Pid
	// Detach: the global reaper reaps this pid via Wait4(-1, ...), not
	// this goroutine, so do not call cmd.Wait().
	_ = cmd.Process.Release()

	return pid, nil
}

// Signal sends sig to every process in the pipeline's group.
func Signal(pgid int, sig syscall.Signal) error {
	return syscall.Kill(-pgid, sig)
}

// Pause sends SIGSTOP to the group. The job's status is not changed
// here; the reaper makes that transition once it observes the stop.
func Pause(pgid int) error { return Signal(pgid, syscall.SIGSTOP) }

// Resume sends SIGCONT to the group.
func Resume(pgid int) error { return Signal(pgid, syscall.SIGCONT) }

// Cancel terminates a running or paused pipeline. A paused group must
// first be continued so it can actually observe and act on SIGTERM.
func Cancel(pgid int, paused bool) error {
	if paused {
		if err := Signal(pgid, syscall.SIGCONT); err != nil {
			return err
		}
	}
	return Signal(pgid, syscall.SIGTERM)
}
