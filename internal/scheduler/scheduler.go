// Package scheduler implements job scheduling, the child-event reaper,
// and the expiry sweeper. It is the single point that mutates the job
// table and printer registry, serialized by a mutex so the rest of the
// module can reason about it as a single-threaded state machine, even
// though the reaper wakes up from an async OS signal.
package scheduler

import (
	"os"
	"sync"
	"time"

	"github.com/haricheung/spoold/internal/convert"
	"github.com/haricheung/spoold/internal/events"
	"github.com/haricheung/spoold/internal/jobtable"
	"github.com/haricheung/spoold/internal/joblog"
	"github.com/haricheung/spoold/internal/pipeline"
	"github.com/haricheung/spoold/internal/printer"
	"github.com/haricheung/spoold/internal/spoolerr"
	"github.com/haricheung/spoold/internal/spoollog"
	"github.com/haricheung/spoold/internal/spooltypes"
)

// GraceWindow is the default delay between a job entering a terminal
// state and its deletion, per the data model's grace-window invariant.
const GraceWindow = 10 * time.Second

// timeNow is indirected so reaper tests can exercise grace-window
// adjacent behavior deterministically if needed.
var timeNow = time.Now

// Scheduler owns the printer registry and job table and is the only
// component that mutates them.
type Scheduler struct {
	mu sync.Mutex

	bus      *events.Bus
	printers *printer.Registry
	jobs     *jobtable.Table
	conv     *convert.Registry
	log      *spoollog.Logger
	joblogs  *joblog.Registry
	spoolDir string
	grace    time.Duration

	// Indirections over process launch/signaling so tests can run
	// without actually forking converter pipelines.
	launch func(pipeline.Plan) (int, error)
	pause  func(int) error
	resume func(int) error
	cancel func(int, bool) error
}

// New constructs a Scheduler wired to real process launch/signaling.
func New(bus *events.Bus, printers *printer.Registry, jobs *jobtable.Table, conv *convert.Registry, log *spoollog.Logger, joblogs *joblog.Registry, spoolDir string) *Scheduler {
	return &Scheduler{
		bus:      bus,
		printers: printers,
		jobs:     jobs,
		conv:     conv,
		log:      log,
		joblogs:  joblogs,
		spoolDir: spoolDir,
		grace:    GraceWindow,
		launch:   pipeline.Launch,
		pause:    pipeline.Pause,
		resume:   pipeline.Resume,
		cancel:   pipeline.Cancel,
	}
}

// candidate describes one compatible idle printer found while matching
// a job: the chain length is used to prefer direct matches.
type candidate struct {
	p         spooltypes.Printer
	chain     []convert.Invocation
	chainLen  int
}

// compatiblePrinter finds the shortest-chain idle printer compatible
// with sourceType, preferring direct matches and breaking ties by
// registry order, per the compatibility predicate in 4.E. Must be
// called with mu held.
func (s *Scheduler) compatiblePrinter(sourceType string) (candidate, bool) {
	best := candidate{chainLen: -1}
	for _, p := range s.printers.All() {
		if p.Status != spooltypes.PrinterIdle {
			continue
		}
		chain, ok := s.conv.FindConversionPath(sourceType, p.NativeType)
		if !ok {
			continue
		}
		if best.chainLen == -1 || len(chain) < best.chainLen {
			best = candidate{p: p, chain: chain, chainLen: len(chain)}
		}
	}
	if best.chainLen == -1 {
		return candidate{}, false
	}
	return best, true
}

// eligibilityMask computes a bitmask over the printer registry: bit i
// set iff the printer at index i is idle and compatible with
// sourceType. This replaces the reference's unconditional
// eligible=ffffffff placeholder (see SPEC_FULL.md's Open Question
// decisions) with a real value for the debug submission summary.
func (s *Scheduler) eligibilityMask(sourceType string) uint32 {
	var mask uint32
	for _, p := range s.printers.All() {
		if p.Status != spooltypes.PrinterIdle {
			continue
		}
		if _, ok := s.conv.FindConversionPath(sourceType, p.NativeType); ok {
			if p.ID < 32 {
				mask |= 1 << uint(p.ID)
			}
		}
	}
	return mask
}

func stageArgv(chain []convert.Invocation) []pipeline.StageSpec {
	stages := make([]pipeline.StageSpec, len(chain))
	for i, inv := range chain {
		stages[i] = pipeline.StageSpec{Argv: inv.Argv}
	}
	return stages
}

// launchPipeline starts the pipeline for job on printer p via chain,
// then promotes job and printer state. Must be called with mu held.
func (s *Scheduler) launchPipeline(job spooltypes.Job, p spooltypes.Printer, chain []convert.Invocation) error {
	plan := pipeline.Plan{
		JobID:           job.ID,
		InputPath:       job.InputPath,
		PrinterName:     p.Name,
		PrinterType:     p.NativeType,
		PrinterSpoolDir: s.spoolDir,
		Stages:          stageArgv(chain),
	}

	pgid, err := s.launch(plan)
	if err != nil {
		return spoolerr.New(spoolerr.Launch, "launch pipeline: %v", err)
	}

	now := time.Now()
	s.jobs.Mutate(job.ID, func(j *spooltypes.Job) {
		j.Status = spooltypes.JobRunning
		j.AssignedPrinter = p.Name
		j.SupervisorPGID = pgid
		j.StatusChangedAt = now
	})
	if err := s.printers.SetStatus(p.Name, spooltypes.PrinterBusy); err != nil {
		s.log.Error("launchPipeline: set printer busy: %v", err)
	}

	argv := make([]string, 0, len(chain))
	for _, inv := range chain {
		argv = append(argv, inv.Argv[0])
	}

	s.bus.Publish(events.JobStatus(job.ID, spooltypes.JobRunning))
	ev := events.JobStarted(job.ID, p.Name, argv)
	s.bus.Publish(ev)
	if jl, err := s.joblogs.Open(job.ID); err == nil {
		jl.Append(ev)
	}
	return nil
}

// Submit implements the submit entry point (4.E.1).
func (s *Scheduler) Submit(filePath, explicitPrinter string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filePath); err != nil {
		return 0, spoolerr.New(spoolerr.Launch, "open %s: %v", filePath, err)
	}

	sourceType, ok := s.conv.InferType(filePath)
	if !ok {
		return 0, spoolerr.New(spoolerr.UnknownIdentifier, "cannot infer type for %s", filePath)
	}

	var target *spooltypes.Printer
	var chain []convert.Invocation
	if explicitPrinter != "" {
		p, ok := s.printers.FindByName(explicitPrinter)
		if !ok {
			return 0, spoolerr.New(spoolerr.UnknownIdentifier, "unknown printer: %s", explicitPrinter)
		}
		if p.Status != spooltypes.PrinterIdle {
			return 0, spoolerr.New(spoolerr.StateViolation, "printer %s is not idle", explicitPrinter)
		}
		c, ok := s.conv.FindConversionPath(sourceType, p.NativeType)
		if !ok {
			return 0, spoolerr.New(spoolerr.StateViolation, "printer %s cannot accept type %s", explicitPrinter, sourceType)
		}
		target = &p
		chain = c
	}

	job, err := s.jobs.ReserveSlot(filePath, sourceType, time.Now())
	if err != nil {
		return 0, err
	}

	mask := s.eligibilityMask(sourceType)
	explicitDesc := "none"
	if explicitPrinter != "" {
		explicitDesc = explicitPrinter
	}
	s.log.Debug("submit: job=%d type=%s printer=%s eligible=%08x", job.ID, sourceType, explicitDesc, mask)

	s.bus.Publish(events.JobCreated(job.ID, filePath, sourceType))
	s.bus.Publish(events.JobStatus(job.ID, spooltypes.JobCreated))

	if target != nil {
		if err := s.launchPipeline(job, *target, chain); err != nil {
			// Slot was reserved; a launch failure after reservation
			// goes straight to Aborted via the normal state path, not
			// a rolled-back submission (see error handling design).
			s.jobs.Mutate(job.ID, func(j *spooltypes.Job) {
				j.Status = spooltypes.JobAborted
				j.StatusChangedAt = time.Now()
			})
			s.bus.Publish(events.JobStatus(job.ID, spooltypes.JobAborted))
			s.bus.Publish(events.JobAborted(job.ID, err.Error()))
			return job.ID, err
		}
		return job.ID, nil
	}

	s.tryScheduleCreatedLocked()
	return job.ID, nil
}

// TryScheduleCreated implements the try_schedule entry point (4.E.2).
func (s *Scheduler) TryScheduleCreated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tryScheduleCreatedLocked()
}

func (s *Scheduler) tryScheduleCreatedLocked() {
	for _, job := range s.jobs.All() {
		if job.Status != spooltypes.JobCreated {
			continue
		}
		cand, ok := s.compatiblePrinter(job.SourceType)
		if !ok {
			continue
		}
		if err := s.launchPipeline(job, cand.p, cand.chain); err != nil {
			s.log.Error("try_schedule: launch job %d: %v", job.ID, err)
		}
	}
}

// Cancel implements cancel. Cancelling a Created job aborts it directly
// (no fork ever happens); cancelling a Running/Paused job signals the
// group and leaves state transition to the reaper.
func (s *Scheduler) Cancel(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs.Get(id)
	if !ok {
		return spoolerr.New(spoolerr.UnknownIdentifier, "unknown job: %d", id)
	}

	switch job.Status {
	case spooltypes.JobCreated:
		now := time.Now()
		s.jobs.Mutate(id, func(j *spooltypes.Job) {
			j.Status = spooltypes.JobAborted
			j.StatusChangedAt = now
		})
		s.bus.Publish(events.JobStatus(id, spooltypes.JobAborted))
		s.bus.Publish(events.JobAborted(id, "cancelled before scheduling"))
		return nil
	case spooltypes.JobRunning, spooltypes.JobPaused:
		return s.cancel(job.SupervisorPGID, job.Status == spooltypes.JobPaused)
	default:
		return spoolerr.New(spoolerr.StateViolation, "job %d is already terminal", id)
	}
}

// Pause signals a running job's group to stop. The status transition
// to Paused is made only by the reaper.
func (s *Scheduler) Pause(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs.Get(id)
	if !ok {
		return spoolerr.New(spoolerr.UnknownIdentifier, "unknown job: %d", id)
	}
	if job.Status != spooltypes.JobRunning {
		return spoolerr.New(spoolerr.StateViolation, "job %d is not running", id)
	}
	return s.pause(job.SupervisorPGID)
}

// Resume signals a paused job's group to continue. The status
// transition to Running is made only by the reaper.
func (s *Scheduler) Resume(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs.Get(id)
	if !ok {
		return spoolerr.New(spoolerr.UnknownIdentifier, "unknown job: %d", id)
	}
	if job.Status != spooltypes.JobPaused {
		return spoolerr.New(spoolerr.StateViolation, "job %d is not paused", id)
	}
	return s.resume(job.SupervisorPGID)
}

// Enable transitions a printer Disabled -> Idle and triggers
// scheduling so any waiting job can claim it.
func (s *Scheduler) Enable(name string) error {
	s.mu.Lock()
	p, ok := s.printers.FindByName(name)
	if !ok {
		s.mu.Unlock()
		return spoolerr.New(spoolerr.UnknownIdentifier, "unknown printer: %s", name)
	}
	if p.Status != spooltypes.PrinterDisabled {
		s.mu.Unlock()
		return spoolerr.New(spoolerr.StateViolation, "printer %s is not disabled", name)
	}
	if err := s.printers.SetStatus(name, spooltypes.PrinterIdle); err != nil {
		s.mu.Unlock()
		return err
	}
	s.tryScheduleCreatedLocked()
	s.mu.Unlock()
	return nil
}

// Disable transitions a printer Idle -> Disabled (see SPEC_FULL.md's
// Open Question decision: disable is implemented and refuses a Busy
// printer rather than preempting its job).
func (s *Scheduler) Disable(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.printers.FindByName(name)
	if !ok {
		return spoolerr.New(spoolerr.UnknownIdentifier, "unknown printer: %s", name)
	}
	if p.Status != spooltypes.PrinterIdle {
		return spoolerr.New(spoolerr.StateViolation, "printer %s is not idle", name)
	}
	return s.printers.SetStatus(name, spooltypes.PrinterDisabled)
}

// Printers returns a snapshot of the printer registry.
func (s *Scheduler) Printers() []spooltypes.Printer { return s.printers.All() }

// Jobs returns a snapshot of the job table.
func (s *Scheduler) Jobs() []spooltypes.Job { return s.jobs.All() }

// DeclareType registers a file type.
func (s *Scheduler) DeclareType(name string) bool { return s.conv.DeclareType(name) }

// DeclareConversion registers a converter edge.
func (s *Scheduler) DeclareConversion(from, to string, argv []string) {
	s.conv.DeclareConversion(from, to, argv)
}

// DeclarePrinter declares a new printer.
func (s *Scheduler) DeclarePrinter(name, typeName string) (spooltypes.Printer, error) {
	if !s.conv.FindType(typeName) {
		return spooltypes.Printer{}, spoolerr.New(spoolerr.UnknownIdentifier, "unknown type: %s", typeName)
	}
	return s.printers.Declare(name, typeName)
}

// Sweep runs the expiry sweeper (4.G): it removes terminal jobs at
// least GraceWindow past their last status change, compacting the
// table without renumbering survivors.
func (s *Scheduler) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs.SweepTerminal(now, s.grace, func(j spooltypes.Job) {
		s.bus.Publish(events.JobDeleted(j.ID))
		if err := s.joblogs.Close(j.ID); err != nil {
			s.log.Error("sweep: close joblog %d: %v", j.ID, err)
		}
	})
}
