// Package spooltypes holds the shared data model and event envelope for
// every other package in the spooler: printers, jobs, and the sf_* event
// family published on the bus.
package spooltypes

import "time"

// PrinterStatus is the lifecycle state of a declared printer.
type PrinterStatus string

const (
	PrinterDisabled PrinterStatus = "Disabled"
	PrinterIdle     PrinterStatus = "Idle"
	PrinterBusy     PrinterStatus = "Busy"
)

// JobStatus is the lifecycle state of a submitted job.
type JobStatus string

const (
	JobCreated  JobStatus = "Created"
	JobRunning  JobStatus = "Running"
	JobPaused   JobStatus = "Paused"
	JobFinished JobStatus = "Finished"
	JobAborted  JobStatus = "Aborted"
	JobDeleted  JobStatus = "Deleted"
)

// Printer is a declared output device. Name is the external identity;
// id is its registry index and is never reused once assigned (the
// registry never compacts).
type Printer struct {
	ID         int
	Name       string
	NativeType string
	Status     PrinterStatus
}

// Job is a submitted print job. ID is stable across table compaction
// until the job itself is deleted.
type Job struct {
	ID               int
	InputPath        string
	SourceType       string
	AssignedPrinter  string // printer name, empty if unassigned
	Status           JobStatus
	SupervisorPGID   int // 0 if none
	CreatedAt        time.Time
	StatusChangedAt  time.Time
}

// HasPipeline reports whether the job owns a live supervisor process
// group, matching invariant 2 of the data model (supervisor_pgid is
// set iff status in {Running, Paused}).
func (j Job) HasPipeline() bool {
	return j.SupervisorPGID != 0
}

// EventKind names one of the sf_* events the core emits.
type EventKind string

const (
	EventCmdOK          EventKind = "cmd_ok"
	EventCmdError       EventKind = "cmd_error"
	EventPrinterDefined EventKind = "printer_defined"
	EventPrinterStatus  EventKind = "printer_status"
	EventJobCreated     EventKind = "job_created"
	EventJobStatus      EventKind = "job_status"
	EventJobStarted     EventKind = "job_started"
	EventJobFinished    EventKind = "job_finished"
	EventJobAborted     EventKind = "job_aborted"
	EventJobDeleted     EventKind = "job_deleted"
)

// Event is the envelope published on the event bus for every sf_*
// notification. Fields holds the event-specific fields as a flat map
// used by the console and JSONL sinks so they don't need a type switch
// per event kind.
type Event struct {
	ID        string
	Kind      EventKind
	Timestamp time.Time
	Fields    map[string]any
}
