package events

import "github.com/haricheung/spoold/internal/spooltypes"

// The constructors below build the sf_* event payloads named in the
// external interface: cmd_ok, cmd_error, printer_defined, printer_status,
// job_created, job_status, job_started, job_finished, job_aborted,
// job_deleted.

func CmdOK() spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventCmdOK}
}

func CmdError(reason string) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventCmdError, Fields: map[string]any{"reason": reason}}
}

func PrinterDefined(name, typeName string) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventPrinterDefined, Fields: map[string]any{
		"name": name, "type": typeName,
	}}
}

func PrinterStatus(name string, status spooltypes.PrinterStatus) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventPrinterStatus, Fields: map[string]any{
		"name": name, "status": status,
	}}
}

func JobCreated(id int, path, sourceType string) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventJobCreated, Fields: map[string]any{
		"id": id, "path": path, "type": sourceType,
	}}
}

func JobStatus(id int, status spooltypes.JobStatus) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventJobStatus, Fields: map[string]any{
		"id": id, "status": status,
	}}
}

func JobStarted(id int, printer string, argv []string) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventJobStarted, Fields: map[string]any{
		"id": id, "printer": printer, "argv": argv,
	}}
}

func JobFinished(id int, exitCode int) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventJobFinished, Fields: map[string]any{
		"id": id, "exit_code": exitCode,
	}}
}

func JobAborted(id int, reason string) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventJobAborted, Fields: map[string]any{
		"id": id, "reason": reason,
	}}
}

func JobDeleted(id int) spooltypes.Event {
	return spooltypes.Event{Kind: spooltypes.EventJobDeleted, Fields: map[string]any{"id": id}}
}
