// Package cli is the command language and dispatch table (external
// interfaces, §6): tokenization, the 13 commands, and the two
// standardized error message formats.
package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/haricheung/spoold/internal/events"
	"github.com/haricheung/spoold/internal/scheduler"
	"github.com/haricheung/spoold/internal/spoolerr"
	"github.com/mattn/go-runewidth"
)

// Dispatcher tokenizes and executes one command line at a time against
// a Scheduler, emitting cmd_ok/cmd_error on every command per the
// external interface contract.
type Dispatcher struct {
	sched *scheduler.Scheduler
	bus   *events.Bus
	out   io.Writer
}

// New builds a Dispatcher.
func New(sched *scheduler.Scheduler, bus *events.Bus, out io.Writer) *Dispatcher {
	return &Dispatcher{sched: sched, bus: bus, out: out}
}

// argSpec describes a command's expected argument count. Variadic
// commands (only "conversion") use min with max = -1 (unbounded,
// up to the 32-token line cap).
type argSpec struct {
	min, max int
}

var commandArgs = map[string]argSpec{
	"help":       {0, 0},
	"quit":       {0, 0},
	"type":       {1, 1},
	"conversion": {3, -1},
	"printer":    {2, 2},
	"enable":     {1, 1},
	"disable":    {1, 1},
	"printers":   {0, 0},
	"print":      {1, 2},
	"cancel":     {1, 1},
	"pause":      {1, 1},
	"resume":     {1, 1},
	"jobs":       {0, 0},
}

// Quit is returned by Dispatch to signal the spooler should stop its
// command loop (the sentinel named in the external interface's quit
// command).
var Quit = fmt.Errorf("quit")

// Dispatch tokenizes and runs one command line. It always emits
// exactly one cmd_ok or cmd_error event, per the external interface
// contract, except for a blank line which is silently ignored.
func (d *Dispatcher) Dispatch(line string) error {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return nil
	}

	name, args := tokens[0], tokens[1:]
	spec, known := commandArgs[name]
	if !known {
		d.fail(spoolerr.Unrecognized(name))
		return nil
	}
	if len(args) < spec.min || (spec.max >= 0 && len(args) > spec.max) {
		required := spec.min
		d.fail(spoolerr.WrongArgCount(name, len(args), required))
		return nil
	}

	var err error
	switch name {
	case "help":
		d.printHelp()
	case "quit":
		d.ok()
		return Quit
	case "type":
		err = d.cmdType(args)
	case "conversion":
		err = d.cmdConversion(args)
	case "printer":
		err = d.cmdPrinter(args)
	case "enable":
		err = d.sched.Enable(args[0])
	case "disable":
		err = d.sched.Disable(args[0])
	case "printers":
		d.cmdPrinters()
	case "print":
		err = d.cmdPrint(args)
	case "cancel":
		err = d.cmdJobSignal(args, d.sched.Cancel)
	case "pause":
		err = d.cmdJobSignal(args, d.sched.Pause)
	case "resume":
		err = d.cmdJobSignal(args, d.sched.Resume)
	case "jobs":
		d.cmdJobs()
	}

	if err != nil {
		d.fail(err)
		return nil
	}
	d.ok()
	return nil
}

func (d *Dispatcher) ok()            { d.bus.Publish(events.CmdOK()) }
func (d *Dispatcher) fail(err error) { d.bus.Publish(events.CmdError(err.Error())) }

func (d *Dispatcher) cmdType(args []string) error {
	if !d.sched.DeclareType(args[0]) {
		return spoolerr.New(spoolerr.StateViolation, "type already declared: %s", args[0])
	}
	return nil
}

func (d *Dispatcher) cmdConversion(args []string) error {
	from, to, argv := args[0], args[1], args[2:]
	d.sched.DeclareConversion(from, to, argv)
	return nil
}

func (d *Dispatcher) cmdPrinter(args []string) error {
	_, err := d.sched.DeclarePrinter(args[0], args[1])
	return err
}

func (d *Dispatcher) cmdPrint(args []string) error {
	printer := ""
	if len(args) == 2 {
		printer = args[1]
	}
	_, err := d.sched.Submit(args[0], printer)
	return err
}

func (d *Dispatcher) cmdJobSignal(args []string, fn func(int) error) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return spoolerr.New(spoolerr.InvalidArgs, "invalid job id: %s", args[0])
	}
	return fn(id)
}

func (d *Dispatcher) printHelp() {
	fmt.Fprintln(d.out, "commands: help quit type conversion printer enable disable printers print cancel pause resume jobs")
}

func (d *Dispatcher) cmdPrinters() {
	for _, p := range d.sched.Printers() {
		fmt.Fprintf(d.out, "%-3d %-16s %-10s %s\n", p.ID, pad(p.Name, 16), p.NativeType, p.Status)
	}
}

func (d *Dispatcher) cmdJobs() {
	for _, j := range d.sched.Jobs() {
		fmt.Fprintf(d.out, "%-3d %-24s %-10s %-10s %s\n", j.ID, pad(j.InputPath, 24), j.SourceType, j.AssignedPrinter, j.Status)
		d.bus.Publish(events.JobStatus(j.ID, j.Status))
	}
}

// pad right-pads s to width using rune-width-aware measurement so
// wide-rune names still align in column output, mirroring the
// teacher's use of go-runewidth for terminal-safe text clipping.
func pad(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return runewidth.Truncate(s, width, "")
	}
	return s + spaces(width-w)
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
