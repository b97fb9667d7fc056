// Command spoold is the interactive print spooler. It accepts textual
// commands describing printers, file types, and print jobs, then drives
// jobs to completion by spawning pipelines of external conversion
// processes and streaming their output to printer endpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/haricheung/spoold/internal/cli"
	"github.com/haricheung/spoold/internal/convert"
	"github.com/haricheung/spoold/internal/events"
	"github.com/haricheung/spoold/internal/jobtable"
	"github.com/haricheung/spoold/internal/joblog"
	"github.com/haricheung/spoold/internal/pipeline"
	"github.com/haricheung/spoold/internal/printer"
	"github.com/haricheung/spoold/internal/scheduler"
	"github.com/haricheung/spoold/internal/spoollog"
	"github.com/joho/godotenv"
)

const (
	maxPrinters = 32
	maxJobs     = 256
)

func main() {
	// A re-exec'd copy of this binary runs as a pipeline supervisor
	// instead of the REPL; see internal/pipeline's package doc.
	if len(os.Args) >= 2 && os.Args[1] == pipeline.ReexecSentinel {
		pipeline.RunSupervisor()
		return
	}

	_ = godotenv.Load(".env")

	cacheDir, err := cacheDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "spoold: resolve cache dir:", err)
		os.Exit(1)
	}

	log, err := spoollog.Open(cacheDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "spoold: open log:", err)
		os.Exit(1)
	}
	defer log.Close()

	bus := events.New()
	events.NewConsole(bus, os.Stdout)

	joblogs, err := joblog.NewRegistry(filepath.Join(cacheDir, "jobs"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "spoold: init job log registry:", err)
		os.Exit(1)
	}

	sched := scheduler.New(
		bus,
		printer.New(bus, maxPrinters),
		jobtable.New(maxJobs),
		convert.New(),
		log,
		joblogs,
		filepath.Join(cacheDir, "spool"),
	)

	// Context cancelled on SIGTERM or when the REPL's quit command runs.
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	defer signal.Stop(sigCh)

	stopReaper := sched.StartReaper(ctx)
	defer stopReaper()

	runREPL(ctx, cancel, sched, bus, cacheDir)
}

func cacheDir() (string, error) {
	if d := os.Getenv("SPOOLD_CACHE_DIR"); d != "" {
		return d, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "spoold"), nil
}

func runREPL(ctx context.Context, cancel context.CancelFunc, sched *scheduler.Scheduler, bus *events.Bus, cacheDir string) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "spoold> ",
		HistoryFile: filepath.Join(cacheDir, "history"),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "spoold: init readline:", err)
		os.Exit(1)
	}
	defer rl.Close()

	dispatcher := cli.New(sched, bus, os.Stdout)

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := rl.Readline()
			if err != nil { // io.EOF or readline.ErrInterrupt
				return
			}
			lines <- line
		}
	}()

	for {
		// The signal-safe hook contract: poll for pending child
		// events before blocking on the next line, so a job that
		// completed while the prompt was idle is reflected in state
		// before the next command is read.
		sched.DrainChildEvents()

		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := dispatcher.Dispatch(line); err == cli.Quit {
				cancel()
				return
			}
			sched.Sweep(time.Now())
		}
	}
}
