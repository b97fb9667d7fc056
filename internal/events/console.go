package events

import (
	"fmt"
	"io"
	"sync"

	"github.com/haricheung/spoold/internal/spooltypes"
	"github.com/mattn/go-runewidth"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// kindColor maps an event kind to its console color.
func kindColor(k spooltypes.EventKind) string {
	switch k {
	case spooltypes.EventCmdError, spooltypes.EventJobAborted:
		return colorRed
	case spooltypes.EventCmdOK, spooltypes.EventJobFinished:
		return colorGreen
	case spooltypes.EventJobStatus, spooltypes.EventPrinterStatus:
		return colorYellow
	default:
		return colorCyan
	}
}

// Console is a Sink that renders every tapped event as a single
// human-readable line, width-clipped with go-runewidth for the
// terminal.
type Console struct {
	w    io.Writer
	mu   sync.Mutex
	ch   <-chan spooltypes.Event
	done chan struct{}
}

// NewConsole subscribes a Console sink to every event on b and starts
// its render loop.
func NewConsole(b *Bus, w io.Writer) *Console {
	c := &Console{w: w, ch: b.NewTap(), done: make(chan struct{})}
	go c.run()
	return c
}

func (c *Console) run() {
	for ev := range c.ch {
		c.render(ev)
	}
	close(c.done)
}

func (c *Console) render(ev spooltypes.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	color := kindColor(ev.Kind)
	line := fmt.Sprintf("%s%s%s %s", color, ev.Kind, colorReset, clip(ev.Fields))
	fmt.Fprintln(c.w, line)
}

// clip renders a fields map compactly and truncates it to a
// terminal-friendly width using rune-width-aware truncation.
func clip(fields map[string]any) string {
	s := fmt.Sprintf("%v", fields)
	const maxWidth = 120
	if runewidth.StringWidth(s) > maxWidth {
		return runewidth.Truncate(s, maxWidth, "...")
	}
	return s
}
