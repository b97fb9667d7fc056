// Package events is the spooler's sf_* event sink: a small pub/sub bus
// plus a console Sink and a per-job JSONL Sink (internal/joblog).
package events

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/haricheung/spoold/internal/spooltypes"
)

const busChanBuf = 64

// Bus fans out events to any number of subscribers and taps. Publish
// never blocks: a full subscriber channel drops the event and logs a
// warning.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[spooltypes.EventKind][]chan spooltypes.Event
	taps        []chan spooltypes.Event
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[spooltypes.EventKind][]chan spooltypes.Event)}
}

// Publish stamps ev with an id/timestamp if missing and fans it out.
func (b *Bus) Publish(ev spooltypes.Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[ev.Kind] {
		select {
		case ch <- ev:
		default:
			log.Printf("events: bus: subscriber channel full, dropping %s event", ev.Kind)
		}
	}
	for _, ch := range b.taps {
		select {
		case ch <- ev:
		default:
			log.Printf("events: bus: tap channel full, dropping %s event", ev.Kind)
		}
	}
}

// Subscribe returns a channel that receives every future event of kind t.
func (b *Bus) Subscribe(t spooltypes.EventKind) <-chan spooltypes.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan spooltypes.Event, busChanBuf)
	b.subscribers[t] = append(b.subscribers[t], ch)
	return ch
}

// NewTap returns a channel that receives every future event regardless
// of kind, for sinks that want the full stream (such as the console).
func (b *Bus) NewTap() <-chan spooltypes.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan spooltypes.Event, busChanBuf)
	b.taps = append(b.taps, ch)
	return ch
}
