// Package printer is the printer registry (component 4.A): a stable,
// name-indexed set of printers with status, never compacted, emitting
// an event through the bus on every declaration and status change.
package printer

import (
	"sync"

	"github.com/haricheung/spoold/internal/events"
	"github.com/haricheung/spoold/internal/spoolerr"
	"github.com/haricheung/spoold/internal/spooltypes"
)

// Registry is the printer registry. Printer references returned to
// callers (by name) remain valid for the process lifetime; entries are
// never removed.
type Registry struct {
	mu      sync.Mutex
	bus     *events.Bus
	maxSize int
	byName  map[string]int // name -> index into list
	list    []spooltypes.Printer
}

// New creates a Registry bounded at maxSize entries, publishing events
// on b.
func New(b *events.Bus, maxSize int) *Registry {
	return &Registry{bus: b, maxSize: maxSize, byName: make(map[string]int)}
}

// Declare registers a new printer with initial status Disabled. Fails
// if the name is already used or the registry is full. It does not
// check that typeName is a declared type; the caller validates type
// existence beforehand.
func (r *Registry) Declare(name, typeName string) (spooltypes.Printer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return spooltypes.Printer{}, spoolerr.New(spoolerr.StateViolation, "printer already declared: %s", name)
	}
	if len(r.list) >= r.maxSize {
		return spooltypes.Printer{}, spoolerr.New(spoolerr.Capacity, "printer table full")
	}

	p := spooltypes.Printer{ID: len(r.list), Name: name, NativeType: typeName, Status: spooltypes.PrinterDisabled}
	r.list = append(r.list, p)
	r.byName[name] = p.ID

	r.bus.Publish(events.PrinterDefined(name, typeName))
	return p, nil
}

// FindByName returns the printer with the given name.
func (r *Registry) FindByName(name string) (spooltypes.Printer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byName[name]
	if !ok {
		return spooltypes.Printer{}, false
	}
	return r.list[idx], true
}

// At returns the printer at registry index i.
func (r *Registry) At(i int) (spooltypes.Printer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.list) {
		return spooltypes.Printer{}, false
	}
	return r.list[i], true
}

// Count returns the number of declared printers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.list)
}

// All returns a snapshot copy of every declared printer, in
// declaration order.
func (r *Registry) All() []spooltypes.Printer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]spooltypes.Printer, len(r.list))
	copy(out, r.list)
	return out
}

// SetStatus transitions the named printer to status and publishes the
// corresponding printer_status event.
func (r *Registry) SetStatus(name string, status spooltypes.PrinterStatus) error {
	r.mu.Lock()
	idx, ok := r.byName[name]
	if !ok {
		r.mu.Unlock()
		return spoolerr.New(spoolerr.UnknownIdentifier, "unknown printer: %s", name)
	}
	r.list[idx].Status = status
	r.mu.Unlock()

	r.bus.Publish(events.PrinterStatus(name, status))
	return nil
}
