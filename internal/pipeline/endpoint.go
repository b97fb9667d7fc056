package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConnectToPrinter is the endpoint function named in the external
// interfaces section: it returns a writable descriptor for a named
// printer. The spooler treats the result as opaque; this concrete
// implementation appends to a per-printer spool file, standing in for
// whatever real transport (USB, network, CUPS) a deployment would wire
// in here. Overridable in tests.
var ConnectToPrinter = func(name, typeName, spoolDir string) (*os.File, error) {
	if err := os.MkdirAll(spoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("connect_to_printer: create spool dir: %w", err)
	}
	path := filepath.Join(spoolDir, name+".spool")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("connect_to_printer: open %s: %w", path, err)
	}
	return f, nil
}
