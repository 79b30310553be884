// Package memory keeps exports in process memory for tests and local runs.
package memory

import (
	"context"
	"sync"

	"bumdes/internal/core"
	ports "bumdes/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	rows    [][]any
	exports int
	// Err, when set, is returned by every Export.
	Err error
}

var _ ports.LedgerExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(_ context.Context, txs []core.Transaction, units []core.BusinessUnit) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.rows = ports.Rows(txs, units)
	e.exports++
	return nil
}

// Rows returns the last exported table, header included.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.rows))
	copy(out, e.rows)
	return out
}

func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
