package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"bumdes/internal/amqp"
	"bumdes/internal/core"
	"bumdes/internal/log"
	"bumdes/internal/metrics"
	"bumdes/internal/mirror"
	"bumdes/internal/sheets"
	"bumdes/internal/store"
)

// ExportWorker copies the mirrored ledger to a spreadsheet whenever a
// change event arrives.
type ExportWorker struct {
	mirror   mirror.Loader
	exporter sheets.LedgerExporter
	units    []core.BusinessUnit
	logger   *log.Logger

	mu       sync.Mutex
	lastHash uint64
	exported bool
}

func NewExportWorker(m mirror.Loader, exporter sheets.LedgerExporter, units []core.BusinessUnit) *ExportWorker {
	return &ExportWorker{
		mirror:   m,
		exporter: exporter,
		units:    append([]core.BusinessUnit(nil), units...),
		logger:   log.Default().WithComponent(log.ComponentWorker),
	}
}

func (w *ExportWorker) WithLogger(l *log.Logger) *ExportWorker {
	w.logger = l.WithComponent(log.ComponentWorker)
	return w
}

// HandleLedgerChanged exports the current mirror. Several events for the same
// document collapse into one export. Only export failures are returned, so
// the broker redelivers exactly those.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldOperation, msg.Op,
		log.FieldRevision, msg.Revision,
		log.FieldTxID, msg.TransactionID)
	return w.Sync(ctx)
}

// Sync exports the mirrored ledger unless the same document was exported last.
func (w *ExportWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := w.mirror.Load(ctx)
	if errors.Is(err, mirror.ErrNotFound) {
		metrics.ExportRuns.WithLabelValues(metrics.OutcomeMissing).Inc()
		w.logger.WarnContext(ctx, "Nothing mirrored yet, skipping export", log.FieldOperation, log.OpExport)
		return nil
	}
	if err != nil {
		metrics.ExportRuns.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("load mirror: %w", err)
	}

	hash := xxhash.Sum64(doc)
	if w.exported && hash == w.lastHash {
		w.logger.DebugContext(ctx, "Mirror unchanged since last export")
		return nil
	}

	txs, err := store.Decode(doc)
	if err != nil {
		metrics.ExportRuns.WithLabelValues(metrics.OutcomeRejected).Inc()
		w.logger.ErrorContext(ctx, "Mirrored ledger is malformed, skipping export",
			log.FieldOperation, log.OpExport, log.FieldError, err)
		return nil
	}

	if err := w.exporter.Export(ctx, txs, w.units); err != nil {
		metrics.ExportRuns.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("export ledger: %w", err)
	}

	w.lastHash = hash
	w.exported = true
	metrics.ExportRuns.WithLabelValues(metrics.OutcomeOK).Inc()
	w.logger.InfoContext(ctx, "Ledger exported", log.FieldOperation, log.OpExport, log.FieldCount, len(txs))
	return nil
}
