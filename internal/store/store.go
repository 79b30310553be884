// Package store holds the authoritative in-memory ledger and keeps a durable
// mirror of it up to date after every change.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"bumdes/internal/core"
	"bumdes/internal/log"
	"bumdes/internal/metrics"
	"bumdes/internal/mirror"
)

// ErrInvalidTransaction wraps every validation failure returned by Add.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Source reports where Initialize took the ledger from.
type Source string

const (
	SourceMirror Source = "mirror"
	SourceSeed   Source = "seed"
)

const defaultMirrorTimeout = 5 * time.Second

// Change describes a ledger mutation that reached the mirror.
type Change struct {
	Op            string
	TransactionID string
	Revision      uint64
	Count         int
	At            time.Time
}

// ChangeNotifier is told about every mutation after the mirror write succeeded.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, c Change) error
}

type Store struct {
	mu  sync.RWMutex
	txs []core.Transaction
	rev uint64

	// ids removed during this process; never handed out again
	retired map[string]struct{}

	units         []core.BusinessUnit
	mirror        mirror.Mirror
	notifier      ChangeNotifier
	newID         func() string
	seed          func() []core.Transaction
	now           func() time.Time
	mirrorTimeout time.Duration
	logger        *log.Logger
	events        *log.StructuredLogger
}

type Option func(*Store)

func WithNotifier(n ChangeNotifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

// WithIDGenerator replaces the random id source.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithSeed replaces the built-in sample ledger used when the mirror is unusable.
func WithSeed(f func() []core.Transaction) Option {
	return func(s *Store) { s.seed = f }
}

func WithUnits(units []core.BusinessUnit) Option {
	return func(s *Store) { s.units = append([]core.BusinessUnit(nil), units...) }
}

func WithMirrorTimeout(d time.Duration) Option {
	return func(s *Store) { s.mirrorTimeout = d }
}

// New returns an empty store. Call Initialize before serving reads.
func New(m mirror.Mirror, opts ...Option) *Store {
	s := &Store{
		txs:           []core.Transaction{},
		units:         core.SeedUnits(),
		mirror:        m,
		retired:       make(map[string]struct{}),
		newID:         uuid.NewString,
		seed:          core.SeedTransactions,
		now:           time.Now,
		mirrorTimeout: defaultMirrorTimeout,
		logger:        log.Default().WithComponent(log.ComponentStore),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// Initialize loads the ledger from the mirror. An absent, unreadable or
// malformed document falls back to the seed ledger; only an absent one is
// overwritten with the seed.
func (s *Store) Initialize(ctx context.Context) Source {
	txs, src, persist := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = txs
	s.rev++
	metrics.LedgerSize.Set(float64(len(s.txs)))
	if persist {
		s.persist(ctx)
	}
	s.logger.InfoContext(ctx, "Ledger initialized",
		log.FieldSource, string(src), log.FieldCount, len(txs), log.FieldRevision, s.rev)
	return src
}

func (s *Store) load(ctx context.Context) ([]core.Transaction, Source, bool) {
	doc, err := s.mirror.Load(ctx)
	switch {
	case errors.Is(err, mirror.ErrNotFound):
		s.logger.InfoContext(ctx, "No mirrored ledger, using seed data", log.FieldOperation, log.OpLoad)
		return s.seed(), SourceSeed, true
	case err != nil:
		s.logger.WarnContext(ctx, "Mirror load failed, using seed data",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return s.seed(), SourceSeed, false
	}

	txs, err := Decode(doc)
	if err != nil {
		s.logger.WarnContext(ctx, "Mirrored ledger is malformed, using seed data",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return s.seed(), SourceSeed, false
	}
	return txs, SourceMirror, false
}

// Add validates the candidate, assigns a fresh id and places the
// transaction first in the ledger.
func (s *Store) Add(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := n.Validate(); err != nil {
		metrics.StoreMutations.WithLabelValues(log.OpCreate, metrics.OutcomeRejected).Inc()
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	s.mu.Lock()
	tx := n.WithID(s.uniqueID())
	next := make([]core.Transaction, 0, len(s.txs)+1)
	next = append(next, tx)
	s.txs = append(next, s.txs...)
	s.rev++
	change := s.change(log.OpCreate, tx.ID)
	ok := s.persist(ctx)
	s.mu.Unlock()

	metrics.StoreMutations.WithLabelValues(log.OpCreate, metrics.OutcomeOK).Inc()
	s.events.LogTransactionRecorded(ctx, tx.ID, tx.Type.String(), tx.UnitID, tx.Amount.String(), change.Revision)
	if ok {
		s.notify(ctx, change)
	}
	return tx, nil
}

// Remove deletes the transaction with the given id. It reports false, and
// leaves the mirror untouched, when no such transaction exists.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	idx := -1
	for i, tx := range s.txs {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		metrics.StoreMutations.WithLabelValues(log.OpDelete, metrics.OutcomeMissing).Inc()
		return false
	}

	next := make([]core.Transaction, 0, len(s.txs)-1)
	next = append(next, s.txs[:idx]...)
	s.txs = append(next, s.txs[idx+1:]...)
	s.retired[id] = struct{}{}
	s.rev++
	change := s.change(log.OpDelete, id)
	ok := s.persist(ctx)
	s.mu.Unlock()

	metrics.StoreMutations.WithLabelValues(log.OpDelete, metrics.OutcomeOK).Inc()
	s.logger.InfoContext(ctx, "Transaction removed", log.FieldTxID, id, log.FieldRevision, change.Revision)
	if ok {
		s.notify(ctx, change)
	}
	return true
}

// List returns a copy of the ledger, most recently added first.
func (s *Store) List() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction{}, s.txs...)
}

func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// Snapshot returns the ledger copy together with the revision it belongs to.
func (s *Store) Snapshot() ([]core.Transaction, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction{}, s.txs...), s.rev
}

// Revision increases on every initialization and mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func (s *Store) Units() []core.BusinessUnit {
	return append([]core.BusinessUnit(nil), s.units...)
}

// uniqueID skips ids that are live or were removed by this process. Ids
// removed before a restart are not tracked; the default uuid source makes a
// repeat of those negligible.
func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if _, gone := s.retired[id]; gone {
			continue
		}
		if !s.containsLocked(id) {
			return id
		}
	}
}

func (s *Store) containsLocked(id string) bool {
	for _, tx := range s.txs {
		if tx.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) change(op, id string) Change {
	return Change{Op: op, TransactionID: id, Revision: s.rev, Count: len(s.txs), At: s.now().UTC()}
}

// persist writes the whole ledger to the mirror. Failures are logged and
// counted but never reach the caller. Must be called with s.mu held.
func (s *Store) persist(ctx context.Context) bool {
	metrics.LedgerSize.Set(float64(len(s.txs)))

	doc, err := Encode(s.txs)
	if err != nil {
		metrics.MirrorWrites.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.ErrorContext(ctx, "Failed to encode ledger", log.FieldError, err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mirrorTimeout)
	defer cancel()
	if err := s.mirror.Save(ctx, doc); err != nil {
		metrics.MirrorWrites.WithLabelValues(metrics.OutcomeError).Inc()
		s.events.LogError(ctx, "Mirror write failed", err, log.ComponentMirror, log.OpMirror,
			log.NewFields().WithRevision(s.rev))
		return false
	}
	metrics.MirrorWrites.WithLabelValues(metrics.OutcomeOK).Inc()
	return true
}

func (s *Store) notify(ctx context.Context, c Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.LedgerChanged(ctx, c); err != nil {
		s.logger.WarnContext(ctx, "Change notification failed",
			log.FieldError, err, log.FieldOperation, c.Op, log.FieldRevision, c.Revision)
	}
}
