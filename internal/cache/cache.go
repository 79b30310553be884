// Package cache provides the in-process caches used by the HTTP layer.
package cache

import (
	"time"

	"bumdes/internal/core"
	"bumdes/internal/log"
	"bumdes/internal/report"
)

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans every registered cache.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
	logger      *log.Logger
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
		logger:      log.Default().WithComponent(log.ComponentCache),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := 0
			for _, c := range m.caches {
				cleaned += c.CleanExpired()
			}
			if cleaned > 0 {
				m.logger.Debug("Expired cache entries removed", log.FieldCount, cleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine started by StartCleanup.
func (m *Manager) Stop() {
	if !m.started {
		return
	}
	close(m.stopCleanup)
	<-m.cleanupDone
}

// Reports memoizes ledger snapshots by store revision. A revision never
// changes content, so an entry only has to expire to bound memory.
type Reports struct {
	lru *LRU[uint64, report.Snapshot]
}

func NewReports(size int, ttl time.Duration) *Reports {
	return &Reports{lru: NewLRU[uint64, report.Snapshot](size, ttl)}
}

// Snapshot returns the aggregates of txs, which must be the ledger at revision rev.
func (r *Reports) Snapshot(rev uint64, txs []core.Transaction, units []core.BusinessUnit) report.Snapshot {
	return r.lru.GetOrCompute(rev, func() report.Snapshot {
		return report.Build(txs, units)
	})
}

func (r *Reports) CleanExpired() int {
	return r.lru.CleanExpired()
}

func (r *Reports) Stats() Stats {
	return r.lru.Stats()
}
