// Package backend builds the durable mirror and the change notifier selected by configuration.
package backend

import (
	"context"

	"bumdes/internal/mirror"
	"bumdes/internal/store"
)

// CleanupFunc releases the resources a backend holds.
type CleanupFunc func() error

// BackendResult contains the mirror, an optional notifier and their cleanup.
type BackendResult struct {
	Mirror   mirror.Mirror
	Notifier store.ChangeNotifier // nil when change events are disabled
	Cleanup  CleanupFunc
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, FileBackend, SQLiteBackend, RedisBackend:
		return true
	}
	return false
}

func (t BackendType) String() string {
	return string(t)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType
	Key  string

	FilePath string

	SQLiteDBPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Change events are published only when AMQPURL is set.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}
