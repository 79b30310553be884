package backend

import (
	"context"
	"errors"
	"fmt"

	"bumdes/internal/amqp"
	"bumdes/internal/log"
	"bumdes/internal/mirror/file"
	"bumdes/internal/mirror/memory"
	"bumdes/internal/mirror/redis"
	"bumdes/internal/mirror/sqlite"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the configured mirror and, when AMQP is configured, a
// notifier. A broker that cannot be reached only disables change events.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = &BackendResult{Mirror: memory.New()}
	case FileBackend:
		result = &BackendResult{Mirror: file.New(config.FilePath)}
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case RedisBackend:
		result, err = f.createRedisBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized mirror backend", log.FieldBackend, config.Type.String())

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
			return result, nil
		}
		f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)

		result.Notifier = client
		mirrorCleanup := result.Cleanup
		result.Cleanup = func() error {
			errs := []error{client.Close()}
			if mirrorCleanup != nil {
				errs = append(errs, mirrorCleanup())
			}
			return errors.Join(errs...)
		}
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath, config.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	return &BackendResult{Mirror: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	rs := redis.New(redis.Config{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
		Key:      config.Key,
	})
	if err := rs.Ping(ctx); err != nil {
		// The store falls back to seed data when loads fail, so keep going.
		f.logger.Warn("Redis is not reachable yet", log.FieldError, err, "addr", config.RedisAddr)
	}
	return &BackendResult{Mirror: rs, Cleanup: rs.Close}, nil
}
