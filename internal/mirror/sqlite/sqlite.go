package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bumdes/internal/mirror"

	_ "modernc.org/sqlite"
)

// Repository stores the mirrored document as one row of mirror_blobs.
type Repository struct {
	db  *sql.DB
	key string
}

var _ mirror.Mirror = (*Repository)(nil)

func NewRepository(dbPath, key string) (*Repository, error) {
	if key == "" {
		key = mirror.DefaultKey
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, key: key}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements mirror.Loader
func (r *Repository) Load(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM mirror_blobs WHERE key = ?`, r.key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mirror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load mirror %s: %w", r.key, err)
	}
	return doc, nil
}

// Save implements mirror.Saver
func (r *Repository) Save(ctx context.Context, doc []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mirror_blobs (key, doc, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		r.key, doc, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save mirror %s: %w", r.key, err)
	}

	slog.DebugContext(ctx, "Mirror saved to SQLite", "key", r.key, "bytes", len(doc))
	return nil
}

// UpdatedAt returns when the document was last written.
func (r *Repository) UpdatedAt(ctx context.Context) (time.Time, error) {
	var unix int64
	err := r.db.QueryRowContext(ctx, `SELECT updated_at FROM mirror_blobs WHERE key = ?`, r.key).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, mirror.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read mirror timestamp: %w", err)
	}
	return time.Unix(unix, 0).UTC(), nil
}
