// Package mirror defines the durable copy of the ledger: one named key holding
// the whole serialized transaction list, overwritten on every change.
package mirror

import (
	"context"
	"errors"
)

// DefaultKey is the name the ledger document is stored under.
const DefaultKey = "bumdes_transactions"

// ErrNotFound is returned by Load when nothing has been mirrored yet.
var ErrNotFound = errors.New("mirror: document not found")

// Ports for durable backends.
type (
	Loader interface {
		Load(ctx context.Context) ([]byte, error)
	}

	Saver interface {
		Save(ctx context.Context, doc []byte) error
	}

	Mirror interface {
		Loader
		Saver
	}
)
