// Package localstore keeps named slots of board data on the local machine.
package localstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when nothing was ever saved in a slot.
var ErrNotFound = errors.New("localstore: slot not found")

// Storage is a tiny key/value store of named slots.
type Storage interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Put(ctx context.Context, slot string, data []byte) error
	Close() error
}

// Backend names a Storage implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// Open returns the backend selected by name. For BackendFile path is a
// directory, for BackendSQLite a database file.
func Open(ctx context.Context, backend Backend, path string, logger *zap.Logger) (Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch backend {
	case BackendFile, "":
		return NewFileStorage(path, logger)
	case BackendSQLite:
		return OpenSQLite(ctx, path, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
