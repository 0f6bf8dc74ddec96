package localstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileStorage keeps each slot as <dir>/<slot>.json.
type FileStorage struct {
	dir    string
	logger *zap.Logger
}

// NewFileStorage creates dir if needed.
func NewFileStorage(dir string, logger *zap.Logger) (*FileStorage, error) {
	if dir == "" {
		return nil, errors.New("storage directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStorage{dir: dir, logger: logger}, nil
}

// Path is the file backing a slot.
func (fs *FileStorage) Path(slot string) string {
	return filepath.Join(fs.dir, sanitizeSlot(slot)+".json")
}

func (fs *FileStorage) Get(ctx context.Context, slot string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fs.Path(slot))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read slot %q: %w", slot, err)
	}
	return data, nil
}

// Put replaces the slot atomically: readers see the old or the new file,
// never a partial one.
func (fs *FileStorage) Put(ctx context.Context, slot string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(fs.dir, "."+sanitizeSlot(slot)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write slot %q: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), fs.Path(slot)); err != nil {
		return fmt.Errorf("failed to replace slot %q: %w", slot, err)
	}
	fs.logger.Debug("slot saved", zap.String("slot", slot), zap.Int("bytes", len(data)))
	return nil
}

func (fs *FileStorage) Close() error { return nil }

func sanitizeSlot(slot string) string {
	if slot == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, slot)
}
