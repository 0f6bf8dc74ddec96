package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"localboard/internal/localstore"

	"go.uber.org/zap"
)

// ErrNoStorage is returned by SaveToLocal and LoadFromLocal on a store built
// without WithStorage.
var ErrNoStorage = errors.New("store has no local storage")

// SaveToLocal writes the current board into the storage slot. A board that
// LoadFromLocal would reject is not written and the slot keeps its old data.
func (s *Store) SaveToLocal(ctx context.Context) error {
	if s.storage == nil {
		return ErrNoStorage
	}
	b := s.Snapshot()
	if err := b.Validate(); err != nil {
		return fmt.Errorf("refusing to save: %w", err)
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode board: %w", err)
	}
	if err := s.storage.Put(ctx, s.slot, data); err != nil {
		return err
	}
	s.logger.Info("board saved", zap.String("slot", s.slot), zap.Int("elements", len(b.Elements)))
	return nil
}

// LoadFromLocal replaces the board with the one saved in the storage slot. It
// reports false, with no error, when the slot is empty. Data that fails to
// decode or validate yields ErrCorruptBoard and the board is left untouched.
func (s *Store) LoadFromLocal(ctx context.Context) (bool, error) {
	if s.storage == nil {
		return false, ErrNoStorage
	}
	data, err := s.storage.Get(ctx, s.slot)
	if errors.Is(err, localstore.ErrNotFound) {
		s.logger.Debug("nothing saved", zap.String("slot", s.slot))
		return false, nil
	}
	if err != nil {
		return false, err
	}

	b, err := ParseBoard(data)
	if err != nil {
		s.logger.Warn("saved board rejected", zap.String("slot", s.slot), zap.Error(err))
		return false, err
	}
	if err := s.Restore(b); err != nil {
		return false, err
	}
	s.logger.Info("board loaded", zap.String("slot", s.slot), zap.Int("elements", len(b.Elements)))
	return true, nil
}

// ParseBoard decodes and validates a JSON board.
func ParseBoard(data []byte) (BoardState, error) {
	var b BoardState
	if err := json.Unmarshal(data, &b); err != nil {
		return BoardState{}, fmt.Errorf("%w: %v", ErrCorruptBoard, err)
	}
	if err := b.Validate(); err != nil {
		return BoardState{}, err
	}
	return b, nil
}
