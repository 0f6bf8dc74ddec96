package state

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"localboard/internal/localstore"

	"go.uber.org/zap"
)

// RoomParam is the query parameter carrying the room identifier.
const RoomParam = "room"

// MakeShareLink returns the store location with a room identifier, generating
// and recording one the first time. The link only identifies the board; it
// is not backed by any synchronisation channel.
func (s *Store) MakeShareLink() string {
	s.mu.Lock()
	q := s.location.Query()
	if q.Get(RoomParam) != "" {
		link := s.location.String()
		s.mu.Unlock()
		return link
	}
	q.Set(RoomParam, newRoomID())
	s.location.RawQuery = q.Encode()
	link := s.location.String()
	notify := s.commit(OpShareLink, "")
	s.mu.Unlock()

	notify()
	return link
}

// Room returns the room identifier, or "" before MakeShareLink ran.
func (s *Store) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location.Query().Get(RoomParam)
}

// Location returns a copy of the current location URL.
func (s *Store) Location() *url.URL {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := *s.location
	return &u
}

// roomSlot is the storage slot holding the room id of a board slot.
func roomSlot(slot string) string { return slot + ".room" }

// LoadRoom adopts the room id SaveRoom recorded for this slot, so every store
// on the same slot hands out the same link. It reports false when none was
// saved.
func (s *Store) LoadRoom(ctx context.Context) (bool, error) {
	if s.storage == nil {
		return false, ErrNoStorage
	}
	data, err := s.storage.Get(ctx, roomSlot(s.slot))
	if errors.Is(err, localstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	room := strings.TrimSpace(string(data))
	if room == "" {
		return false, nil
	}

	s.mu.Lock()
	q := s.location.Query()
	q.Set(RoomParam, room)
	s.location.RawQuery = q.Encode()
	s.mu.Unlock()
	return true, nil
}

// SaveRoom records the current room id. It does nothing before a room exists.
func (s *Store) SaveRoom(ctx context.Context) error {
	if s.storage == nil {
		return ErrNoStorage
	}
	room := s.Room()
	if room == "" {
		return nil
	}
	if err := s.storage.Put(ctx, roomSlot(s.slot), []byte(room)); err != nil {
		return err
	}
	s.logger.Debug("room saved", zap.String("slot", s.slot), zap.String("room", room))
	return nil
}
