// Package minutes holds the meeting-minutes domain: rooms, the code->room
// store, and the mutation contract between admin and member actors. State is
// process-local; nothing here survives a restart.
package minutes

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store maps room codes to rooms for the lifetime of the process.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	loc   *time.Location
	clock func() time.Time
}

func NewStore(loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		rooms: make(map[string]*Room),
		loc:   loc,
		clock: time.Now,
	}
}

// CreateRoom constructs a fresh room under the given code and returns it along
// with the admin actor binding. Creating over an existing code replaces the
// old room: a crew reusing a code for the next shift's talk starts clean.
func (s *Store) CreateRoom(code, adminName string, members []string) (*Room, Actor) {
	room := newRoom(code, adminName, members, s.loc, s.clock)

	s.mu.Lock()
	if _, exists := s.rooms[code]; exists {
		zap.L().Info("replacing existing room", zap.String("code", code))
	}
	s.rooms[code] = room
	s.mu.Unlock()

	return room, Actor{Name: adminName, Role: RoleAdmin}
}

// JoinRoom binds a roster member to an existing room. The roster is fixed at
// creation time; later attendance never widens it.
func (s *Store) JoinRoom(code, name string) (*Room, Actor, error) {
	room, err := s.GetRoom(code)
	if err != nil {
		return nil, Actor{}, err
	}
	if !room.isMember(name) {
		return nil, Actor{}, ErrNotAMember
	}
	return room, Actor{Name: name, Role: RoleMember}, nil
}

func (s *Store) GetRoom(code string) (*Room, error) {
	s.mu.RLock()
	room, ok := s.rooms[code]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Rooms returns a point-in-time view of every live room, for debug dumps.
func (s *Store) Rooms() map[string]View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]View, len(s.rooms))
	for code, room := range s.rooms {
		out[code] = room.View()
	}
	return out
}
