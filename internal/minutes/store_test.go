package minutes

import (
	"errors"
	"testing"
	"time"
)

func TestJoinRoomNotFound(t *testing.T) {
	store := newTestStore(time.Now())

	if _, _, err := store.JoinRoom("no-such-code", "이"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinRoomRequiresRosterMembership(t *testing.T) {
	store := newTestStore(time.Now())
	room, _ := store.CreateRoom("code", "admin", []string{"이", "박"})

	// Showing up in attendees never widens the roster.
	room.RecordAttendance("최")

	if _, _, err := store.JoinRoom("code", "최"); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}

	_, actor, err := store.JoinRoom("code", "이")
	if err != nil {
		t.Fatalf("join room: %v", err)
	}
	if actor.Name != "이" || actor.Role != RoleMember {
		t.Fatalf("unexpected actor binding: %+v", actor)
	}
}

func TestGetRoom(t *testing.T) {
	store := newTestStore(time.Now())
	created, _ := store.CreateRoom("code", "admin", []string{"a"})

	got, err := store.GetRoom("code")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if got != created {
		t.Fatal("get room returned a different room")
	}

	if _, err := store.GetRoom("other"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestCreateRoomReplacesExistingCode(t *testing.T) {
	store := newTestStore(time.Now())

	first, admin := store.CreateRoom("code", "admin", []string{"a"})
	if err := first.AddDiscussionItem(admin, "risk", "mitigation"); err != nil {
		t.Fatalf("add discussion item: %v", err)
	}

	second, _ := store.CreateRoom("code", "admin2", []string{"b"})
	if second == first {
		t.Fatal("expected a fresh room under the reused code")
	}

	got, err := store.GetRoom("code")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if got != second {
		t.Fatal("store still serves the replaced room")
	}
	view := got.View()
	if view.Admin != "admin2" || len(view.Discussion) != 0 {
		t.Fatalf("replaced room leaked old state: %+v", view)
	}
}

func TestRoomsDebugView(t *testing.T) {
	store := newTestStore(time.Now())
	store.CreateRoom("a", "admin", []string{"x"})
	store.CreateRoom("b", "admin", []string{"y"})

	rooms := store.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms["a"].Admin != "admin" {
		t.Fatalf("unexpected room view: %+v", rooms["a"])
	}
}
