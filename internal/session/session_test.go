package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/toolbox-talk/backend/internal/minutes"
)

func requestWithCookie(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/room", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestIssueDecodeRoundTrip(t *testing.T) {
	m := NewManager("")

	cookie, err := m.Issue(minutes.Actor{Name: "김", Role: minutes.RoleAdmin}, "A팀-0511")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cookie.Name != CookieName || !cookie.HttpOnly {
		t.Fatalf("unexpected cookie: %+v", cookie)
	}

	actor, roomCode, err := m.Decode(requestWithCookie(cookie))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if actor.Name != "김" || actor.Role != minutes.RoleAdmin {
		t.Fatalf("unexpected actor: %+v", actor)
	}
	if roomCode != "A팀-0511" {
		t.Fatalf("expected room code A팀-0511, got %q", roomCode)
	}
}

func TestDecodeWithoutCookie(t *testing.T) {
	m := NewManager("")

	if _, _, err := m.Decode(requestWithCookie(nil)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestDecodeRejectsTamperedToken(t *testing.T) {
	m := NewManager("")

	cookie, err := m.Issue(minutes.Actor{Name: "이", Role: minutes.RoleMember}, "code")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := *cookie
	tampered.Value = strings.Replace(cookie.Value, "v4.public.", "v4.public.AAAA", 1)

	if _, _, err := m.Decode(requestWithCookie(&tampered)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestDecodeRejectsForeignKey(t *testing.T) {
	issuing := NewManager("")
	verifying := NewManager("")

	cookie, err := issuing.Issue(minutes.Actor{Name: "이", Role: minutes.RoleMember}, "code")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := verifying.Decode(requestWithCookie(cookie)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	m := NewManager("")

	cookie := m.Clear()
	if cookie.MaxAge >= 0 {
		t.Fatalf("expected negative max-age, got %d", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Fatalf("expected empty value, got %q", cookie.Value)
	}
}
