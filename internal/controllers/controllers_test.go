package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/toolbox-talk/backend/internal/minutes"
	"github.com/toolbox-talk/backend/internal/session"
)

func newTestRouter() *mux.Router {
	store := minutes.NewStore(time.FixedZone("KST", 9*60*60))
	sessions := session.NewManager("")

	router := mux.NewRouter()
	(&AuthController{Store: store, Sessions: sessions}).Register(router)
	(&MeetingController{Store: store, Sessions: sessions}).Register(router)

	return router
}

func do(t *testing.T, router *mux.Router, method, path string, cookie *http.Cookie, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		r.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == session.CookieName {
			return cookie
		}
	}
	t.Fatalf("no session cookie in response: %v", w.Header())
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestMeetingFlow(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/auth/rooms", nil, CreateRoomRequest{
		Name:    "김",
		Code:    "A팀-0511",
		Members: "이, 박",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create room: expected 201, got %d: %s", w.Code, w.Body)
	}
	adminCookie := sessionCookie(t, w)

	w = do(t, router, http.MethodPost, "/auth/join", nil, JoinRoomRequest{Name: "이", Code: "A팀-0511"})
	if w.Code != http.StatusOK {
		t.Fatalf("join room: expected 200, got %d: %s", w.Code, w.Body)
	}
	memberCookie := sessionCookie(t, w)

	// Admin fills in the meeting header and one discussion item.
	w = do(t, router, http.MethodPut, "/room/info", adminCookie, InfoRequest{
		Date: "2025-05-11", Time: "07:30", Place: "현장 A", Task: "고소작업",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("set info: expected 200, got %d: %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/room/discussion", adminCookie, DiscussionRequest{
		Risk: "고소작업 중 낙하물", Mitigation: "안전망 설치",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add discussion: expected 201, got %d: %s", w.Code, w.Body)
	}

	// A member may not edit, even with a valid session.
	w = do(t, router, http.MethodPut, "/room/info", memberCookie, InfoRequest{Date: "2099-01-01"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("member set info: expected 403, got %d: %s", w.Code, w.Body)
	}

	// Member confirms twice; second is reported as already done.
	var confirm ConfirmResponse
	w = do(t, router, http.MethodPost, "/room/confirm", memberCookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d: %s", w.Code, w.Body)
	}
	decode(t, w, &confirm)
	if confirm.Already {
		t.Fatal("first confirm reported as already done")
	}

	w = do(t, router, http.MethodPost, "/room/confirm", memberCookie, nil)
	decode(t, w, &confirm)
	if !confirm.Already {
		t.Fatal("second confirm not reported as already done")
	}

	// Members cannot read the sign-off overview; the admin sees (1, 2).
	w = do(t, router, http.MethodGet, "/room/signoff", memberCookie, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("member sign-off: expected 403, got %d: %s", w.Code, w.Body)
	}

	var status minutes.Status
	w = do(t, router, http.MethodGet, "/room/signoff", adminCookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-off: expected 200, got %d: %s", w.Code, w.Body)
	}
	decode(t, w, &status)
	if status.Confirmed != 1 || status.Total != 2 {
		t.Fatalf("expected status (1, 2), got (%d, %d)", status.Confirmed, status.Total)
	}

	// Export is admin-only and carries the document as an attachment.
	w = do(t, router, http.MethodGet, "/room/export", memberCookie, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("member export: expected 403, got %d: %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodGet, "/room/export", adminCookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "고소작업 중 낙하물") {
		t.Fatalf("export missing discussion item:\n%s", w.Body)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("export not served as attachment: %q", w.Header().Get("Content-Disposition"))
	}
}

func TestJoinErrors(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/auth/join", nil, JoinRoomRequest{Name: "이", Code: "no-such-code"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/auth/rooms", nil, CreateRoomRequest{
		Name: "김", Code: "code", Members: "이",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create room: expected 201, got %d: %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/auth/join", nil, JoinRoomRequest{Name: "최", Code: "code"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-roster name, got %d: %s", w.Code, w.Body)
	}
}

func TestRoomRequiresSession(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodGet, "/room", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body)
	}
}

func TestViewRecordsAttendance(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/auth/rooms", nil, CreateRoomRequest{
		Name: "김", Code: "code", Members: "이",
	})
	adminCookie := sessionCookie(t, w)

	w = do(t, router, http.MethodPost, "/auth/join", nil, JoinRoomRequest{Name: "이", Code: "code"})
	memberCookie := sessionCookie(t, w)

	// Rendering the room twice still yields a single attendance entry.
	do(t, router, http.MethodGet, "/room", memberCookie, nil)
	w = do(t, router, http.MethodGet, "/room", memberCookie, nil)

	var resp RoomResponse
	decode(t, w, &resp)
	if got := len(resp.Room.Attendees); got != 2 {
		t.Fatalf("expected attendees [김 이], got %v", resp.Room.Attendees)
	}

	w = do(t, router, http.MethodGet, "/room", adminCookie, nil)
	decode(t, w, &resp)
	if resp.SignOff == nil {
		t.Fatal("admin view missing sign-off status")
	}
	if resp.SignOff.Total != 1 {
		t.Fatalf("expected roster total 1, got %d", resp.SignOff.Total)
	}
}

func TestFinalizeLocksEdits(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/auth/rooms", nil, CreateRoomRequest{
		Name: "김", Code: "code", Members: "이",
	})
	adminCookie := sessionCookie(t, w)

	w = do(t, router, http.MethodPost, "/room/finalize", adminCookie, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finalize: expected 200, got %d: %s", w.Code, w.Body)
	}

	w = do(t, router, http.MethodPost, "/room/discussion", adminCookie, DiscussionRequest{
		Risk: "risk", Mitigation: "mitigation",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 after finalize, got %d: %s", w.Code, w.Body)
	}
}
