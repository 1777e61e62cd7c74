package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/toolbox-talk/backend/internal/cctx"
	"github.com/toolbox-talk/backend/internal/minutes"
)

// Sent by client
type CreateRoomRequest struct {
	Name    string `json:"name"`
	Code    string `json:"code"`
	Members string `json:"members"` // comma-separated roster
}

type JoinRoomRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type InfoRequest struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Place string `json:"place"`
	Task  string `json:"task"`
}

type DiscussionRequest struct {
	Risk       string `json:"risk"`
	Mitigation string `json:"mitigation"`
}

type NotesRequest struct {
	Text string `json:"text"`
}

type TaskRequest struct {
	Owner          string `json:"owner"`
	Responsibility string `json:"responsibility"`
	Due            string `json:"due"` // YYYY-MM-DD, empty for today
}

type ConfirmResponse struct {
	Name    string `json:"name"`
	Already bool   `json:"already"`
}

type RoomResponse struct {
	Room    minutes.View    `json:"room"`
	Actor   ActorView       `json:"actor"`
	SignOff *minutes.Status `json:"signOff,omitempty"` // admin only
}

type ActorView struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, minutes.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "room_not_found"})
	case errors.Is(err, minutes.ErrNotAMember):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not_a_member"})
	case errors.Is(err, minutes.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, minutes.ErrMissingField):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "missing_field"})
	case errors.Is(err, minutes.ErrRoomFinalized):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "room_finalized"})
	default:
		zap.L().Error("unhandled domain error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
	}
}

func actorFromContext(r *http.Request) (actor minutes.Actor, roomCode string, ok bool) {
	name, _ := r.Context().Value(cctx.ActorName).(string)
	role, _ := r.Context().Value(cctx.ActorRole).(string)
	roomCode, _ = r.Context().Value(cctx.RoomCode).(string)

	if name == "" || role == "" || roomCode == "" {
		return
	}
	return minutes.Actor{Name: name, Role: minutes.Role(role)}, roomCode, true
}

func parseDueDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// urlEscape percent-encodes a filename for the RFC 5987 filename* parameter,
// which is what keeps Korean filenames intact in the download header.
func urlEscape(s string) string {
	return url.PathEscape(s)
}
