package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/toolbox-talk/backend/internal/minutes"
	"github.com/toolbox-talk/backend/internal/router"
	"github.com/toolbox-talk/backend/internal/session"
)

var _ router.Controller = (*AuthController)(nil)

// AuthController is the login gate: room creation binds the caller as the
// admin, joining binds a roster member, logout tears the session down.
type AuthController struct {
	Store    *minutes.Store
	Sessions *session.Manager
}

func (c *AuthController) Register(router *mux.Router) {
	router.HandleFunc("/auth/rooms", c.handleCreateRoom).Methods(http.MethodPost)
	router.HandleFunc("/auth/join", c.handleJoinRoom).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", c.handleLogout).Methods(http.MethodPost)
}

func (c *AuthController) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if !readJSON(w, r, &req) {
		return
	}

	roster := splitRoster(req.Members)
	if req.Name == "" || req.Code == "" || len(roster) == 0 {
		writeDomainError(w, minutes.ErrMissingField)
		return
	}

	room, actor := c.Store.CreateRoom(req.Code, req.Name, roster)
	zap.L().Info("room created",
		zap.String("code", req.Code),
		zap.String("admin", req.Name),
		zap.Int("roster", len(roster)),
	)

	if !c.bind(w, actor, room.Code()) {
		return
	}

	room.RecordAttendance(actor.Name)
	writeJSON(w, http.StatusCreated, RoomResponse{
		Room:  room.View(),
		Actor: ActorView{Name: actor.Name, Role: string(actor.Role)},
	})
}

func (c *AuthController) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req JoinRoomRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Code == "" {
		writeDomainError(w, minutes.ErrMissingField)
		return
	}

	room, actor, err := c.Store.JoinRoom(req.Code, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if !c.bind(w, actor, room.Code()) {
		return
	}

	room.RecordAttendance(actor.Name)
	writeJSON(w, http.StatusOK, RoomResponse{
		Room:  room.View(),
		Actor: ActorView{Name: actor.Name, Role: string(actor.Role)},
	})
}

func (c *AuthController) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, c.Sessions.Clear())
	w.WriteHeader(http.StatusNoContent)
}

func (c *AuthController) bind(w http.ResponseWriter, actor minutes.Actor, roomCode string) bool {
	cookie, err := c.Sessions.Issue(actor, roomCode)
	if err != nil {
		zap.L().Error("failed to issue session cookie", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal"})
		return false
	}
	http.SetCookie(w, cookie)
	return true
}

func splitRoster(raw string) (roster []string) {
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			roster = append(roster, name)
		}
	}
	return
}
