package controllers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/toolbox-talk/backend/internal/cctx"
	"github.com/toolbox-talk/backend/internal/export"
	"github.com/toolbox-talk/backend/internal/minutes"
	"github.com/toolbox-talk/backend/internal/router"
	"github.com/toolbox-talk/backend/internal/session"
)

var _ router.Controller = (*MeetingController)(nil)

// MeetingController serves the room view and every in-room operation for the
// actor bound to the session cookie.
type MeetingController struct {
	Store    *minutes.Store
	Sessions *session.Manager
}

func (c *MeetingController) Register(router *mux.Router) {
	router.HandleFunc("/room", c.withRoom(c.handleView)).Methods(http.MethodGet)
	router.HandleFunc("/room/info", c.withRoom(c.handleSetInfo)).Methods(http.MethodPut)
	router.HandleFunc("/room/discussion", c.withRoom(c.handleAddDiscussion)).Methods(http.MethodPost)
	router.HandleFunc("/room/notes", c.withRoom(c.handleSetNotes)).Methods(http.MethodPut)
	router.HandleFunc("/room/tasks", c.withRoom(c.handleAddTask)).Methods(http.MethodPost)
	router.HandleFunc("/room/confirm", c.withRoom(c.handleConfirm)).Methods(http.MethodPost)
	router.HandleFunc("/room/signoff", c.withRoom(c.handleSignOff)).Methods(http.MethodGet)
	router.HandleFunc("/room/finalize", c.withRoom(c.handleFinalize)).Methods(http.MethodPost)
	router.HandleFunc("/room/export", c.withRoom(c.handleExport)).Methods(http.MethodGet)
}

type roomHandler func(w http.ResponseWriter, r *http.Request, room *minutes.Room)

// withRoom decodes the session cookie, resolves the bound room and injects
// the actor into the request context before running the handler.
func (c *MeetingController) withRoom(next roomHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, roomCode, err := c.Sessions.Decode(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no_session"})
			return
		}

		room, err := c.Store.GetRoom(roomCode)
		if err != nil {
			// The room was replaced or the process restarted under the session.
			writeDomainError(w, err)
			return
		}

		r = r.WithContext(cctx.WithValues(
			r.Context(),
			cctx.ActorName, actor.Name,
			cctx.ActorRole, string(actor.Role),
			cctx.RoomCode, roomCode,
		))

		next(w, r, room)
	}
}

func (c *MeetingController) handleView(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	// Opening the room is what marks attendance, on every render.
	room.RecordAttendance(actor.Name)

	resp := RoomResponse{
		Room:  room.View(),
		Actor: ActorView{Name: actor.Name, Role: string(actor.Role)},
	}
	if status, err := room.SignOffStatus(actor); err == nil {
		resp.SignOff = &status
	}

	writeJSON(w, http.StatusOK, resp)
}

func (c *MeetingController) handleSetInfo(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	var req InfoRequest
	if !readJSON(w, r, &req) {
		return
	}

	err := room.SetInfo(actor, minutes.Info{
		Date:  req.Date,
		Time:  req.Time,
		Place: req.Place,
		Task:  req.Task,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room.View())
}

func (c *MeetingController) handleAddDiscussion(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	var req DiscussionRequest
	if !readJSON(w, r, &req) {
		return
	}

	if err := room.AddDiscussionItem(actor, req.Risk, req.Mitigation); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, room.View())
}

func (c *MeetingController) handleSetNotes(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	var req NotesRequest
	if !readJSON(w, r, &req) {
		return
	}

	if err := room.SetAdditionalNotes(actor, req.Text); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room.View())
}

func (c *MeetingController) handleAddTask(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	var req TaskRequest
	if !readJSON(w, r, &req) {
		return
	}

	due, err := parseDueDate(req.Due)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed due date"})
		return
	}

	if err := room.AddTask(actor, req.Owner, req.Responsibility, due); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, room.View())
}

func (c *MeetingController) handleConfirm(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	already, err := room.Confirm(actor.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !already {
		zap.L().Info("sign-off recorded",
			zap.String("code", room.Code()),
			zap.String("name", actor.Name),
		)
	}

	writeJSON(w, http.StatusOK, ConfirmResponse{Name: actor.Name, Already: already})
}

func (c *MeetingController) handleSignOff(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	status, err := room.SignOffStatus(actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (c *MeetingController) handleFinalize(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	if err := room.Finalize(actor); err != nil {
		writeDomainError(w, err)
		return
	}

	zap.L().Info("room finalized", zap.String("code", room.Code()))
	writeJSON(w, http.StatusOK, room.View())
}

func (c *MeetingController) handleExport(w http.ResponseWriter, r *http.Request, room *minutes.Room) {
	actor, _, _ := actorFromContext(r)
	snap, err := room.Snapshot(actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body := export.Render(snap)
	filename := export.Filename(snap.ExportedAt)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename*=UTF-8''%s`, urlEscape(filename)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		zap.L().Error("failed to write export", zap.Error(err))
	}
}
