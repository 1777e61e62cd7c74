package controllers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/toolbox-talk/backend/internal/minutes"
	"github.com/toolbox-talk/backend/internal/router"
	"github.com/toolbox-talk/backend/internal/session"
)

var _ router.Controller = (*LiveController)(nil)

var wsPool = new(sync.Pool)

// LiveController streams sign-off status updates to the admin over a
// websocket, so the leader watches confirmations arrive without refreshing.
type LiveController struct {
	Store    *minutes.Store
	Sessions *session.Manager

	upgrader *websocket.Upgrader
}

func (c *LiveController) Register(router *mux.Router) {
	c.upgrader = &websocket.Upgrader{
		HandshakeTimeout:  10 * time.Second,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		WriteBufferPool:   wsPool,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: need allowed domains from the configuration
			return true
		},
	}

	router.HandleFunc("/room/signoff/live", c.handleLive).Methods(http.MethodGet)
}

func (c *LiveController) handleLive(w http.ResponseWriter, r *http.Request) {
	actor, roomCode, err := c.Sessions.Decode(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no_session"})
		return
	}

	room, err := c.Store.GetRoom(roomCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The feed mirrors the sign-off overview, so it carries the same gate.
	status, err := room.SignOffStatus(actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	id, updates := room.Watch()
	defer room.Unwatch(id)

	if err := conn.WriteJSON(status); err != nil {
		return
	}

	// Drain the read side so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case status, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(status); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
