// Package session binds an actor (name, role, room code) to one interactive
// session. The binding is carried as a paseto v4 public token in a cookie:
// issued at login, decoded per request, cleared at logout. Nothing is stored
// server-side, so sessions die with the process like everything else.
package session

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toolbox-talk/backend/internal/minutes"
)

const (
	CookieName = "tbt_session"

	issuer   = "toolbox-talk"
	lifetime = 12 * time.Hour
)

var ErrNoSession = errors.New("no active session")

type Manager struct {
	key    paseto.V4AsymmetricSecretKey
	parser paseto.Parser
}

// NewManager builds a session manager from a base64-encoded private key. An
// absent or invalid secret falls back to a random ephemeral key, which
// invalidates all outstanding sessions on restart.
func NewManager(secret string) *Manager {
	m := &Manager{
		parser: paseto.MakeParser([]paseto.Rule{
			paseto.IssuedBy(issuer),
			paseto.NotExpired(),
		}),
	}

	key, err := loadPrivateKey(secret)
	if err != nil {
		zap.L().Warn("failed to decode session private key, using random key", zap.Error(err))
		key = paseto.NewV4AsymmetricSecretKey()
	}
	m.key = key

	return m
}

// Issue signs a fresh token for the actor and returns it as a cookie.
func (m *Manager) Issue(actor minutes.Actor, roomCode string) (*http.Cookie, error) {
	now := time.Now()
	expiresAt := now.Add(lifetime)

	token := newToken()
	token.SetIssuer(issuer)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expiresAt)
	token.SetSubject(actor.Name)
	for key, value := range map[string]string{
		"role": string(actor.Role),
		"room": roomCode,
		"sid":  newSessionID(),
	} {
		if err := token.Set(key, value); err != nil {
			return nil, err
		}
	}

	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token.V4Sign(m.key, nil),
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(lifetime / time.Second),
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
	}
	if err := cookie.Valid(); err != nil {
		return nil, err
	}
	return cookie, nil
}

// Decode extracts the bound actor and room code from the request cookie.
// A missing, tampered or expired token yields ErrNoSession.
func (m *Manager) Decode(r *http.Request) (actor minutes.Actor, roomCode string, err error) {
	cookie, err := r.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		err = ErrNoSession
		return
	} else if err != nil {
		return
	}

	token, parseErr := m.parser.ParseV4Public(m.key.Public(), cookie.Value, nil)
	if parseErr != nil {
		zap.L().Debug("invalid session token", zap.Error(parseErr))
		err = ErrNoSession
		return
	}

	name, err := token.GetSubject()
	if err != nil {
		err = ErrNoSession
		return
	}
	var role string
	if err = token.Get("role", &role); err != nil {
		err = ErrNoSession
		return
	}
	if err = token.Get("room", &roomCode); err != nil {
		err = ErrNoSession
		return
	}

	actor = minutes.Actor{Name: name, Role: minutes.Role(role)}
	return
}

// Clear returns an expired cookie that tears the session down.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
	}
}

func newSessionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func loadPrivateKey(secret string) (key paseto.V4AsymmetricSecretKey, err error) {
	if secret == "" {
		err = errors.New("empty session secret")
		return
	}

	var decoded []byte
	if decoded, err = base64.StdEncoding.DecodeString(secret); err != nil {
		return
	}

	return paseto.NewV4AsymmetricSecretKeyFromBytes(decoded)
}

// XXX: paseto library is silly
func newToken() *paseto.Token {
	t := paseto.NewToken()
	return &t
}
