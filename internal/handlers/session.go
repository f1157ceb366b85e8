package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cumbres/skisched/internal/config"
	"github.com/cumbres/skisched/internal/models"
	"github.com/cumbres/skisched/internal/schedule"
	"github.com/cumbres/skisched/internal/services"
)

const sessionCookieName = "skisched_session"

// Package wiring set once at startup. The engine is shared by every
// scheduling handler; everything else only needs the location and TTL.
var (
	eng        *schedule.Engine
	sessionTTL = 12 * time.Hour
)

// Setup wires the handlers package to the engine and the deployment config.
func Setup(e *schedule.Engine, cfg *config.Config) {
	eng = e
	loc = cfg.Location
	sessionTTL = cfg.SessionTTL
}

type session struct {
	RUT     string
	Expires time.Time
}

var (
	sessMu   sync.Mutex
	sessions = map[string]session{}
)

func startSession(w http.ResponseWriter, u *models.User) {
	token := uuid.NewString()
	sessMu.Lock()
	sessions[token] = session{RUT: u.RUT, Expires: time.Now().Add(sessionTTL)}
	sessMu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionTTL),
	})
}

func endSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		sessMu.Lock()
		delete(sessions, c.Value)
		sessMu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// currentUser resolves the session cookie to a fresh user row, nil when not
// logged in (or the account has been deleted meanwhile).
func currentUser(r *http.Request) *models.User {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	sessMu.Lock()
	s, ok := sessions[c.Value]
	if ok && time.Now().After(s.Expires) {
		delete(sessions, c.Value)
		ok = false
	}
	sessMu.Unlock()
	if !ok {
		return nil
	}
	u, err := services.GetUser(s.RUT)
	if err != nil {
		return nil
	}
	return u
}

// principalOf turns the session user into the explicit principal the engine
// expects; no handler reads role or center from anywhere else.
func principalOf(u *models.User) schedule.Principal {
	return schedule.Principal{RUT: u.RUT, Role: u.Role, CenterID: u.CenterID}
}

// RequireRole is middleware: blocks access unless a logged-in user has one
// of the given roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := currentUser(r)
			if u == nil {
				http.Redirect(w, r, "/login?next="+r.URL.RequestURI(), http.StatusSeeOther)
				return
			}
			if !allowed[u.Role] {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
