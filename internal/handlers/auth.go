package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/cumbres/skisched/internal/models"
	"github.com/cumbres/skisched/internal/services"
)

// GET /login
func LoginForm(t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := t.Clone()
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if _, err := view.ParseFiles("templates/pages/login.tmpl"); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = view.ExecuteTemplate(w, "login.tmpl", map[string]any{
			"Title": "Ski School • Login",
			"Next":  r.URL.Query().Get("next"),
			"Flash": MakeFlash(r),
		})
	}
}

// POST /login
func LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	u, err := services.Authenticate(r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			http.Redirect(w, r, "/login?error=bad_login", http.StatusSeeOther)
			return
		}
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	startSession(w, u)

	next := r.FormValue("next")
	if next == "" {
		next = roleHome(u)
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// POST /logout
func Logout(w http.ResponseWriter, r *http.Request) {
	endSession(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// roleHome is where each role lands after login: ticketing on the day board,
// directors on their dashboard, instructors on their own day.
func roleHome(u *models.User) string {
	switch u.Role {
	case models.RoleDirector:
		return "/director"
	case models.RoleInstructor:
		return "/my/day"
	default:
		return "/day"
	}
}
