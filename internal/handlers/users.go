package handlers

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cumbres/skisched/internal/services"
)

// GET /users/new — the registration form.
func RegisterForm(t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := t.Clone()
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if _, err := view.ParseFiles("templates/pages/users_new.tmpl"); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = view.ExecuteTemplate(w, "users_new.tmpl", map[string]any{
			"Title": "Ski School • Register",
			"Flash": MakeFlash(r),
		})
	}
}

// POST /users/new
func RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	level, _ := strconv.Atoi(r.FormValue("level"))
	in := services.RegisterUserInput{
		RUT:             r.FormValue("rut"),
		Name:            r.FormValue("name"),
		Surname:         r.FormValue("surname"),
		Email:           r.FormValue("email"),
		Phone:           r.FormValue("phone"),
		Role:            r.FormValue("role"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		Discipline:      r.FormValue("discipline"),
		Level:           level,
		Languages:       r.FormValue("languages"),
	}
	if _, err := services.RegisterUser(in); err != nil {
		if msg, ok := scheduleErrText(err); ok {
			http.Redirect(w, r, "/users/new?error="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to register user", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/login?ok=registered", http.StatusSeeOther)
}
