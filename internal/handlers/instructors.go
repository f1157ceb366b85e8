package handlers

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cumbres/skisched/internal/models"
	"github.com/cumbres/skisched/internal/services"
)

// dashboardURL rebuilds /director preserving the ?date and ?active_only
// navigation the director had open.
func dashboardURL(r *http.Request, extra url.Values) string {
	q := url.Values{}
	date := r.FormValue("date")
	if date == "" {
		date = r.URL.Query().Get("date")
	}
	if date != "" {
		q.Set("date", date)
	}
	ao := r.FormValue("active_only")
	if ao == "" {
		ao = r.URL.Query().Get("active_only")
	}
	if ao == "1" {
		q.Set("active_only", "1")
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if len(q) == 0 {
		return "/director"
	}
	return "/director?" + q.Encode()
}

// GET /director/instructors — the center's instructor roster.
func InstructorsList(t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		instructors, err := services.ListInstructors(u.CenterID)
		if err != nil {
			http.Error(w, "failed to list instructors", http.StatusInternalServerError)
			return
		}
		view, err := t.Clone()
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if _, err := view.ParseFiles("templates/pages/director/instructors.tmpl"); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = view.ExecuteTemplate(w, "instructors.tmpl", map[string]any{
			"Title":       "Ski School • Instructors",
			"Instructors": instructors,
			"Flash":       MakeFlash(r),
		})
	}
}

// POST /director/instructors — creates an instructor assigned to the
// director's own center.
func CreateInstructor(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	_ = r.ParseForm()
	if u.CenterID == nil {
		http.Redirect(w, r, dashboardURL(r, url.Values{"error": {"no_center"}}), http.StatusSeeOther)
		return
	}

	level, _ := strconv.Atoi(r.FormValue("level"))
	in := services.RegisterUserInput{
		RUT:             r.FormValue("rut"),
		Name:            r.FormValue("name"),
		Surname:         r.FormValue("surname"),
		Email:           r.FormValue("email"),
		Phone:           r.FormValue("phone"),
		Role:            models.RoleInstructor,
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		Discipline:      r.FormValue("discipline"),
		Level:           level,
		Languages:       r.FormValue("languages"),
		CenterID:        u.CenterID,
	}
	if _, err := services.RegisterUser(in); err != nil {
		if msg, ok := scheduleErrText(err); ok {
			http.Redirect(w, r, dashboardURL(r, url.Values{"error": {msg}}), http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to create instructor", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, dashboardURL(r, url.Values{"ok": {"instructor_created"}}), http.StatusSeeOther)
}

// POST /director/instructors/{rut}/delete — guarded delete: refuses while
// the instructor still has bookings assigned.
func DeleteInstructor(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	_ = r.ParseForm()
	rut := chi.URLParam(r, "rut")

	if err := services.DeleteInstructor(rut, u.CenterID); err != nil {
		if msg, ok := scheduleErrText(err); ok {
			http.Redirect(w, r, dashboardURL(r, url.Values{"error": {msg}}), http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to delete instructor", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, dashboardURL(r, url.Values{"ok": {"instructor_deleted"}}), http.StatusSeeOther)
}
