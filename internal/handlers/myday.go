package handlers

import (
	"html/template"
	"net/http"
)

// GET /my/day — an instructor's own schedule for one date. Read path, so a
// malformed ?date falls back to today.
func MyDay(t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		date := fmtISODate(parseDate(r.URL.Query().Get("date"), today()))

		bookings, err := eng.InstructorDay(r.Context(), u.RUT, date)
		if err != nil {
			http.Error(w, "failed to load classes", http.StatusInternalServerError)
			return
		}

		view, err := t.Clone()
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if _, err := view.ParseFiles("templates/pages/myday.tmpl"); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = view.ExecuteTemplate(w, "myday.tmpl", map[string]any{
			"Title":    "Ski School • My Classes",
			"Date":     date,
			"Bookings": bookings,
		})
	}
}
