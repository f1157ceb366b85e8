package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/cumbres/skisched/internal/services"
)

// GET /director — the director's calendar: their center's instructors with
// active/inactive state, navigable by ?date= and filterable by
// ?active_only=1. Malformed dates fall back to today (read path).
func DirectorDashboard(t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		date := fmtISODate(parseDate(r.URL.Query().Get("date"), today()))
		activeOnly := r.URL.Query().Get("active_only") == "1"

		grid, err := eng.BuildDayGrid(r.Context(), principalOf(u), date, u.CenterID, activeOnly)
		if err != nil {
			http.Error(w, "failed to build day grid", http.StatusInternalServerError)
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
		if _, err := view.ParseFiles("templates/pages/director/dashboard.tmpl"); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = view.ExecuteTemplate(w, "dashboard.tmpl", map[string]any{
			"Title":       "Ski School • Director",
			"Date":        date,
			"ActiveOnly":  activeOnly,
			"Grid":        grid,
			"Instructors": instructors,
			"Flash":       MakeFlash(r),
		})
	}
}

// POST /director/attendance — saves the day's active instructor set and
// answers JSON for the dashboard toggles. Replace-by-date: instructors not
// listed become inactive. Write path, so a bad date is rejected, not
// defaulted.
func SaveAttendance(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := r.FormValue("date")
	active := r.Form["active"]

	err := eng.SetAttendance(r.Context(), principalOf(u), date, active, u.CenterID)
	if err != nil {
		if msg, ok := scheduleErrText(err); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": msg})
			return
		}
		http.Error(w, "failed to save attendance", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
