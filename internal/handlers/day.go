package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cumbres/skisched/internal/schedule"
	"github.com/cumbres/skisched/internal/services"
)

// scheduleErrText reports whether err is one of the engine's typed domain
// errors; when it is, its message already names the specific cause and is
// safe to show the user.
func scheduleErrText(err error) (string, bool) {
	var (
		ve *schedule.ValidationError
		nf *schedule.NotFoundError
		ce *schedule.ConflictError
		ua *schedule.InstructorUnavailableError
		ri *schedule.ReferentialIntegrityError
	)
	switch {
	case errors.As(err, &ve),
		errors.As(err, &nf),
		errors.As(err, &ce),
		errors.As(err, &ua),
		errors.As(err, &ri):
		return err.Error(), true
	}
	return "", false
}

func boardURL(date string, params url.Values) string {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if len(q) == 0 {
		return "/day"
	}
	return "/day?" + q.Encode()
}

// GET /day — the ticketing board: all instructors × slots for one date.
// A malformed ?date falls back to today; that fallback is deliberate and
// limited to read paths.
func DayBoard(t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		date := fmtISODate(parseDate(r.URL.Query().Get("date"), today()))

		grid, err := eng.BuildDayGrid(r.Context(), principalOf(u), date, nil, false)
		if err != nil {
			http.Error(w, "failed to build day grid", http.StatusInternalServerError)
			return
		}
		instructors, err := services.ListInstructors(nil)
		if err != nil {
			http.Error(w, "failed to list instructors", http.StatusInternalServerError)
			return
		}

		view, err := t.Clone()
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if _, err := view.ParseFiles("templates/pages/day.tmpl"); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = view.ExecuteTemplate(w, "day.tmpl", map[string]any{
			"Title":       "Ski School • Day Board",
			"Date":        date,
			"Grid":        grid,
			"Instructors": instructors,
			"Flash":       MakeFlash(r),
		})
	}
}

// POST /bookings
func CreateBooking(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	_ = r.ParseForm()
	date := r.FormValue("date")

	duration, _ := strconv.Atoi(r.FormValue("duration"))
	level, _ := strconv.Atoi(r.FormValue("level"))
	size, _ := strconv.Atoi(r.FormValue("party_size"))

	in := schedule.CreateBookingInput{
		Date:          date,
		StartClock:    r.FormValue("start"),
		DurationMin:   duration,
		PartyName:     r.FormValue("party_name"),
		PartyPhone:    r.FormValue("party_phone"),
		Discipline:    r.FormValue("discipline"),
		Level:         level,
		PartySize:     size,
		InstructorRUT: r.FormValue("instructor"),
	}
	if _, err := eng.CreateBooking(r.Context(), principalOf(u), in); err != nil {
		if msg, ok := scheduleErrText(err); ok {
			http.Redirect(w, r, boardURL(date, url.Values{"error": {msg}}), http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, boardURL(date, url.Values{"ok": {"booking_created"}}), http.StatusSeeOther)
}

// POST /bookings/{id}
func EditBooking(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	_ = r.ParseForm()
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	date := r.FormValue("date")

	duration, _ := strconv.Atoi(r.FormValue("duration"))
	level, _ := strconv.Atoi(r.FormValue("level"))
	size, _ := strconv.Atoi(r.FormValue("party_size"))

	in := schedule.EditBookingInput{
		PartyName:     r.FormValue("party_name"),
		PartyPhone:    r.FormValue("party_phone"),
		DurationMin:   duration,
		Level:         level,
		PartySize:     size,
		InstructorRUT: r.FormValue("instructor"),
		StartClock:    r.FormValue("start"),
	}
	if _, err := eng.EditBooking(r.Context(), principalOf(u), uint(id), in); err != nil {
		if msg, ok := scheduleErrText(err); ok {
			http.Redirect(w, r, boardURL(date, url.Values{"error": {msg}}), http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to update booking", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, boardURL(date, url.Values{"ok": {"booking_updated"}}), http.StatusSeeOther)
}

// POST /bookings/{id}/delete
func DeleteBooking(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	_ = r.ParseForm()
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	date := r.FormValue("date")

	if err := eng.DeleteBooking(r.Context(), principalOf(u), uint(id)); err != nil {
		if msg, ok := scheduleErrText(err); ok {
			http.Redirect(w, r, boardURL(date, url.Values{"error": {msg}}), http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to delete booking", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, boardURL(date, url.Values{"ok": {"booking_deleted"}}), http.StatusSeeOther)
}
