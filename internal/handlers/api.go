package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cumbres/skisched/internal/models"
)

type bookingJSON struct {
	ID          uint   `json:"id"`
	PartyName   string `json:"party_name"`
	PartyPhone  string `json:"party_phone"`
	Discipline  string `json:"discipline"`
	Level       int    `json:"level"`
	Start       string `json:"start"`
	End         string `json:"end"`
	DurationMin int    `json:"duration_min"`
	PartySize   int    `json:"party_size"`
}

func toBookingJSON(b models.Booking) bookingJSON {
	return bookingJSON{
		ID:          b.ID,
		PartyName:   b.PartyName,
		PartyPhone:  b.PartyPhone,
		Discipline:  b.Discipline,
		Level:       b.Level,
		Start:       b.StartAt.In(loc).Format(time.RFC3339),
		End:         b.EndAt.In(loc).Format(time.RFC3339),
		DurationMin: b.DurationMin,
		PartySize:   b.PartySize,
	}
}

// GET /api/my-classes?date=YYYY-MM-DD — the logged-in instructor's bookings
// for a date, earliest first. Missing date means today; a malformed one is a
// 400 so API clients notice typos instead of silently getting today.
func MyClasses(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if u == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = fmtISODate(today())
	} else if _, err := time.ParseInLocation("2006-01-02", date, loc); err != nil {
		http.Error(w, `{"error":"invalid date, use YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	bookings, err := eng.InstructorDay(r.Context(), u.RUT, date)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}

	out := struct {
		Date    string        `json:"date"`
		Classes []bookingJSON `json:"classes"`
	}{Date: date, Classes: make([]bookingJSON, 0, len(bookings))}
	for _, b := range bookings {
		out.Classes = append(out.Classes, toBookingJSON(b))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
