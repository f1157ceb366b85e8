package handlers

import (
	"net/http"
	"strings"
)

type Flash struct {
	Kind string // "ok" or "error"
	Text string
}

var okText = map[string]string{
	"booking_created":    "Class booked.",
	"booking_updated":    "Class updated.",
	"booking_deleted":    "Class deleted.",
	"attendance_saved":   "Attendance saved.",
	"instructor_created": "Instructor created.",
	"instructor_deleted": "Instructor deleted.",
	"registered":         "User registered. You can log in now.",
}

var errText = map[string]string{
	"bad_login":    "Invalid email or password.",
	"no_center":    "Your account has no center assigned.",
	"bad_date":     "Invalid date, use YYYY-MM-DD.",
	"unauthorized": "Please log in first.",
}

// MakeFlash reads ?ok= / ?error= query params into a Flash. Known keys map
// to canned messages; anything else (e.g. an engine error message naming the
// instructor) is shown verbatim.
func MakeFlash(r *http.Request) *Flash {
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("error")); raw != "" {
		if t, ok := errText[strings.ToLower(raw)]; ok {
			return &Flash{Kind: "error", Text: t}
		}
		return &Flash{Kind: "error", Text: raw}
	}
	if raw := strings.TrimSpace(q.Get("ok")); raw != "" {
		if t, ok := okText[strings.ToLower(raw)]; ok {
			return &Flash{Kind: "ok", Text: t}
		}
		return &Flash{Kind: "ok", Text: raw}
	}
	return nil
}
