package handlers

import "time"

// Deployment time zone for all parsing and display. Set once by Setup.
var loc = time.Local

// parseDate parses YYYY-MM-DD in the deployment zone, returning def on
// empty/malformed input. Only read paths (board, dashboard, reports) use the
// fallback; write paths validate in the engine and reject instead.
func parseDate(s string, def time.Time) time.Time {
	if s == "" {
		return def
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return def
	}
	return t
}

func today() time.Time {
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// ISO date string, e.g. "2006-01-02"
func fmtISODate(d time.Time) string {
	return d.In(loc).Format("2006-01-02")
}

// Clock string, e.g. "09:30"
func fmtClock(d time.Time) string {
	return d.In(loc).Format("15:04")
}
