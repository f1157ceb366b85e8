package handlers

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/cumbres/skisched/internal/export"
	"github.com/cumbres/skisched/internal/services"
)

func parseMonth(s string) string {
	if _, err := time.ParseInLocation("2006-01", s, loc); err != nil {
		return time.Now().In(loc).Format("2006-01")
	}
	return s
}

// GET /director/reports?month=YYYY-MM — per-instructor hours and class
// counts for one month, busiest first. Missing/malformed month falls back to
// the current one (read path).
func MonthlyReport(t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := parseMonth(r.URL.Query().Get("month"))
		rows, err := services.MonthlySummary(month, loc)
		if err != nil {
			http.Error(w, "failed to build report", http.StatusInternalServerError)
			return
		}
		view, err := t.Clone()
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		if _, err := view.ParseFiles("templates/pages/director/reports.tmpl"); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = view.ExecuteTemplate(w, "reports.tmpl", map[string]any{
			"Title": "Ski School • Monthly Report",
			"Month": month,
			"Rows":  rows,
		})
	}
}

// GET /director/reports.xlsx?month=YYYY-MM
func MonthlyReportXLSX(w http.ResponseWriter, r *http.Request) {
	month := parseMonth(r.URL.Query().Get("month"))
	rows, err := services.MonthlySummary(month, loc)
	if err != nil {
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	sheet := export.SheetSpec{
		Title:  "Hours " + month,
		Header: []string{"RUT", "Name", "Surname", "Total hours", "Classes"},
	}
	for _, row := range rows {
		sheet.Rows = append(sheet.Rows, []string{
			row.RUT,
			row.Name,
			row.Surname,
			strconv.FormatFloat(row.TotalHours(), 'f', 2, 64),
			strconv.FormatInt(row.Classes, 10),
		})
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.xlsx", month))
	if err := export.WriteWorkbook(w, []export.SheetSpec{sheet}); err != nil {
		http.Error(w, "failed to write workbook", http.StatusInternalServerError)
	}
}

func historyFilters(r *http.Request) (from, to *time.Time, instructor string) {
	q := r.URL.Query()
	if f, err := time.ParseInLocation("2006-01-02", q.Get("from"), loc); err == nil {
		if t, err := time.ParseInLocation("2006-01-02", q.Get("to"), loc); err == nil {
			from, to = &f, &t
		}
	}
	return from, to, q.Get("instructor")
}

// GET /director/history?from&to&instructor — filtered booking log, newest
// first.
func History(t *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		from, to, instructor := historyFilters(r)
		bookings, err := services.History(from, to, instructor)
		if err != nil {
			http.Error(w, "failed to load history", http.StatusInternalServerError)
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
		if _, err := view.ParseFiles("templates/pages/director/history.tmpl"); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		_ = view.ExecuteTemplate(w, "history.tmpl", map[string]any{
			"Title":       "Ski School • History",
			"Bookings":    bookings,
			"Instructors": instructors,
			"From":        r.URL.Query().Get("from"),
			"To":          r.URL.Query().Get("to"),
			"Instructor":  instructor,
		})
	}
}

// GET /director/history.csv — same filters as the history page.
func HistoryCSV(w http.ResponseWriter, r *http.Request) {
	from, to, instructor := historyFilters(r)
	bookings, err := services.History(from, to, instructor)
	if err != nil {
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=history.csv")

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "date", "start", "end", "duration_min", "discipline", "level",
		"party_name", "party_phone", "party_size", "instructor_rut", "instructor"})
	for _, b := range bookings {
		name := b.InstructorRUT
		if b.Instructor != nil {
			name = b.Instructor.FullName()
		}
		_ = cw.Write([]string{
			strconv.FormatUint(uint64(b.ID), 10),
			fmtISODate(b.StartAt),
			fmtClock(b.StartAt),
			fmtClock(b.EndAt),
			strconv.Itoa(b.DurationMin),
			b.Discipline,
			strconv.Itoa(b.Level),
			b.PartyName,
			b.PartyPhone,
			strconv.Itoa(b.PartySize),
			b.InstructorRUT,
			name,
		})
	}
	cw.Flush()
}
