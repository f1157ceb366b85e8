package web

import (
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cumbres/skisched/internal/config"
	"github.com/cumbres/skisched/internal/handlers"
	"github.com/cumbres/skisched/internal/metrics"
	"github.com/cumbres/skisched/internal/models"
	"github.com/cumbres/skisched/internal/schedule"
)

func Router(cfg *config.Config, eng *schedule.Engine) http.Handler {
	handlers.Setup(eng, cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	tmpl := mustParseTemplates("templates", cfg.Location)

	// Public
	r.Get("/", handlers.Home)
	r.Get("/healthz", handlers.Health)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/login", handlers.LoginForm(tmpl))
	r.Post("/login", handlers.LoginSubmit)
	r.Post("/logout", handlers.Logout)
	r.Get("/users/new", handlers.RegisterForm(tmpl))
	r.Post("/users/new", handlers.RegisterSubmit)

	// Ticketing board + booking mutations (directors can cover the desk)
	r.Group(func(tk chi.Router) {
		tk.Use(handlers.RequireRole(models.RoleTicketing, models.RoleDirector))
		tk.Get("/day", handlers.DayBoard(tmpl))
		tk.Post("/bookings", handlers.CreateBooking)
		tk.Post("/bookings/{id}", handlers.EditBooking)
		tk.Post("/bookings/{id}/delete", handlers.DeleteBooking)
		tk.Get("/qr/{id}.png", handlers.VoucherQR)
	})

	// Director pages
	r.Route("/director", func(dr chi.Router) {
		dr.Use(handlers.RequireRole(models.RoleDirector))
		dr.Get("/", handlers.DirectorDashboard(tmpl))
		dr.Post("/attendance", handlers.SaveAttendance)
		dr.Get("/instructors", handlers.InstructorsList(tmpl))
		dr.Post("/instructors", handlers.CreateInstructor)
		dr.Post("/instructors/{rut}/delete", handlers.DeleteInstructor)
		dr.Get("/reports", handlers.MonthlyReport(tmpl))
		dr.Get("/reports.xlsx", handlers.MonthlyReportXLSX)
		dr.Get("/history", handlers.History(tmpl))
		dr.Get("/history.csv", handlers.HistoryCSV)
	})

	// Instructor self-service
	r.Group(func(in chi.Router) {
		in.Use(handlers.RequireRole(models.RoleInstructor))
		in.Get("/my/day", handlers.MyDay(tmpl))
		in.Get("/api/my-classes", handlers.MyClasses)
	})

	return r
}

func mustParseTemplates(baseDir string, loc *time.Location) *template.Template {
	funcs := template.FuncMap{
		"year":    func() string { return time.Now().Format("2006") },
		"fmtDate": func(t time.Time) string { return t.In(loc).Format("Mon, 02 Jan 2006") },
		"isodate": func(t time.Time) string { return t.In(loc).Format("2006-01-02") },
		"clock":   func(t time.Time) string { return t.In(loc).Format("15:04") },
		"fmtDateTime": func(t time.Time) string {
			return t.In(loc).Format("Mon, 02 Jan 2006 15:04")
		},
	}

	p := template.New("").Funcs(funcs)
	p = template.Must(p.ParseGlob(filepath.Join(baseDir, "layouts", "*.tmpl")))
	p = template.Must(p.ParseGlob(filepath.Join(baseDir, "partials", "*.tmpl")))
	return p
}
