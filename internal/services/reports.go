package services

import (
	"time"

	"github.com/cumbres/skisched/internal/db"
	"github.com/cumbres/skisched/internal/models"
	"github.com/cumbres/skisched/internal/schedule"
)

// MonthlySummaryRow is one instructor's totals for a month.
type MonthlySummaryRow struct {
	RUT          string
	Name         string
	Surname      string
	TotalMinutes int64
	Classes      int64
}

func (r MonthlySummaryRow) TotalHours() float64 {
	// two decimals, matching how the board displays hours
	return float64(int64(float64(r.TotalMinutes)/60.0*100+0.5)) / 100
}

// MonthlySummary aggregates booked minutes and class counts per instructor
// for one month ("YYYY-MM"), busiest first. One GROUP BY round-trip.
func MonthlySummary(month string, loc *time.Location) ([]MonthlySummaryRow, error) {
	from, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return nil, &schedule.ValidationError{Msg: "invalid month, use YYYY-MM"}
	}
	to := from.AddDate(0, 1, 0)

	var rows []MonthlySummaryRow
	err = db.Conn().Table("bookings").
		Select(`bookings.instructor_rut AS rut,
			users.name,
			users.surname,
			SUM(bookings.duration_min) AS total_minutes,
			COUNT(bookings.id)         AS classes`).
		Joins("JOIN users ON users.rut = bookings.instructor_rut").
		Where("bookings.start_at >= ? AND bookings.start_at < ?", from, to).
		Group("bookings.instructor_rut, users.name, users.surname").
		Order("total_minutes DESC").
		Scan(&rows).Error
	return rows, err
}

// History lists bookings newest first, optionally bounded by [from, to]
// dates and filtered to one instructor.
func History(from, to *time.Time, instructorRUT string) ([]models.Booking, error) {
	q := db.Conn().Preload("Instructor").Order("start_at DESC")
	if from != nil && to != nil {
		// inclusive day range: anything starting before the day after "to"
		q = q.Where("start_at >= ? AND start_at < ?", *from, to.AddDate(0, 0, 1))
	}
	if instructorRUT != "" {
		q = q.Where("instructor_rut = ?", instructorRUT)
	}
	var out []models.Booking
	return out, q.Find(&out).Error
}
