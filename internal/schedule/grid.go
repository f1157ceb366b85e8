package schedule

import (
	"context"
	"time"

	"github.com/cumbres/skisched/internal/metrics"
	"github.com/cumbres/skisched/internal/models"
)

// The board is a fixed axis of half-hour slots from 09:00 to 17:00,
// inclusive of both ends.
const (
	gridOpenHour  = 9
	gridCloseHour = 17
	slotMinutes   = 30

	// (17-9)*2 + 1
	SlotsPerDay = (gridCloseHour-gridOpenHour)*60/slotMinutes + 1
)

// SlotClocks returns the fixed slot labels, "09:00" through "17:00".
func SlotClocks() []string {
	out := make([]string, 0, SlotsPerDay)
	for i := 0; i < SlotsPerDay; i++ {
		min := gridOpenHour*60 + i*slotMinutes
		out = append(out, time.Date(0, 1, 1, min/60, min%60, 0, 0, time.UTC).Format(ClockLayout))
	}
	return out
}

// GridRow is one instructor's line on the board: a fixed-length cell array,
// one cell per slot, nil when free.
type GridRow struct {
	Instructor models.User
	Active     bool
	Cells      [SlotsPerDay]*models.Booking
}

// DayGrid is the instructor × slot table for one date.
type DayGrid struct {
	Date  string
	Slots []string
	Rows  []GridRow

	// Sum of all booked minutes on the date, as hours. Shown on the
	// director dashboard.
	TotalHours float64
}

// BuildDayGrid assembles the day board: instructors (optionally filtered by
// center and by active attendance) as rows, ordered by surname then name,
// with each booking stamped into every slot its [start, end) range overlaps.
//
// The fill is O(instructors × slots) per booking, fine for tens of each; a
// per-instructor sorted interval list would be the next step at hundreds of
// bookings per day.
func (e *Engine) BuildDayGrid(ctx context.Context, p Principal, date string, center *uint, activeOnly bool) (*DayGrid, error) {
	day, err := time.ParseInLocation(DateLayout, date, e.loc)
	if err != nil {
		return nil, &ValidationError{Msg: "invalid date, use YYYY-MM-DD"}
	}

	q := e.db.WithContext(ctx).
		Where("role = ?", models.RoleInstructor).
		Order("surname, name")
	if center != nil {
		q = q.Where("center_id = ?", *center)
	}
	var instructors []models.User
	if err := q.Find(&instructors).Error; err != nil {
		return nil, err
	}

	var records []models.AttendanceRecord
	if err := e.db.WithContext(ctx).Where("date = ?", date).Find(&records).Error; err != nil {
		return nil, err
	}
	activeByRUT := make(map[string]bool, len(records))
	for _, rec := range records {
		activeByRUT[rec.InstructorRUT] = rec.Active
	}

	if activeOnly {
		kept := instructors[:0]
		for _, inst := range instructors {
			if activeByRUT[inst.RUT] {
				kept = append(kept, inst)
			}
		}
		instructors = kept
	}

	var bookings []models.Booking
	err = e.db.WithContext(ctx).
		Where("start_at >= ? AND start_at < ?", day, day.AddDate(0, 0, 1)).
		Order("start_at").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	grid := &DayGrid{Date: date, Slots: SlotClocks()}
	rowByRUT := make(map[string]int, len(instructors))
	for i, inst := range instructors {
		grid.Rows = append(grid.Rows, GridRow{
			Instructor: inst,
			Active:     activeByRUT[inst.RUT],
		})
		rowByRUT[inst.RUT] = i
	}

	totalMin := 0
	for i := range bookings {
		b := &bookings[i]
		totalMin += b.DurationMin
		row, ok := rowByRUT[b.InstructorRUT]
		if !ok {
			// instructor filtered out (other center, inactive)
			continue
		}
		for s := 0; s < SlotsPerDay; s++ {
			slotStart := day.Add(time.Duration(gridOpenHour*60+s*slotMinutes) * time.Minute)
			slotEnd := slotStart.Add(slotMinutes * time.Minute)
			if slotStart.Before(b.EndAt) && slotEnd.After(b.StartAt) {
				grid.Rows[row].Cells[s] = b
			}
		}
	}
	grid.TotalHours = float64(totalMin) / 60.0

	metrics.GridBuilds.Inc()
	return grid, nil
}
