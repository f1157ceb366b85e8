package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cumbres/skisched/internal/metrics"
	"github.com/cumbres/skisched/internal/models"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Principal identifies who is asking. Handlers build it from the session;
// the engine never reads ambient state.
type Principal struct {
	RUT      string
	Role     string
	CenterID *uint
}

// Engine owns all booking and attendance writes. Every mutation runs inside
// one transaction on a single-writer SQLite pool, so the check-then-insert
// sequence cannot interleave with another writer.
type Engine struct {
	db  *gorm.DB
	loc *time.Location
	val *validator.Validate
	log *zap.SugaredLogger

	// AllowStartEdit lets EditBooking move a booking's start time. The
	// ticketing flow only changes duration today; flip this once product
	// decides start edits are wanted.
	AllowStartEdit bool
}

func New(gdb *gorm.DB, loc *time.Location, log *zap.SugaredLogger) *Engine {
	return &Engine{db: gdb, loc: loc, val: validator.New(), log: log}
}

type CreateBookingInput struct {
	Date          string `validate:"required,datetime=2006-01-02"`
	StartClock    string `validate:"required,datetime=15:04"`
	DurationMin   int    `validate:"required,gt=0"`
	PartyName     string `validate:"required"`
	PartyPhone    string `validate:"required"`
	Discipline    string `validate:"required,oneof=ski snow"`
	Level         int    `validate:"required,min=1,max=3"`
	PartySize     int    `validate:"required,gt=0"`
	InstructorRUT string `validate:"required"`
}

type EditBookingInput struct {
	PartyName     string `validate:"required"`
	PartyPhone    string `validate:"required"`
	DurationMin   int    `validate:"required,gt=0"`
	Level         int    `validate:"required,min=1,max=3"`
	PartySize     int    `validate:"required,gt=0"`
	InstructorRUT string `validate:"required"`

	// Honored only when the engine has AllowStartEdit set; otherwise a
	// non-empty value is rejected.
	StartClock string `validate:"omitempty,datetime=15:04"`
}

// CreateBooking validates the request, runs the overlap and attendance gates
// and inserts the booking, all in one transaction.
func (e *Engine) CreateBooking(ctx context.Context, p Principal, in CreateBookingInput) (*models.Booking, error) {
	if err := e.val.Struct(in); err != nil {
		return nil, &ValidationError{Msg: "missing or malformed booking fields"}
	}
	start, err := e.combine(in.Date, in.StartClock)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	end := start.Add(time.Duration(in.DurationMin) * time.Minute)

	b := &models.Booking{
		PartyName:     in.PartyName,
		PartyPhone:    in.PartyPhone,
		Discipline:    in.Discipline,
		Level:         in.Level,
		StartAt:       start,
		EndAt:         end,
		DurationMin:   in.DurationMin,
		PartySize:     in.PartySize,
		InstructorRUT: in.InstructorRUT,
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, err := instructorTx(tx, in.InstructorRUT)
		if err != nil {
			return err
		}
		if err := e.checkSlotTx(tx, inst, in.Date, start, end, 0); err != nil {
			return err
		}
		return tx.Create(b).Error
	})
	if err != nil {
		var ce *ConflictError
		if errors.As(err, &ce) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	e.log.Infow("booking created",
		"id", b.ID, "instructor", b.InstructorRUT, "start", b.StartAt, "by", p.RUT)
	return b, nil
}

// EditBooking re-runs the overlap gate excluding the edited row and applies
// all field changes atomically; on any failure the row is left untouched.
func (e *Engine) EditBooking(ctx context.Context, p Principal, id uint, in EditBookingInput) (*models.Booking, error) {
	if err := e.val.Struct(in); err != nil {
		return nil, &ValidationError{Msg: "missing or malformed booking fields"}
	}
	if in.StartClock != "" && !e.AllowStartEdit {
		return nil, &ValidationError{Msg: "changing a booking's start time is not enabled"}
	}

	var b models.Booking
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Kind: "booking", ID: fmt.Sprint(id)}
			}
			return err
		}

		date := b.StartAt.In(e.loc).Format(DateLayout)
		start := b.StartAt
		if in.StartClock != "" {
			ns, err := e.combine(date, in.StartClock)
			if err != nil {
				return &ValidationError{Msg: err.Error()}
			}
			start = ns
		}
		end := start.Add(time.Duration(in.DurationMin) * time.Minute)

		inst, err := instructorTx(tx, in.InstructorRUT)
		if err != nil {
			return err
		}
		if err := e.checkSlotTx(tx, inst, date, start, end, b.ID); err != nil {
			return err
		}

		b.PartyName = in.PartyName
		b.PartyPhone = in.PartyPhone
		b.Level = in.Level
		b.PartySize = in.PartySize
		b.DurationMin = in.DurationMin
		b.StartAt = start
		b.EndAt = end
		b.InstructorRUT = inst.RUT
		return tx.Save(&b).Error
	})
	if err != nil {
		var ce *ConflictError
		if errors.As(err, &ce) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	e.log.Infow("booking updated", "id", b.ID, "instructor", b.InstructorRUT, "by", p.RUT)
	return &b, nil
}

// DeleteBooking removes a booking. A missing id reports NotFoundError rather
// than silently succeeding, so callers can tell the user what happened.
func (e *Engine) DeleteBooking(ctx context.Context, p Principal, id uint) error {
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Booking
		if err := tx.First(&b, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Kind: "booking", ID: fmt.Sprint(id)}
			}
			return err
		}
		return tx.Delete(&b).Error
	})
	if err != nil {
		return err
	}
	metrics.BookingsDeleted.Inc()
	e.log.Infow("booking deleted", "id", id, "by", p.RUT)
	return nil
}

// SetAttendance replaces the attendance for one date: every instructor in
// scope gets a record, active only when listed. Existing bookings on the day
// are never retroactively invalidated; only later create/edit calls see the
// new gate.
func (e *Engine) SetAttendance(ctx context.Context, p Principal, date string, activeRUTs []string, center *uint) error {
	if _, err := time.ParseInLocation(DateLayout, date, e.loc); err != nil {
		return &ValidationError{Msg: "invalid date, use YYYY-MM-DD"}
	}

	active := make(map[string]bool, len(activeRUTs))
	for _, r := range activeRUTs {
		active[r] = true
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("role = ?", models.RoleInstructor)
		if center != nil {
			q = q.Where("center_id = ?", *center)
		}
		var instructors []models.User
		if err := q.Find(&instructors).Error; err != nil {
			return err
		}

		for _, inst := range instructors {
			rec := models.AttendanceRecord{
				InstructorRUT: inst.RUT,
				Date:          date,
				Active:        active[inst.RUT],
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "instructor_rut"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"active", "updated_at"}),
			}).Create(&rec).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// InstructorDay returns an instructor's bookings for one date, earliest
// first. Used by the instructor-facing JSON endpoint.
func (e *Engine) InstructorDay(ctx context.Context, rut, date string) ([]models.Booking, error) {
	day, err := time.ParseInLocation(DateLayout, date, e.loc)
	if err != nil {
		return nil, &ValidationError{Msg: "invalid date, use YYYY-MM-DD"}
	}
	var out []models.Booking
	err = e.db.WithContext(ctx).
		Where("instructor_rut = ? AND start_at >= ? AND start_at < ?",
			rut, day, day.AddDate(0, 0, 1)).
		Order("start_at").
		Find(&out).Error
	return out, err
}

// combine builds a wall-clock timestamp from a date and an HH:MM clock in
// the engine's location.
func (e *Engine) combine(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, e.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q", date, clock)
	}
	return t, nil
}

// checkSlotTx enforces the two write-side gates: the half-open overlap rule
// and the attendance gate. It must run in the same transaction as the write
// that follows, otherwise two concurrent requests could both pass and both
// insert.
func (e *Engine) checkSlotTx(tx *gorm.DB, inst *models.User, date string, start, end time.Time, excludeID uint) error {
	q := tx.Model(&models.Booking{}).
		Where("instructor_rut = ? AND start_at < ? AND end_at > ?", inst.RUT, end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var clashes int64
	if err := q.Count(&clashes).Error; err != nil {
		return err
	}
	if clashes > 0 {
		return &ConflictError{InstructorRUT: inst.RUT, InstructorName: inst.FullName()}
	}

	var rec models.AttendanceRecord
	err := tx.Where("instructor_rut = ? AND date = ?", inst.RUT, date).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no record for the day means not available
		return &InstructorUnavailableError{InstructorRUT: inst.RUT, InstructorName: inst.FullName(), Date: date}
	case err != nil:
		return err
	case !rec.Active:
		return &InstructorUnavailableError{InstructorRUT: inst.RUT, InstructorName: inst.FullName(), Date: date}
	}
	return nil
}

func instructorTx(tx *gorm.DB, rut string) (*models.User, error) {
	var u models.User
	err := tx.Where("rut = ? AND role = ?", rut, models.RoleInstructor).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "instructor", ID: rut}
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
