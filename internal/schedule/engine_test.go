package schedule_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cumbres/skisched/internal/db"
	"github.com/cumbres/skisched/internal/models"
	"github.com/cumbres/skisched/internal/schedule"
)

// newTestEngine opens an isolated sqlite database in a temp dir and returns
// an engine bound to it.
func newTestEngine(t *testing.T) *schedule.Engine {
	t.Helper()
	if err := db.Init(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("db init: %v", err)
	}
	return schedule.New(db.Conn(), time.UTC, zap.NewNop().Sugar())
}

func seedInstructor(t *testing.T, rut, name, surname string, center *uint) {
	t.Helper()
	d := models.DisciplineSki
	lvl := 2
	u := models.User{
		RUT: rut, Name: name, Surname: surname,
		Email: rut + "@example.test", Role: models.RoleInstructor,
		Discipline: &d, Level: &lvl, Languages: "spanish",
		CenterID: center,
	}
	if err := db.Conn().Create(&u).Error; err != nil {
		t.Fatalf("seed instructor %s: %v", rut, err)
	}
}

func seedAttendance(t *testing.T, rut, date string, active bool) {
	t.Helper()
	rec := models.AttendanceRecord{InstructorRUT: rut, Date: date, Active: active}
	if err := db.Conn().Create(&rec).Error; err != nil {
		t.Fatalf("seed attendance %s %s: %v", rut, date, err)
	}
}

func desk() schedule.Principal {
	return schedule.Principal{RUT: "desk-1", Role: models.RoleTicketing}
}

func createInput(date, start string, duration int, rut string) schedule.CreateBookingInput {
	return schedule.CreateBookingInput{
		Date:          date,
		StartClock:    start,
		DurationMin:   duration,
		PartyName:     "Soto family",
		PartyPhone:    "+56 9 1111 2222",
		Discipline:    models.DisciplineSki,
		Level:         1,
		PartySize:     2,
		InstructorRUT: rut,
	}
}

// TestCreateBooking_Scenario walks the canonical desk flow: a 60-minute
// class at 09:00, a rejected overlap at 09:30, and a second class at 10:00.
func TestCreateBooking_Scenario(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "11.111.111-1", "Ana", "Rojas", nil)
	seedAttendance(t, "11.111.111-1", "2025-01-10", true)

	b, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "11.111.111-1"))
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if got := b.EndAt.Sub(b.StartAt); got != time.Hour {
		t.Errorf("end-start: want 1h, got %v", got)
	}

	grid, err := eng.BuildDayGrid(ctx, desk(), "2025-01-10", nil, false)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if len(grid.Rows) != 1 {
		t.Fatalf("rows: want 1, got %d", len(grid.Rows))
	}
	for i := 0; i < schedule.SlotsPerDay; i++ {
		occupied := grid.Rows[0].Cells[i] != nil
		want := i == 0 || i == 1 // 09:00 and 09:30
		if occupied != want {
			t.Errorf("slot %d occupied=%v, want %v", i, occupied, want)
		}
	}

	_, err = eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:30", 30, "11.111.111-1"))
	var ce *schedule.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("overlapping booking: want ConflictError, got %v", err)
	}
	if ce.InstructorName != "Ana Rojas" {
		t.Errorf("conflict names %q, want the instructor", ce.InstructorName)
	}

	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "10:00", 30, "11.111.111-1")); err != nil {
		t.Fatalf("10:00 booking should fit: %v", err)
	}
}

// TestCreateBooking_HalfOpenBoundary: a class ending exactly at 10:00 and
// one starting at 10:00 do not conflict.
func TestCreateBooking_HalfOpenBoundary(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "22.222.222-2", "Bruno", "Pérez", nil)
	seedAttendance(t, "22.222.222-2", "2025-01-10", true)

	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "22.222.222-2")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "10:00", 60, "22.222.222-2")); err != nil {
		t.Fatalf("touching endpoints must not conflict: %v", err)
	}
}

func TestCreateBooking_AttendanceGate(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "33.333.333-3", "Carla", "Muñoz", nil)

	// no attendance record at all
	_, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "33.333.333-3"))
	var ua *schedule.InstructorUnavailableError
	if !errors.As(err, &ua) {
		t.Fatalf("missing record: want InstructorUnavailableError, got %v", err)
	}
	if ua.Date != "2025-01-10" {
		t.Errorf("error date %q", ua.Date)
	}

	// explicit inactive record
	seedAttendance(t, "33.333.333-3", "2025-01-11", false)
	_, err = eng.CreateBooking(ctx, desk(), createInput("2025-01-11", "09:00", 60, "33.333.333-3"))
	if !errors.As(err, &ua) {
		t.Fatalf("inactive record: want InstructorUnavailableError, got %v", err)
	}

	// active record
	seedAttendance(t, "33.333.333-3", "2025-01-12", true)
	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-12", "09:00", 60, "33.333.333-3")); err != nil {
		t.Fatalf("active day: %v", err)
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "44.444.444-4", "Diego", "Fuentes", nil)
	seedAttendance(t, "44.444.444-4", "2025-01-10", true)

	cases := []struct {
		name string
		in   schedule.CreateBookingInput
	}{
		{"zero duration", createInput("2025-01-10", "09:00", 0, "44.444.444-4")},
		{"bad date", createInput("10/01/2025", "09:00", 60, "44.444.444-4")},
		{"bad clock", createInput("2025-01-10", "9am", 60, "44.444.444-4")},
		{"bad level", func() schedule.CreateBookingInput {
			in := createInput("2025-01-10", "09:00", 60, "44.444.444-4")
			in.Level = 4
			return in
		}()},
		{"bad discipline", func() schedule.CreateBookingInput {
			in := createInput("2025-01-10", "09:00", 60, "44.444.444-4")
			in.Discipline = "sled"
			return in
		}()},
		{"missing party name", func() schedule.CreateBookingInput {
			in := createInput("2025-01-10", "09:00", 60, "44.444.444-4")
			in.PartyName = ""
			return in
		}()},
	}
	for _, tc := range cases {
		_, err := eng.CreateBooking(ctx, desk(), tc.in)
		var ve *schedule.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: want ValidationError, got %v", tc.name, err)
		}
	}

	var n int64
	db.Conn().Model(&models.Booking{}).Count(&n)
	if n != 0 {
		t.Errorf("rejected inputs wrote %d booking(s)", n)
	}
}

func TestCreateBooking_UnknownInstructor(t *testing.T) {
	eng := newTestEngine(t)
	_, err := eng.CreateBooking(context.Background(), desk(), createInput("2025-01-10", "09:00", 60, "no-such"))
	var nf *schedule.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

// TestEditBooking_SelfExclusion: growing a booking into the range it already
// occupies must not conflict with itself.
func TestEditBooking_SelfExclusion(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "55.555.555-5", "Elena", "Vidal", nil)
	seedAttendance(t, "55.555.555-5", "2025-01-10", true)

	b, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "10:00", 60, "55.555.555-5"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	edited, err := eng.EditBooking(ctx, desk(), b.ID, schedule.EditBookingInput{
		PartyName:     b.PartyName,
		PartyPhone:    b.PartyPhone,
		DurationMin:   90,
		Level:         b.Level,
		PartySize:     b.PartySize,
		InstructorRUT: b.InstructorRUT,
	})
	if err != nil {
		t.Fatalf("self-overlapping edit must pass: %v", err)
	}
	if edited.DurationMin != 90 {
		t.Errorf("duration: want 90, got %d", edited.DurationMin)
	}
	if !edited.EndAt.Equal(edited.StartAt.Add(90 * time.Minute)) {
		t.Errorf("end did not follow duration: %v .. %v", edited.StartAt, edited.EndAt)
	}
	if !edited.StartAt.Equal(b.StartAt) {
		t.Errorf("start moved on a duration-only edit")
	}
}

// TestEditBooking_ConflictLeavesRowUntouched: an edit that would overlap a
// neighbouring class fails and changes nothing.
func TestEditBooking_ConflictLeavesRowUntouched(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "66.666.666-6", "Fabián", "Lagos", nil)
	seedAttendance(t, "66.666.666-6", "2025-01-10", true)

	first, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "66.666.666-6"))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "10:00", 30, "66.666.666-6")); err != nil {
		t.Fatalf("second: %v", err)
	}

	_, err = eng.EditBooking(ctx, desk(), first.ID, schedule.EditBookingInput{
		PartyName:     first.PartyName,
		PartyPhone:    first.PartyPhone,
		DurationMin:   90, // would run into the 10:00 class
		Level:         first.Level,
		PartySize:     first.PartySize,
		InstructorRUT: first.InstructorRUT,
	})
	var ce *schedule.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConflictError, got %v", err)
	}

	var reloaded models.Booking
	if err := db.Conn().First(&reloaded, first.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DurationMin != 60 {
		t.Errorf("failed edit changed duration to %d", reloaded.DurationMin)
	}
}

func TestEditBooking_StartEditCapability(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "77.777.777-7", "Gema", "Soto", nil)
	seedAttendance(t, "77.777.777-7", "2025-01-10", true)

	b, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "77.777.777-7"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := schedule.EditBookingInput{
		PartyName:     b.PartyName,
		PartyPhone:    b.PartyPhone,
		DurationMin:   60,
		Level:         b.Level,
		PartySize:     b.PartySize,
		InstructorRUT: b.InstructorRUT,
		StartClock:    "11:00",
	}

	// capability off (default): a start change is rejected
	_, err = eng.EditBooking(ctx, desk(), b.ID, in)
	var ve *schedule.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("start edit without capability: want ValidationError, got %v", err)
	}

	// capability on: the booking moves
	eng.AllowStartEdit = true
	moved, err := eng.EditBooking(ctx, desk(), b.ID, in)
	if err != nil {
		t.Fatalf("start edit with capability: %v", err)
	}
	if got := moved.StartAt.Format("15:04"); got != "11:00" {
		t.Errorf("start: want 11:00, got %s", got)
	}
}

func TestEditBooking_ChangeInstructor(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "88.888.888-8", "Hugo", "Araya", nil)
	seedInstructor(t, "99.999.999-9", "Inés", "Bravo", nil)
	seedAttendance(t, "88.888.888-8", "2025-01-10", true)
	seedAttendance(t, "99.999.999-9", "2025-01-10", true)

	b, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "88.888.888-8"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// the target instructor already teaches 09:30–10:00
	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:30", 30, "99.999.999-9")); err != nil {
		t.Fatalf("other: %v", err)
	}

	in := schedule.EditBookingInput{
		PartyName:     b.PartyName,
		PartyPhone:    b.PartyPhone,
		DurationMin:   b.DurationMin,
		Level:         b.Level,
		PartySize:     b.PartySize,
		InstructorRUT: "99.999.999-9",
	}
	_, err = eng.EditBooking(ctx, desk(), b.ID, in)
	var ce *schedule.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("reassign onto a busy instructor: want ConflictError, got %v", err)
	}

	// 09:00–09:30 fits before the other class starts
	in.DurationMin = 30
	moved, err := eng.EditBooking(ctx, desk(), b.ID, in)
	if err != nil {
		t.Fatalf("reassign into a free range: %v", err)
	}
	if moved.InstructorRUT != "99.999.999-9" {
		t.Errorf("instructor not reassigned: %s", moved.InstructorRUT)
	}
}

func TestDeleteBooking(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "10.101.010-1", "Karin", "Díaz", nil)
	seedAttendance(t, "10.101.010-1", "2025-01-10", true)

	b, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "10.101.010-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := eng.DeleteBooking(ctx, desk(), b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var nf *schedule.NotFoundError
	if err := eng.DeleteBooking(ctx, desk(), b.ID); !errors.As(err, &nf) {
		t.Fatalf("double delete: want NotFoundError, got %v", err)
	}
}

// TestSetAttendance_ReplaceByDate: instructors not listed become inactive,
// and repeated saves upsert instead of piling up rows.
func TestSetAttendance_ReplaceByDate(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "12.121.212-1", "Laura", "Castro", nil)
	seedInstructor(t, "13.131.313-1", "Mario", "Núñez", nil)

	if err := eng.SetAttendance(ctx, desk(), "2025-01-10", []string{"12.121.212-1"}, nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := eng.SetAttendance(ctx, desk(), "2025-01-10", []string{"13.131.313-1"}, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	var recs []models.AttendanceRecord
	if err := db.Conn().Where("date = ?", "2025-01-10").Order("instructor_rut").Find(&recs).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: want 2 (upsert), got %d", len(recs))
	}
	if recs[0].Active || !recs[1].Active {
		t.Errorf("replace-by-date broken: %+v", recs)
	}
}

func TestSetAttendance_BadDate(t *testing.T) {
	eng := newTestEngine(t)
	err := eng.SetAttendance(context.Background(), desk(), "10-01-2025", nil, nil)
	var ve *schedule.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

// TestNoOverlapInvariant hammers the engine with a mix of accepted and
// rejected operations, then asserts the pairwise no-overlap property over
// everything that survived.
func TestNoOverlapInvariant(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	ruts := []string{"14.141.414-1", "15.151.515-1"}
	seedInstructor(t, ruts[0], "Nora", "Pinto", nil)
	seedInstructor(t, ruts[1], "Óscar", "Reyes", nil)
	for _, r := range ruts {
		seedAttendance(t, r, "2025-01-10", true)
	}

	starts := []string{"09:00", "09:30", "10:00", "09:15", "10:30", "09:45", "11:00", "10:45"}
	durations := []int{60, 30, 90, 45, 30, 60, 30, 60}
	for i, s := range starts {
		for _, r := range ruts {
			// errors are expected; the invariant below is what matters
			_, _ = eng.CreateBooking(ctx, desk(), createInput("2025-01-10", s, durations[i], r))
		}
	}

	for _, r := range ruts {
		var bs []models.Booking
		if err := db.Conn().Where("instructor_rut = ?", r).Find(&bs).Error; err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(bs) == 0 {
			t.Fatalf("no bookings survived for %s", r)
		}
		for i := range bs {
			for j := i + 1; j < len(bs); j++ {
				a, b := bs[i], bs[j]
				if a.StartAt.Before(b.EndAt) && b.StartAt.Before(a.EndAt) {
					t.Errorf("instructor %s: bookings %d and %d overlap (%v–%v vs %v–%v)",
						r, a.ID, b.ID, a.StartAt, a.EndAt, b.StartAt, b.EndAt)
				}
			}
		}
	}
}

// TestInstructorDay returns only the instructor's own bookings, earliest
// first.
func TestInstructorDay(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedInstructor(t, "16.161.616-1", "Paula", "Silva", nil)
	seedInstructor(t, "17.171.717-1", "Quintín", "Toro", nil)
	seedAttendance(t, "16.161.616-1", "2025-01-10", true)
	seedAttendance(t, "17.171.717-1", "2025-01-10", true)

	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "11:00", 60, "16.161.616-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "16.161.616-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := eng.CreateBooking(ctx, desk(), createInput("2025-01-10", "09:00", 60, "17.171.717-1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := eng.InstructorDay(ctx, "16.161.616-1", "2025-01-10")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("classes: want 2, got %d", len(got))
	}
	if !got[0].StartAt.Before(got[1].StartAt) {
		t.Errorf("not ordered by start: %v, %v", got[0].StartAt, got[1].StartAt)
	}
}
