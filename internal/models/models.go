package models

import "time"

// User roles. Ticketing staff run the day board, directors manage their
// center, instructors only consume their own schedule.
const (
	RoleInstructor = "instructor"
	RoleTicketing  = "ticketing"
	RoleDirector   = "director"
)

// Disciplines. A booking is always one of ski/snow; an instructor may be
// certified for both.
const (
	DisciplineSki  = "ski"
	DisciplineSnow = "snow"
	DisciplineBoth = "both"
)

type Center struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name     string
	Location string
}

// User is keyed by the national ID (RUT) instead of an auto-increment ID,
// since that is the identifier staff actually type into forms.
type User struct {
	RUT       string `gorm:"column:rut;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name    string
	Surname string
	Email   string `gorm:"uniqueIndex;not null"`
	Phone   string

	PasswordHash string
	Role         string // instructor | ticketing | director

	// Instructor-only attributes; nil/empty for every other role.
	Discipline *string // ski | snow | both
	Level      *int    // certification level 1..3
	Languages  string  // free text, e.g. "spanish, english"

	CenterID *uint
	Center   *Center
}

func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }

func (u *User) FullName() string { return u.Name + " " + u.Surname }

// AttendanceRecord marks one instructor active (or not) for one date.
// Date is stored as "2006-01-02" so the composite unique index compares
// exactly; upserts give last-write-wins per (instructor, date).
type AttendanceRecord struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	InstructorRUT string `gorm:"column:instructor_rut;uniqueIndex:idx_attendance_day"`
	Date          string `gorm:"uniqueIndex:idx_attendance_day"`
	Active        bool
}

// Booking is one scheduled lesson: a party, an instructor and a time range.
// EndAt is always StartAt + DurationMin; overlap checks treat the range as
// half-open [StartAt, EndAt).
type Booking struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	PartyName  string
	PartyPhone string

	Discipline string // ski | snow
	Level      int    // 1..3

	StartAt     time.Time
	EndAt       time.Time
	DurationMin int
	PartySize   int

	InstructorRUT string `gorm:"column:instructor_rut;index"`
	Instructor    *User  `gorm:"foreignKey:InstructorRUT;references:RUT"`
}
