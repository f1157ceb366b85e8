package services

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cumbres/skisched/internal/db"
	"github.com/cumbres/skisched/internal/models"
	"github.com/cumbres/skisched/internal/schedule"
)

var validate = validator.New()

// ErrInvalidCredentials is deliberately vague: login failures never reveal
// whether the email exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

type RegisterUserInput struct {
	RUT             string `validate:"required"`
	Name            string `validate:"required"`
	Surname         string `validate:"required"`
	Email           string `validate:"required,email"`
	Phone           string
	Role            string `validate:"required,oneof=instructor ticketing director"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required"`

	// Required for instructors, cleared for everyone else.
	Discipline string
	Level      int
	Languages  string

	CenterID *uint
}

// RegisterUser creates a user account. Instructor-only attributes are
// mandatory for instructors and wiped for other roles, so a ticketing clerk
// can never carry a certification level.
func RegisterUser(in RegisterUserInput) (*models.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, &schedule.ValidationError{Msg: "missing or malformed user fields"}
	}
	if in.Password != in.ConfirmPassword {
		return nil, &schedule.ValidationError{Msg: "passwords do not match"}
	}

	u := &models.User{
		RUT:      in.RUT,
		Name:     in.Name,
		Surname:  in.Surname,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     in.Role,
		CenterID: in.CenterID,
	}

	if in.Role == models.RoleInstructor {
		switch in.Discipline {
		case models.DisciplineSki, models.DisciplineSnow, models.DisciplineBoth:
		default:
			return nil, &schedule.ValidationError{Msg: "instructors need a discipline (ski, snow or both)"}
		}
		if in.Level < 1 || in.Level > 3 {
			return nil, &schedule.ValidationError{Msg: "instructor level must be 1, 2 or 3"}
		}
		if in.Languages == "" {
			return nil, &schedule.ValidationError{Msg: "instructors need at least one language"}
		}
		d, lvl := in.Discipline, in.Level
		u.Discipline = &d
		u.Level = &lvl
		u.Languages = in.Languages
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = string(hash)

	if err := db.Conn().Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &schedule.ValidationError{Msg: "a user with that RUT or email already exists"}
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks email+password and returns the user on success.
func Authenticate(email, password string) (*models.User, error) {
	var u models.User
	err := db.Conn().Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// GetUser loads one user by RUT.
func GetUser(rut string) (*models.User, error) {
	var u models.User
	err := db.Conn().Where("rut = ?", rut).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &schedule.NotFoundError{Kind: "user", ID: rut}
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListInstructors returns instructors ordered by surname then name,
// optionally scoped to one center.
func ListInstructors(center *uint) ([]models.User, error) {
	q := db.Conn().Where("role = ?", models.RoleInstructor).Order("surname, name")
	if center != nil {
		q = q.Where("center_id = ?", *center)
	}
	var out []models.User
	return out, q.Find(&out).Error
}

// DeleteInstructor removes an instructor, refusing while any booking still
// references them. Directors only reach instructors of their own center.
func DeleteInstructor(rut string, center *uint) error {
	q := db.Conn().Where("rut = ? AND role = ?", rut, models.RoleInstructor)
	if center != nil {
		q = q.Where("center_id = ?", *center)
	}
	var inst models.User
	err := q.First(&inst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &schedule.NotFoundError{Kind: "instructor", ID: rut}
	}
	if err != nil {
		return err
	}

	var assigned int64
	if err := db.Conn().Model(&models.Booking{}).
		Where("instructor_rut = ?", inst.RUT).
		Count(&assigned).Error; err != nil {
		return err
	}
	if assigned > 0 {
		return &schedule.ReferentialIntegrityError{InstructorRUT: inst.RUT, Bookings: assigned}
	}

	return db.Conn().Delete(&inst).Error
}

// EnsureBootstrapUser creates a director account on an empty user table so a
// fresh deployment can be logged into. No-op when any user exists or the
// credentials are unset.
func EnsureBootstrapUser(email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	var n int64
	if err := db.Conn().Model(&models.User{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := RegisterUser(RegisterUserInput{
		RUT:             "bootstrap",
		Name:            "Bootstrap",
		Surname:         "Director",
		Email:           email,
		Role:            models.RoleDirector,
		Password:        password,
		ConfirmPassword: password,
	})
	return err
}
