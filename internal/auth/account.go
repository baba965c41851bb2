package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

var (
	// ErrInvalidCredentials is returned for an unknown student ID, a
	// deleted account or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStudentIDTaken is returned when an active account already uses the
	// student ID.
	ErrStudentIDTaken = errors.New("student ID is already registered")

	// ErrNameTaken is returned when an active account already uses the
	// display name. Listing ownership is keyed by name, so it must be unique.
	ErrNameTaken = errors.New("name is already in use")
)

// Authenticate returns the active user with studentID if password matches.
func Authenticate(ctx context.Context, db *sql.DB, studentID, password string) (*model.User, error) {
	user, err := store.GetUserByStudentID(ctx, db, strings.TrimSpace(studentID))
	if err != nil {
		return nil, err
	}
	if user == nil || user.DeletedAt != nil {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register validates reg and creates a student account for it.
func Register(ctx context.Context, db *sql.DB, reg model.Registration) (*model.User, error) {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.StudentID = strings.TrimSpace(reg.StudentID)
	reg.Major = strings.TrimSpace(reg.Major)
	reg.Level = strings.TrimSpace(reg.Level)
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	return CreateAccount(ctx, db, model.User{
		StudentID: reg.StudentID,
		Name:      reg.DisplayName(),
		Role:      model.RoleStudent,
		Major:     reg.Major,
		Level:     reg.Level,
	}, reg.Password)
}

// CreateAccount hashes password and stores u, provided neither its student
// ID nor its display name belongs to another active account.
func CreateAccount(ctx context.Context, db *sql.DB, u model.User, password string) (*model.User, error) {
	existing, err := store.GetUserByStudentID(ctx, db, u.StudentID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.DeletedAt == nil {
		return nil, ErrStudentIDTaken
	}
	named, err := store.GetActiveUserByName(ctx, db, u.Name)
	if err != nil {
		return nil, err
	}
	if named != nil {
		return nil, ErrNameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	return store.CreateUser(ctx, db, u)
}
