package model

import (
	"fmt"
	"regexp"
	"time"
)

// User is a registered account. Listings and reports refer to users by name,
// not by ID, so renaming a user detaches them from their old listings.
type User struct {
	ID           int64      `json:"id"`
	StudentID    string     `json:"student_id"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Major        string     `json:"major,omitempty"`
	Level        string     `json:"level,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Identity returns the session identity for the user.
func (u *User) Identity() *Identity {
	return &Identity{Name: u.Name, Role: u.Role, StudentID: u.StudentID}
}

// Identity is the currently authenticated user as carried by a session.
type Identity struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	StudentID string `json:"student_id,omitempty"`
}

// IsAdmin reports whether the identity is present and has the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == RoleAdmin
}

// Roles.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:   2,
		RoleStudent: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var studentIDPattern = regexp.MustCompile(`^\d{11}$`)

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return Invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// ValidateStudentID checks that id is an 11-digit student card number.
func ValidateStudentID(id string) error {
	if !studentIDPattern.MatchString(id) {
		return Invalid("student_id", "must be 11 digits")
	}
	return nil
}

// Registration is the input of the sign-up form.
type Registration struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	StudentID       string `json:"student_id"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Major           string `json:"major"`
	Level           string `json:"level"`
}

// Validate checks required fields, the student ID format and the password.
func (r Registration) Validate() error {
	switch {
	case r.FirstName == "":
		return Invalid("first_name", "required")
	case r.LastName == "":
		return Invalid("last_name", "required")
	case r.StudentID == "":
		return Invalid("student_id", "required")
	case r.Password == "":
		return Invalid("password", "required")
	case r.Major == "":
		return Invalid("major", "required")
	case r.Level == "":
		return Invalid("level", "required")
	}
	if err := ValidateStudentID(r.StudentID); err != nil {
		return err
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return Invalid("confirm_password", "passwords do not match")
	}
	return nil
}

// DisplayName is the name shown on listings and used for ownership checks.
func (r Registration) DisplayName() string {
	return r.FirstName + " " + r.LastName
}
