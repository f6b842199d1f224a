package types

import "strings"

// Role flags stored in the users.teacher column.
const (
	RoleStudent = 0
	RoleTeacher = 1
)

// User represents an account in the dictionary.
// Accounts are created at signup and never updated by the application.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"user_id"`

	// FirstName is the user's given name, shown in the navigation bar.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name" db:"last_name"`

	// Email is the user's login, unique and stored in lowercase.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed.
	PasswordHash string `json:"-" db:"password"`

	// Teacher is the role flag: RoleTeacher (1) or RoleStudent (0).
	Teacher int `json:"teacher" db:"teacher"`
}

// IsTeacher reports whether the account carries the teacher role flag.
func (u User) IsTeacher() bool {
	return u.Teacher == RoleTeacher
}

// DisplayName joins first and last name for author attribution.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
