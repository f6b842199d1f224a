package types

// Identity is the request-scoped view of the session.
// The zero value is a logged-out visitor.
type Identity struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	UserID    int    `json:"user_id"`
	Teacher   int    `json:"teacher"`
}

// IsAuthenticated reports whether the session carries an email.
func (i Identity) IsAuthenticated() bool {
	return i.Email != ""
}

// IsTeacher reports whether the visitor is logged in with the teacher flag.
func (i Identity) IsTeacher() bool {
	return i.IsAuthenticated() && i.Teacher == RoleTeacher
}
