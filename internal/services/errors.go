package services

import "errors"

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("email invalid or password incorrect")

// ValidationError carries a message that is safe to show to the user.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// UserMessage extracts the user-facing message from a validation error.
func UserMessage(err error) (string, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message, true
	}
	return "", false
}
