package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/wordbank/dictionary/internal/store"
	"github.com/wordbank/dictionary/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// SignupRequest is the signup form after extraction.
type SignupRequest struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	TeacherChecked  bool
}

// UserService encapsulates signup and login.
type UserService struct {
	repo          UserRepository
	studentMarker string
	hashCost      int
}

func NewUserService(repo UserRepository, studentMarker string) *UserService {
	return &UserService{
		repo:          repo,
		studentMarker: studentMarker,
		hashCost:      bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost, e.g. bcrypt.MinCost in tests.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Signup validates the request and creates the account.
// Every rejection is a *ValidationError; nothing is written unless all checks pass.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (types.User, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	confirm := strings.TrimSpace(req.ConfirmPassword)

	if password != confirm {
		return types.User{}, invalid("Passwords do not match")
	}
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return types.User{}, invalid("Password must be at least 8 characters")
	}
	if firstName == "" || lastName == "" {
		return types.User{}, invalid("Please enter your first and last name")
	}
	if utf8.RuneCountInString(firstName) > NameMaxLength || utf8.RuneCountInString(lastName) > NameMaxLength {
		return types.User{}, invalid("Names must be 50 characters or fewer")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return types.User{}, invalid("Please enter a valid email address")
		}
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.repo.Create(ctx, types.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hashed),
		Teacher:      ClassifyRole(email, s.studentMarker, req.TeacherChecked),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, &ValidationError{Message: "Email is already used", Err: err}
		}
		return types.User{}, err
	}
	return user, nil
}

// Login verifies credentials and returns the matching account.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return types.User{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}
