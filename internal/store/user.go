package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wordbank/dictionary/internal/db"
	"github.com/wordbank/dictionary/types"
)

const userColumns = `user_id, first_name, last_name, email, password, teacher`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *db.DB
}

func NewUserRepository(conn *db.DB) *UserRepository {
	return &UserRepository{db: conn}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := db.QueryOne[types.User](ctx, r.db, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	user, err := db.QueryOne[types.User](ctx, r.db, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts a user and returns it with its new id.
// A taken email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (first_name, last_name, email, password, teacher)
		VALUES (?, ?, ?, ?, ?)
		RETURNING user_id`
	id, err := db.QueryOne[int](ctx, r.db, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Teacher,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
		}
		return types.User{}, err
	}
	user.ID = id
	return user, nil
}
