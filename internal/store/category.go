package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wordbank/dictionary/internal/db"
	"github.com/wordbank/dictionary/types"
)

// CategoryRepository handles persistence for categories.
type CategoryRepository struct {
	db *db.DB
}

func NewCategoryRepository(conn *db.DB) *CategoryRepository {
	return &CategoryRepository{db: conn}
}

func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	return db.QueryMany[types.Category](ctx, r.db,
		`SELECT category_id, category_name FROM categories ORDER BY category_name`)
}

func (r *CategoryRepository) Get(ctx context.Context, id int) (types.Category, error) {
	category, err := db.QueryOne[types.Category](ctx, r.db,
		`SELECT category_id, category_name FROM categories WHERE category_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (types.Category, error) {
	category, err := db.QueryOne[types.Category](ctx, r.db,
		`SELECT category_id, category_name FROM categories WHERE category_name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Category{}, ErrNotFound
		}
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, name string) (types.Category, error) {
	id, err := db.QueryOne[int](ctx, r.db,
		`INSERT INTO categories (category_name) VALUES (?) RETURNING category_id`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Category{}, fmt.Errorf("category %s: %w", name, ErrDuplicate)
		}
		return types.Category{}, err
	}
	return types.Category{ID: id, Name: name}, nil
}

// Delete removes a category. A category that is already gone yields ErrNotFound
// and one that words still reference yields ErrReferenced.
func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.Execute(ctx, `DELETE FROM categories WHERE category_id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("category %d: %w", id, ErrReferenced)
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountWords returns how many words reference the category.
func (r *CategoryRepository) CountWords(ctx context.Context, id int) (int, error) {
	return db.QueryOne[int](ctx, r.db, `SELECT COUNT(1) FROM words WHERE category_id = ?`, id)
}
