package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/wordbank/dictionary/internal/db"
	"github.com/wordbank/dictionary/types"
)

// WordColumn is a column of the words table that may be edited on its own.
type WordColumn string

const (
	ColumnWordName    WordColumn = "word_name"
	ColumnEnglish     WordColumn = "english"
	ColumnDescription WordColumn = "description"
	ColumnImage       WordColumn = "image"
	ColumnLevel       WordColumn = "level"
	ColumnCategoryID  WordColumn = "category_id"
)

var editableColumns = map[WordColumn]struct{}{
	ColumnWordName:    {},
	ColumnEnglish:     {},
	ColumnDescription: {},
	ColumnImage:       {},
	ColumnLevel:       {},
	ColumnCategoryID:  {},
}

var wordColumns = []string{
	"word_id", "word_name", "english", "description", "image",
	"level", "category_id", "user_id", "created_at",
}

// WordRepository handles persistence for words.
type WordRepository struct {
	db *db.DB
}

func NewWordRepository(conn *db.DB) *WordRepository {
	return &WordRepository{db: conn}
}

func (r *WordRepository) selectWords() sq.SelectBuilder {
	return r.db.Builder().Select(wordColumns...).From("words")
}

func (r *WordRepository) list(ctx context.Context, stmt sq.SelectBuilder) ([]types.Word, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}
	return db.QueryMany[types.Word](ctx, r.db, query, args...)
}

func (r *WordRepository) List(ctx context.Context) ([]types.Word, error) {
	return r.list(ctx, r.selectWords().OrderBy("word_name"))
}

func (r *WordRepository) ListByCategory(ctx context.Context, categoryID int) ([]types.Word, error) {
	return r.list(ctx, r.selectWords().Where(sq.Eq{"category_id": categoryID}).OrderBy("word_name"))
}

func (r *WordRepository) ListByLevel(ctx context.Context, level int) ([]types.Word, error) {
	return r.list(ctx, r.selectWords().Where(sq.Eq{"level": level}).OrderBy("word_name"))
}

// Search matches term against the word and its English translation, case-insensitively.
func (r *WordRepository) Search(ctx context.Context, term string) ([]types.Word, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	stmt := r.selectWords().
		Where(sq.Or{
			sq.Expr(`LOWER(word_name) LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`LOWER(english) LIKE ? ESCAPE '\'`, pattern),
		}).
		OrderBy("word_name")
	return r.list(ctx, stmt)
}

func (r *WordRepository) Get(ctx context.Context, id int) (types.Word, error) {
	query, args, err := r.selectWords().Where(sq.Eq{"word_id": id}).ToSql()
	if err != nil {
		return types.Word{}, err
	}
	word, err := db.QueryOne[types.Word](ctx, r.db, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Word{}, ErrNotFound
		}
		return types.Word{}, err
	}
	return word, nil
}

func (r *WordRepository) Create(ctx context.Context, word types.Word) (types.Word, error) {
	if word.CreatedAt.IsZero() {
		word.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO words (word_name, english, description, image, level, category_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING word_id`
	id, err := db.QueryOne[int](ctx, r.db, query,
		word.Name,
		word.English,
		word.Description,
		word.Image,
		word.Level,
		word.CategoryID,
		word.UserID,
		word.CreatedAt,
	)
	if err != nil {
		return types.Word{}, err
	}
	word.ID = id
	return word, nil
}

// Update overwrites every editable column. Concurrent updates are last-write-wins.
func (r *WordRepository) Update(ctx context.Context, word types.Word) (types.Word, error) {
	const query = `
		UPDATE words
		SET word_name = ?,
			english = ?,
			description = ?,
			image = ?,
			level = ?,
			category_id = ?
		WHERE word_id = ?`
	result, err := r.db.Execute(ctx, query,
		word.Name,
		word.English,
		word.Description,
		word.Image,
		word.Level,
		word.CategoryID,
		word.ID,
	)
	if err != nil {
		return types.Word{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Word{}, err
	}
	if affected == 0 {
		return types.Word{}, ErrNotFound
	}
	return r.Get(ctx, word.ID)
}

// UpdateField sets a single editable column.
func (r *WordRepository) UpdateField(ctx context.Context, id int, column WordColumn, value any) error {
	if _, ok := editableColumns[column]; !ok {
		return fmt.Errorf("column %q is not editable", column)
	}

	stmt := r.db.Builder().
		Update("words").
		Set(string(column), value).
		Where(sq.Eq{"word_id": id})
	result, err := r.db.ExecuteBuilder(ctx, stmt)
	if err != nil {
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

func (r *WordRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.Execute(ctx, `DELETE FROM words WHERE word_id = ?`, id)
	if err != nil {
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

// CountByImage returns how many words point at the image key.
func (r *WordRepository) CountByImage(ctx context.Context, image string) (int, error) {
	return db.QueryOne[int](ctx, r.db, `SELECT COUNT(1) FROM words WHERE image = ?`, image)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
