package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wordbank/dictionary/internal/store"
	"github.com/wordbank/dictionary/types"
)

const msgCategoryInUse = "Category still has words. Delete or move them first"

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
	Get(ctx context.Context, id int) (types.Category, error)
	Create(ctx context.Context, name string) (types.Category, error)
	Delete(ctx context.Context, id int) error
	CountWords(ctx context.Context, id int) (int, error)
}

// CategoryService encapsulates category use-cases.
type CategoryService struct {
	repo   CategoryRepository
	events EventPublisher
}

func NewCategoryService(repo CategoryRepository, events EventPublisher) *CategoryService {
	if events == nil {
		events = NopPublisher{}
	}
	return &CategoryService{repo: repo, events: events}
}

func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int) (types.Category, error) {
	return s.repo.Get(ctx, id)
}

// Create normalises the name (trimmed, lowercase, at most 20 characters) and stores it.
func (s *CategoryService) Create(ctx context.Context, actorID int, name string) (types.Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return types.Category{}, invalid("Category name cannot be empty")
	}
	if len([]rune(name)) > types.CategoryNameMaxLength {
		return types.Category{}, invalid(fmt.Sprintf("Category name must be %d characters or fewer", types.CategoryNameMaxLength))
	}

	category, err := s.repo.Create(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.Category{}, &ValidationError{Message: "Category already exists", Err: err}
		}
		return types.Category{}, err
	}

	s.events.Publish(ctx, types.Event{
		Type:       types.EventCategoryCreated,
		EntityID:   category.ID,
		Name:       category.Name,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
	return category, nil
}

// Delete removes a category that has no words left.
// It reports false when the category was already gone.
func (s *CategoryService) Delete(ctx context.Context, actorID, id int) (bool, error) {
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	count, err := s.repo.CountWords(ctx, id)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, invalid(msgCategoryInUse)
	}

	// A word may be added between the count and the delete.
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return false, nil
		case errors.Is(err, store.ErrReferenced):
			return false, &ValidationError{Message: msgCategoryInUse, Err: err}
		}
		return false, err
	}

	s.events.Publish(ctx, types.Event{
		Type:       types.EventCategoryDeleted,
		EntityID:   category.ID,
		Name:       category.Name,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
	return true, nil
}
