package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wordbank/dictionary/internal/store"
	"github.com/wordbank/dictionary/types"
)

const (
	// UploadPrefix is the object key prefix of images uploaded through the app.
	UploadPrefix = "words/"

	MaxImageBytes = 5 << 20

	unknownAuthor   = "Unknown"
	unknownCategory = "Uncategorised"
)

var (
	allowedImageExt = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".webp": "image/webp",
	}
	unsafeFilename = regexp.MustCompile(`[^a-z0-9._-]+`)
)

// WordRepository defines persistence operations for words.
type WordRepository interface {
	List(ctx context.Context) ([]types.Word, error)
	ListByCategory(ctx context.Context, categoryID int) ([]types.Word, error)
	ListByLevel(ctx context.Context, level int) ([]types.Word, error)
	Search(ctx context.Context, term string) ([]types.Word, error)
	Get(ctx context.Context, id int) (types.Word, error)
	Create(ctx context.Context, word types.Word) (types.Word, error)
	Update(ctx context.Context, word types.Word) (types.Word, error)
	UpdateField(ctx context.Context, id int, column store.WordColumn, value any) error
	Delete(ctx context.Context, id int) error
	CountByImage(ctx context.Context, image string) (int, error)
}

// ImageStore keeps word pictures.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// ImageUpload is a picture submitted with a new word.
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// WordService encapsulates word use-cases.
type WordService struct {
	repo       WordRepository
	categories CategoryRepository
	users      UserRepository
	images     ImageStore
	events     EventPublisher
	log        zerolog.Logger
}

func NewWordService(
	repo WordRepository,
	categories CategoryRepository,
	users UserRepository,
	images ImageStore,
	events EventPublisher,
	log zerolog.Logger,
) *WordService {
	if events == nil {
		events = NopPublisher{}
	}
	return &WordService{
		repo:       repo,
		categories: categories,
		users:      users,
		images:     images,
		events:     events,
		log:        log,
	}
}

// Get returns a word with its author, category and alt text resolved.
func (s *WordService) Get(ctx context.Context, id int) (types.WordView, error) {
	word, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.WordView{}, err
	}
	views, err := s.views(ctx, []types.Word{word})
	if err != nil {
		return types.WordView{}, err
	}
	return views[0], nil
}

func (s *WordService) List(ctx context.Context) ([]types.WordView, error) {
	words, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, words)
}

// ListByCategory returns store.ErrNotFound when the category does not exist.
func (s *WordService) ListByCategory(ctx context.Context, categoryID int) ([]types.WordView, error) {
	if _, err := s.categories.Get(ctx, categoryID); err != nil {
		return nil, err
	}
	words, err := s.repo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, words)
}

func (s *WordService) ListByLevel(ctx context.Context, level int) ([]types.WordView, error) {
	if level < types.MinLevel || level > types.MaxLevel {
		return nil, invalid(fmt.Sprintf("Level must be between %d and %d", types.MinLevel, types.MaxLevel))
	}
	words, err := s.repo.ListByLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, words)
}

// Search returns no words for a blank term.
func (s *WordService) Search(ctx context.Context, term string) ([]types.WordView, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []types.WordView{}, nil
	}
	words, err := s.repo.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, words)
}

// Create validates the input, stores the optional upload and inserts the word.
func (s *WordService) Create(ctx context.Context, actorID int, in WordInput, upload *ImageUpload) (types.Word, error) {
	var key, contentType string
	if upload != nil {
		var err error
		key, contentType, err = imageKey(upload.Filename)
		if err != nil {
			return types.Word{}, err
		}
		if upload.Size > MaxImageBytes {
			return types.Word{}, invalid("Image must be 5MB or smaller")
		}
		in.Image = key
	}

	word, err := in.Parse()
	if err != nil {
		return types.Word{}, err
	}
	if err := s.requireCategory(ctx, word.CategoryID); err != nil {
		return types.Word{}, err
	}

	if upload != nil {
		if s.images == nil {
			return types.Word{}, invalid("Image uploads are not available")
		}
		if err := s.images.Put(ctx, key, upload.Body, upload.Size, contentType); err != nil {
			return types.Word{}, fmt.Errorf("store image: %w", err)
		}
	}

	if actorID <= 0 {
		actorID = types.UnknownAuthorID
	}
	word.UserID = actorID

	created, err := s.repo.Create(ctx, word)
	if err != nil {
		if upload != nil {
			s.removeImage(ctx, key)
		}
		return types.Word{}, err
	}

	s.events.Publish(ctx, types.Event{
		Type:       types.EventWordCreated,
		EntityID:   created.ID,
		Name:       created.Name,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
	return created, nil
}

// Update replaces every editable field of an existing word.
func (s *WordService) Update(ctx context.Context, actorID, id int, in WordInput) (types.Word, error) {
	word, err := in.Parse()
	if err != nil {
		return types.Word{}, err
	}
	if err := s.requireCategory(ctx, word.CategoryID); err != nil {
		return types.Word{}, err
	}

	previous, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Word{}, err
	}

	word.ID = id
	updated, err := s.repo.Update(ctx, word)
	if err != nil {
		return types.Word{}, err
	}
	if previous.Image != updated.Image {
		s.releaseImage(ctx, previous.Image)
	}

	s.events.Publish(ctx, types.Event{
		Type:       types.EventWordUpdated,
		EntityID:   updated.ID,
		Name:       updated.Name,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
	return updated, nil
}

// UpdateField edits one field from the EditableFields enumeration.
func (s *WordService) UpdateField(ctx context.Context, actorID, id int, field, raw string) error {
	rule, err := LookupField(field)
	if err != nil {
		return err
	}
	value, err := rule.Normalize(raw)
	if err != nil {
		return err
	}
	if rule.Column == store.ColumnCategoryID {
		if err := s.requireCategory(ctx, value.(int)); err != nil {
			return err
		}
	}

	var previous types.Word
	if rule.Column == store.ColumnImage {
		if previous, err = s.repo.Get(ctx, id); err != nil {
			return err
		}
	}

	if err := s.repo.UpdateField(ctx, id, rule.Column, value); err != nil {
		return err
	}
	if rule.Column == store.ColumnImage && previous.Image != value.(string) {
		s.releaseImage(ctx, previous.Image)
	}

	s.events.Publish(ctx, types.Event{
		Type:       types.EventWordUpdated,
		EntityID:   id,
		Field:      rule.Name,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// Delete removes a word, and its uploaded image once no other word uses it.
// It reports false when the word was already gone.
func (s *WordService) Delete(ctx context.Context, actorID, id int) (bool, error) {
	word, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	s.releaseImage(ctx, word.Image)

	s.events.Publish(ctx, types.Event{
		Type:       types.EventWordDeleted,
		EntityID:   word.ID,
		Name:       word.Name,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	})
	return true, nil
}

func (s *WordService) requireCategory(ctx context.Context, id int) error {
	if _, err := s.categories.Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid("Category not found")
		}
		return err
	}
	return nil
}

// releaseImage deletes an uploaded image that no word references any more.
// Keys outside UploadPrefix are external links and are never touched.
func (s *WordService) releaseImage(ctx context.Context, key string) {
	if !strings.HasPrefix(key, UploadPrefix) {
		return
	}
	count, err := s.repo.CountByImage(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to count image references")
		return
	}
	if count == 0 {
		s.removeImage(ctx, key)
	}
}

func (s *WordService) removeImage(ctx context.Context, key string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to delete word image")
	}
}

// views resolves author and category names for display.
// Lookups are memoised for the duration of one call.
func (s *WordService) views(ctx context.Context, words []types.Word) ([]types.WordView, error) {
	authors := map[int]string{}
	categories := map[int]string{}
	views := make([]types.WordView, 0, len(words))

	for _, word := range words {
		author, ok := authors[word.UserID]
		if !ok {
			author = unknownAuthor
			user, err := s.users.GetByID(ctx, word.UserID)
			switch {
			case err == nil:
				author = user.DisplayName()
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
			authors[word.UserID] = author
		}

		categoryName, ok := categories[word.CategoryID]
		if !ok {
			categoryName = unknownCategory
			category, err := s.categories.Get(ctx, word.CategoryID)
			switch {
			case err == nil:
				categoryName = category.Name
			case !errors.Is(err, store.ErrNotFound):
				return nil, err
			}
			categories[word.CategoryID] = categoryName
		}

		views = append(views, types.WordView{
			Word:         word,
			Author:       author,
			CategoryName: categoryName,
			AltText:      types.AltText(word.Image),
		})
	}
	return views, nil
}

// imageKey validates an upload's file name and returns its object key and content type.
func imageKey(filename string) (string, string, error) {
	base := strings.ToLower(path.Base(strings.ReplaceAll(filename, `\`, "/")))
	ext := path.Ext(base)
	contentType, ok := allowedImageExt[ext]
	if !ok {
		return "", "", invalid("Image must be a png, jpg, gif or webp file")
	}

	stem := strings.Trim(unsafeFilename.ReplaceAllString(strings.TrimSuffix(base, ext), "-"), "-.")
	if stem == "" {
		stem = "image"
	}
	if max := types.ImageMaxLength - len(UploadPrefix) - 37 - len(ext); len(stem) > max {
		stem = stem[:max]
	}
	return UploadPrefix + uuid.NewString() + "/" + stem + ext, contentType, nil
}
