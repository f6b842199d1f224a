package types

import (
	"path"
	"strings"
	"time"
)

// Field limits and defaults for words.
const (
	WordNameMaxLength    = 85
	EnglishMaxLength     = 85
	DescriptionMaxLength = 300
	ImageMaxLength       = 256

	DefaultDescription = "Pending"
	NoImageAltText     = "No image displayed"

	MinLevel = 1
	MaxLevel = 10

	// UnknownAuthorID is stored when a word has no author.
	UnknownAuthorID = 0
)

// Word is a vocabulary entry as stored in the words table.
type Word struct {
	// ID is the unique identifier of the word.
	ID int `json:"id" db:"word_id"`

	// Name is the vocabulary word itself, stored in lowercase.
	Name string `json:"word_name" db:"word_name"`

	// English is the English translation.
	English string `json:"english" db:"english"`

	// Description explains usage; "Pending" until a teacher fills it in.
	Description string `json:"description" db:"description"`

	// Image is the object key of the word's picture, empty when there is none.
	Image string `json:"image" db:"image"`

	// Level is the difficulty tier, MinLevel through MaxLevel.
	Level int `json:"level" db:"level"`

	// CategoryID references the category the word belongs to.
	CategoryID int `json:"category_id" db:"category_id"`

	// UserID references the teacher who created the word.
	UserID int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp at which the word was added.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// WordView is a word with its foreign keys resolved for display.
type WordView struct {
	Word

	// Author is the display name of the word's creator.
	Author string `json:"author"`

	// CategoryName is the display name of the word's category.
	CategoryName string `json:"category_name"`

	// AltText is the accessibility caption derived from Image.
	AltText string `json:"alt_text"`
}

// AltText derives the caption for a word picture from its file name.
// List and detail views must both go through this function.
func AltText(image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return NoImageAltText
	}
	base := path.Base(image)
	return "A picture of " + strings.TrimSuffix(base, path.Ext(base))
}
