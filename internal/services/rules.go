package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wordbank/dictionary/internal/store"
	"github.com/wordbank/dictionary/types"
)

// PasswordMinLength is the shortest password accepted at signup.
const PasswordMinLength = 8

// NameMaxLength bounds first and last names.
const NameMaxLength = 50

var validate = validator.New()

type fieldKind int

const (
	kindText fieldKind = iota
	kindInt
)

// FieldRule describes how one editable word field is validated and stored.
type FieldRule struct {
	Name      string
	Column    store.WordColumn
	Kind      fieldKind
	Tag       string
	Lowercase bool
	MaxLength int
	Min, Max  int
}

// EditableFields is the closed set of word fields a teacher may edit one at a time.
var EditableFields = map[string]FieldRule{
	"word_name": {
		Name: "word_name", Column: store.ColumnWordName, Kind: kindText,
		Tag: fmt.Sprintf("required,max=%d", types.WordNameMaxLength), Lowercase: true,
		MaxLength: types.WordNameMaxLength,
	},
	"english": {
		Name: "english", Column: store.ColumnEnglish, Kind: kindText,
		Tag:       fmt.Sprintf("required,max=%d", types.EnglishMaxLength),
		MaxLength: types.EnglishMaxLength,
	},
	"description": {
		Name: "description", Column: store.ColumnDescription, Kind: kindText,
		Tag:       fmt.Sprintf("max=%d", types.DescriptionMaxLength),
		MaxLength: types.DescriptionMaxLength,
	},
	"image": {
		Name: "image", Column: store.ColumnImage, Kind: kindText,
		Tag:       fmt.Sprintf("max=%d", types.ImageMaxLength),
		MaxLength: types.ImageMaxLength,
	},
	"level": {
		Name: "level", Column: store.ColumnLevel, Kind: kindInt,
		Tag: fmt.Sprintf("min=%d,max=%d", types.MinLevel, types.MaxLevel),
		Min: types.MinLevel, Max: types.MaxLevel,
	},
	"category_id": {
		Name: "category_id", Column: store.ColumnCategoryID, Kind: kindInt,
		Tag: "min=1", Min: 1,
	},
}

// Normalize trims raw, applies the rule and returns the value to store.
// Text fields come back as string, numeric fields as int.
func (f FieldRule) Normalize(raw string) (any, error) {
	value := strings.TrimSpace(raw)

	if f.Kind == kindInt {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, invalid(f.rangeMessage())
		}
		if err := validate.Var(n, f.Tag); err != nil {
			return nil, invalid(f.rangeMessage())
		}
		return n, nil
	}

	if f.Lowercase {
		value = strings.ToLower(value)
	}
	if f.Name == "description" && value == "" {
		value = types.DefaultDescription
	}
	if err := validate.Var(value, f.Tag); err != nil {
		return nil, invalid(f.textMessage(err))
	}
	return value, nil
}

func (f FieldRule) textMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
		return fmt.Sprintf("%s cannot be empty", f.Name)
	}
	return fmt.Sprintf("%s must be %d characters or fewer", f.Name, f.MaxLength)
}

func (f FieldRule) rangeMessage() string {
	if f.Max > 0 {
		return fmt.Sprintf("%s must be a number between %d and %d", f.Name, f.Min, f.Max)
	}
	return fmt.Sprintf("%s must be a valid id", f.Name)
}

// LookupField returns the rule for an editable field name.
func LookupField(name string) (FieldRule, error) {
	rule, ok := EditableFields[strings.TrimSpace(name)]
	if !ok {
		return FieldRule{}, invalid(fmt.Sprintf("%s is not an editable field", name))
	}
	return rule, nil
}

// WordInput is a word form as submitted, before validation.
type WordInput struct {
	Name        string
	English     string
	Description string
	Image       string
	Level       string
	CategoryID  string
}

// Parse validates every field and builds the word to store.
func (in WordInput) Parse() (types.Word, error) {
	var word types.Word
	fields := []struct {
		name string
		raw  string
		set  func(any)
	}{
		{"word_name", in.Name, func(v any) { word.Name = v.(string) }},
		{"english", in.English, func(v any) { word.English = v.(string) }},
		{"description", in.Description, func(v any) { word.Description = v.(string) }},
		{"image", in.Image, func(v any) { word.Image = v.(string) }},
		{"level", in.Level, func(v any) { word.Level = v.(int) }},
		{"category_id", in.CategoryID, func(v any) { word.CategoryID = v.(int) }},
	}

	for _, field := range fields {
		value, err := EditableFields[field.name].Normalize(field.raw)
		if err != nil {
			return types.Word{}, err
		}
		field.set(value)
	}
	return word, nil
}

// ClassifyRole decides the role flag for a new account.
// An email containing the student marker is always a student; otherwise the checkbox decides.
func ClassifyRole(email, marker string, teacherChecked bool) int {
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker != "" && strings.Contains(strings.ToLower(email), marker) {
		return types.RoleStudent
	}
	if teacherChecked {
		return types.RoleTeacher
	}
	return types.RoleStudent
}
