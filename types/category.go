package types

// CategoryNameMaxLength is the longest category name accepted.
const CategoryNameMaxLength = 20

// Category groups words by topic.
type Category struct {
	// ID is the unique identifier of the category.
	ID int `json:"id" db:"category_id"`

	// Name is the unique, lowercase name of the category.
	Name string `json:"name" db:"category_name"`
}
