package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wordbank/dictionary/internal/services"
	"github.com/wordbank/dictionary/internal/store"
	"github.com/wordbank/dictionary/types"
	"github.com/xuri/excelize/v2"
)

// Column headers understood in the first row of the sheet.
const (
	ColumnWord        = "word"
	ColumnEnglish     = "english"
	ColumnDescription = "description"
	ColumnLevel       = "level"
	ColumnCategory    = "category"
	ColumnImage       = "image"
)

var requiredColumns = []string{ColumnWord, ColumnEnglish, ColumnLevel, ColumnCategory}

// CategoryLookup finds existing categories by name.
type CategoryLookup interface {
	GetByName(ctx context.Context, name string) (types.Category, error)
}

// CategoryCreator creates a validated category.
type CategoryCreator interface {
	Create(ctx context.Context, actorID int, name string) (types.Category, error)
}

// WordCreator creates a validated word.
type WordCreator interface {
	Create(ctx context.Context, actorID int, in services.WordInput, upload *services.ImageUpload) (types.Word, error)
}

// Options control one import run.
type Options struct {
	Path     string
	Sheet    string // first sheet when empty
	AuthorID int
}

// Result summarises an import run. Rows that fail validation are reported, not fatal.
type Result struct {
	TotalProcessed    int
	Created           int
	CategoriesCreated int
	Skipped           int
	Errors            []string
}

// Importer loads words from a spreadsheet.
type Importer struct {
	lookup     CategoryLookup
	categories CategoryCreator
	words      WordCreator
}

func New(lookup CategoryLookup, categories CategoryCreator, words WordCreator) *Importer {
	return &Importer{lookup: lookup, categories: categories, words: words}
}

// ImportFile reads opts.Path and creates one word per data row.
func (im *Importer) ImportFile(ctx context.Context, opts Options) (*Result, error) {
	f, err := excelize.OpenFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return im.importRows(ctx, rows, opts.AuthorID)
}

func (im *Importer) importRows(ctx context.Context, rows [][]string, authorID int) (*Result, error) {
	if len(rows) == 0 {
		return nil, errors.New("sheet is empty")
	}

	columns, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	result := &Result{Errors: make([]string, 0)}
	categoryIDs := map[string]int{}

	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		result.TotalProcessed++

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		categoryID, created, err := im.category(ctx, authorID, cell(ColumnCategory), categoryIDs)
		if err != nil {
			if msg, ok := services.UserMessage(err); ok {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, msg))
				continue
			}
			return result, err
		}
		if created {
			result.CategoriesCreated++
		}

		_, err = im.words.Create(ctx, authorID, services.WordInput{
			Name:        cell(ColumnWord),
			English:     cell(ColumnEnglish),
			Description: cell(ColumnDescription),
			Image:       cell(ColumnImage),
			Level:       cell(ColumnLevel),
			CategoryID:  fmt.Sprint(categoryID),
		}, nil)
		if err != nil {
			if msg, ok := services.UserMessage(err); ok {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, msg))
				continue
			}
			return result, err
		}
		result.Created++
	}
	return result, nil
}

// category resolves a category name to its id, creating it on first use.
func (im *Importer) category(ctx context.Context, authorID int, name string, cache map[string]int) (int, bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := cache[key]; ok {
		return id, false, nil
	}

	existing, err := im.lookup.GetByName(ctx, key)
	if err == nil {
		cache[key] = existing.ID
		return existing.ID, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return 0, false, err
	}

	created, err := im.categories.Create(ctx, authorID, key)
	if err != nil {
		return 0, false, err
	}
	cache[key] = created.ID
	return created.ID, true, nil
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "word_name" {
			name = ColumnWord
		}
		if name != "" {
			columns[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
