/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wordbank/dictionary/internal/db"
	"github.com/wordbank/dictionary/internal/importer"
	"github.com/wordbank/dictionary/internal/logger"
	"github.com/wordbank/dictionary/internal/mq"
	"github.com/wordbank/dictionary/internal/services"
	"github.com/wordbank/dictionary/internal/store"
)

var (
	importAuthor int
	importSheet  string
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Bulk import words from a spreadsheet",
	Long: `Bulk import words from a spreadsheet. The first row names the columns:
word, english, description, level, category, image. Missing categories are created.

	dictionary import words.xlsx --author 1
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := conn.EnsureSchema(ctx); err != nil {
			return err
		}

		var events services.EventPublisher = services.NopPublisher{}
		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker != nil {
			defer broker.Close()
			events = mq.NewEventPublisher(broker, cfg.MQ.Channel, logger.Logger())
		}

		userRepo := store.NewUserRepository(conn)
		categoryRepo := store.NewCategoryRepository(conn)
		wordRepo := store.NewWordRepository(conn)

		if importAuthor > 0 {
			if _, err := userRepo.GetByID(ctx, importAuthor); err != nil {
				return fmt.Errorf("author %d: %w", importAuthor, err)
			}
		}

		im := importer.New(
			categoryRepo,
			services.NewCategoryService(categoryRepo, events),
			services.NewWordService(wordRepo, categoryRepo, userRepo, nil, events, logger.Logger()),
		)
		result, err := im.ImportFile(ctx, importer.Options{Path: args[0], Sheet: importSheet, AuthorID: importAuthor})
		if err != nil {
			return err
		}

		for _, rowErr := range result.Errors {
			logger.Warn().Msg(rowErr)
		}
		logger.Info().
			Int("processed", result.TotalProcessed).
			Int("created", result.Created).
			Int("categories_created", result.CategoriesCreated).
			Int("skipped", result.Skipped).
			Msg("import finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().IntVar(&importAuthor, "author", 0, "user id recorded as the author of imported words")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet to read (defaults to the first sheet)")
}
