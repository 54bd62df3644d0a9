package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paisatrail/paisatrail/internal/category"
	"github.com/paisatrail/paisatrail/internal/model"
)

func feedbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feedback <merchant> <category>",
		Short: "Record a category correction for a merchant",
		Long: `Record that transactions from a merchant belong to a category. Future
suggestions for that merchant use the correction instead of the keyword
rules. Valid categories: ` + strings.Join(categoryNames(), ", ") + `.`,
		Args: cobra.ExactArgs(2),
		RunE: runFeedback,
	}
}

func runFeedback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	merchant, cat := args[0], model.Category(args[1])

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	suggester, err := category.NewSuggester(ctx, store)
	if err != nil {
		return err
	}
	if err := suggester.RecordFeedback(ctx, merchant, cat); err != nil {
		return err
	}

	slog.Info("✅ Feedback recorded",
		"merchant", model.NormalizeMerchant(merchant),
		"category", cat)
	return nil
}

func categoryNames() []string {
	cats := model.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}
