package model

import "time"

// Category is a spend category assigned to a parsed transaction.
type Category string

// Valid categories.
const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryOthers        Category = "Others"
	CategoryIncome        Category = "Income"
)

// Categories lists every valid category, in display order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransport,
		CategoryShopping,
		CategoryBills,
		CategoryEntertainment,
		CategoryOthers,
		CategoryIncome,
	}
}

// ValidCategory reports whether name is one of the known categories.
func ValidCategory(name Category) bool {
	for _, c := range Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// SuggestionSource indicates how a category suggestion was produced.
type SuggestionSource string

// Suggestion sources, strongest first.
const (
	SourceCreditDefault SuggestionSource = "credit-default"
	SourceFeedback      SuggestionSource = "feedback"
	SourceRule          SuggestionSource = "rule"
	SourceFallback      SuggestionSource = "fallback"
)

// CategorySuggestion is a predicted category with its provenance.
type CategorySuggestion struct {
	Category   Category
	Confidence float64 // in [0, 1]
	Source     SuggestionSource
}

// FeedbackEntry records a user's category correction for a merchant.
// Entries persist across restarts and are mutated only by explicit
// human correction.
type FeedbackEntry struct {
	LastUpdated     time.Time
	MerchantKey     string // normalized merchant
	Category        Category
	CorrectionCount int
}
