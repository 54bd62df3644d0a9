// Package category predicts a spend category for a parsed transaction,
// preferring the user's own past corrections over the keyword rule table.
package category

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/service"
)

// Suggestion confidences, in hundredths so arithmetic stays exact.
const (
	creditConfidence      = 98
	feedbackBase          = 84
	feedbackPerCorrection = 3
	feedbackCap           = 97
	ruleConfidence        = 93
	fallbackConfidence    = 60
)

// Suggester predicts categories from merchant text. The feedback map is the
// only persistent state: it is loaded from storage on construction and
// written through on every correction.
type Suggester struct {
	store    service.Storage
	feedback map[string]model.FeedbackEntry
	mu       sync.RWMutex
}

// NewSuggester creates a Suggester, reloading persisted feedback when a
// storage is provided. A nil storage keeps feedback in memory only.
func NewSuggester(ctx context.Context, store service.Storage) (*Suggester, error) {
	s := &Suggester{
		store:    store,
		feedback: make(map[string]model.FeedbackEntry),
	}
	if store != nil {
		entries, err := store.GetAllFeedback(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load feedback: %w", err)
		}
		for _, e := range entries {
			s.feedback[e.MerchantKey] = e
		}
	}
	return s, nil
}

// Suggest predicts a category for a transaction. Credits are always Income;
// debits consult feedback, then the keyword rules, then fall back to Others.
func (s *Suggester) Suggest(direction model.Direction, merchantRaw, merchantNormalized string) model.CategorySuggestion {
	if direction == model.DirectionCredit {
		return model.CategorySuggestion{
			Category:   model.CategoryIncome,
			Confidence: float64(creditConfidence) / 100,
			Source:     model.SourceCreditDefault,
		}
	}

	key := merchantKey(merchantRaw, merchantNormalized)

	s.mu.RLock()
	entry, ok := s.feedback[key]
	s.mu.RUnlock()
	if ok {
		confidence := feedbackBase + entry.CorrectionCount*feedbackPerCorrection
		if confidence > feedbackCap {
			confidence = feedbackCap
		}
		return model.CategorySuggestion{
			Category:   entry.Category,
			Confidence: float64(confidence) / 100,
			Source:     model.SourceFeedback,
		}
	}

	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(key, kw) {
				return model.CategorySuggestion{
					Category:   rule.Category,
					Confidence: float64(ruleConfidence) / 100,
					Source:     model.SourceRule,
				}
			}
		}
	}

	return model.CategorySuggestion{
		Category:   model.CategoryOthers,
		Confidence: float64(fallbackConfidence) / 100,
		Source:     model.SourceFallback,
	}
}

// RecordFeedback stores a user's category correction for a merchant. A
// repeat correction increments the correction count; a contradictory one
// also overwrites the stored category. Future suggestions for the merchant
// use the feedback entry until corrected again.
func (s *Suggester) RecordFeedback(ctx context.Context, merchant string, corrected model.Category) error {
	if !model.ValidCategory(corrected) {
		return fmt.Errorf("invalid category %q", corrected)
	}
	key := merchantKey(merchant, "")
	if key == "" {
		return fmt.Errorf("empty merchant")
	}

	s.mu.Lock()
	entry, ok := s.feedback[key]
	if ok {
		entry.CorrectionCount++
		entry.Category = corrected
	} else {
		entry = model.FeedbackEntry{
			MerchantKey:     key,
			Category:        corrected,
			CorrectionCount: 0,
		}
	}
	entry.LastUpdated = time.Now()
	s.feedback[key] = entry
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveFeedback(ctx, &entry); err != nil {
			return fmt.Errorf("failed to persist feedback: %w", err)
		}
	}
	return nil
}

// FeedbackCount reports how many merchants have feedback entries.
func (s *Suggester) FeedbackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feedback)
}

func merchantKey(raw, normalized string) string {
	if normalized != "" {
		return normalized
	}
	return model.NormalizeMerchant(raw)
}
