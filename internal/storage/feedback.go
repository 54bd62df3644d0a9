package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paisatrail/paisatrail/internal/model"
)

// GetFeedback retrieves the feedback entry for a normalized merchant key.
// A missing entry returns (nil, nil).
func (s *SQLiteStorage) GetFeedback(ctx context.Context, merchantKey string) (*model.FeedbackEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return nil, err
	}

	var entry model.FeedbackEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT merchant_key, category, correction_count, last_updated
		FROM feedback
		WHERE merchant_key = ?
	`, merchantKey).Scan(
		&entry.MerchantKey,
		&entry.Category,
		&entry.CorrectionCount,
		&entry.LastUpdated,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return &entry, nil
}

// SaveFeedback saves or updates a feedback entry.
func (s *SQLiteStorage) SaveFeedback(ctx context.Context, entry *model.FeedbackEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFeedback(entry); err != nil {
		return err
	}
	if entry.LastUpdated.IsZero() {
		entry.LastUpdated = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (merchant_key, category, correction_count, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(merchant_key) DO UPDATE SET
			category = excluded.category,
			correction_count = excluded.correction_count,
			last_updated = excluded.last_updated
	`, entry.MerchantKey, entry.Category, entry.CorrectionCount, entry.LastUpdated)

	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}

// GetAllFeedback retrieves every feedback entry.
func (s *SQLiteStorage) GetAllFeedback(ctx context.Context) ([]model.FeedbackEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_key, category, correction_count, last_updated
		FROM feedback
		ORDER BY merchant_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.FeedbackEntry
	for rows.Next() {
		var entry model.FeedbackEntry
		if err := rows.Scan(
			&entry.MerchantKey,
			&entry.Category,
			&entry.CorrectionCount,
			&entry.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return entries, nil
}
