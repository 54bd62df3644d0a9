package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/paisatrail/paisatrail/internal/model"
)

// SaveQueuedEvent persists an event awaiting delivery. The event payload is
// stored as JSON; scheduling metadata lives in dedicated columns so flush
// ordering can be restored without decoding payloads.
func (s *SQLiteStorage) SaveQueuedEvent(ctx context.Context, event *model.QueuedEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if err := validateIngestEvent(&event.Event); err != nil {
		return err
	}

	payload, err := json.Marshal(event.Event)
	if err != nil {
		return fmt.Errorf("failed to encode queued event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO queued_events (event_id, payload, enqueued_at, next_attempt_at, attempt_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			payload = excluded.payload,
			next_attempt_at = excluded.next_attempt_at,
			attempt_count = excluded.attempt_count
	`, event.Event.EventID, string(payload), event.EnqueuedAt, event.NextAttemptAt, event.AttemptCount)

	if err != nil {
		return fmt.Errorf("failed to save queued event: %w", err)
	}
	return nil
}

// UpdateQueuedEvent records a rescheduled delivery attempt.
func (s *SQLiteStorage) UpdateQueuedEvent(ctx context.Context, eventID string, attemptCount int, nextAttemptAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(eventID, "eventID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE queued_events
		SET attempt_count = ?, next_attempt_at = ?
		WHERE event_id = ?
	`, attemptCount, nextAttemptAt, eventID)

	if err != nil {
		return fmt.Errorf("failed to update queued event: %w", err)
	}
	return nil
}

// DeleteQueuedEvent removes an event after its terminal outcome.
func (s *SQLiteStorage) DeleteQueuedEvent(ctx context.Context, eventID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(eventID, "eventID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM queued_events WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete queued event: %w", err)
	}
	return nil
}

// ListQueuedEvents returns all pending events in enqueue order.
func (s *SQLiteStorage) ListQueuedEvents(ctx context.Context) ([]model.QueuedEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload, enqueued_at, next_attempt_at, attempt_count
		FROM queued_events
		ORDER BY enqueued_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query queued events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.QueuedEvent
	for rows.Next() {
		var payload string
		var qe model.QueuedEvent
		if err := rows.Scan(&payload, &qe.EnqueuedAt, &qe.NextAttemptAt, &qe.AttemptCount); err != nil {
			return nil, fmt.Errorf("failed to scan queued event: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &qe.Event); err != nil {
			return nil, fmt.Errorf("failed to decode queued event: %w", err)
		}
		events = append(events, qe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queued events: %w", err)
	}
	return events, nil
}
