package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paisatrail/paisatrail/internal/model"
)

// InsertIngestedEvent records an event received by the reference backend.
// It returns false when the event id was already present, which is how the
// backend dedupes redelivered batches.
func (s *SQLiteStorage) InsertIngestedEvent(ctx context.Context, deviceID string, event model.IngestEvent) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(deviceID, "deviceID"); err != nil {
		return false, err
	}
	if err := validateIngestEvent(&event); err != nil {
		return false, err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return false, fmt.Errorf("failed to encode event: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO ingested_events (event_id, device_id, source_app, received_at, review_required, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`, event.EventID, deviceID, event.SourceApp, event.ReceivedAt, event.ReviewRequired, string(payload))

	if err != nil {
		return false, fmt.Errorf("failed to insert event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

// CountIngestedEvents reports how many events the backend has stored.
func (s *SQLiteStorage) CountIngestedEvents(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingested_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
