// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/paisatrail/paisatrail/internal/model"
)

// NotificationSource exposes the OS-level notification observer. Only the
// single most recently captured notification is available; there is no
// stream or inbox.
type NotificationSource interface {
	// AccessEnabled reports whether notification access is granted.
	AccessEnabled() bool
	// LastCaptured returns the most recent captured notification, or nil.
	LastCaptured() (*model.RawNotification, error)
}

// DeviceContext supplies device identity and credentials provided by the
// surrounding application.
type DeviceContext interface {
	// DeviceID returns the stable device identifier, or "" if none is
	// available yet.
	DeviceID() string
	// AuthToken returns the backend auth token, or "" if unauthenticated.
	AuthToken() string
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Feedback operations
	GetFeedback(ctx context.Context, merchantKey string) (*model.FeedbackEntry, error)
	SaveFeedback(ctx context.Context, entry *model.FeedbackEntry) error
	GetAllFeedback(ctx context.Context) ([]model.FeedbackEntry, error)

	// Queued event operations
	SaveQueuedEvent(ctx context.Context, event *model.QueuedEvent) error
	UpdateQueuedEvent(ctx context.Context, eventID string, attemptCount int, nextAttemptAt time.Time) error
	DeleteQueuedEvent(ctx context.Context, eventID string) error
	ListQueuedEvents(ctx context.Context) ([]model.QueuedEvent, error)

	// Backend-side ingested events (used by the reference server)
	InsertIngestedEvent(ctx context.Context, deviceID string, event model.IngestEvent) (bool, error)
	CountIngestedEvents(ctx context.Context) (int, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// FlushResult summarizes one delivery queue flush.
type FlushResult struct {
	Sent           int
	RetryScheduled int
	Dropped        int
	Queued         int
}

// BatchResponse is the backend's answer to a batch delivery request.
type BatchResponse struct {
	Accepted            int `json:"accepted"`
	Deduped             int `json:"deduped"`
	Rejected            int `json:"rejected"`
	TransactionsCreated int `json:"transactions_created"`
	ReviewQueueAdded    int `json:"review_queue_added"`
}
