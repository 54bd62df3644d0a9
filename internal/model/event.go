package model

import "time"

// IngestEvent is the wire record delivered to the backend. It is created
// once per successfully parsed notification and never mutated afterwards.
type IngestEvent struct {
	EventID                      string    `json:"event_id"`
	SourceApp                    SourceApp `json:"source_app"`
	ReceivedAt                   string    `json:"received_at"` // ISO-8601
	NotificationTitle            string    `json:"notification_title"`
	NotificationBody             string    `json:"notification_body"`
	RawPayloadHash               string    `json:"raw_payload_hash"`
	ParsedAmountPaise            int64     `json:"parsed_amount_paise"`
	ParsedDirection              Direction `json:"parsed_direction"`
	ParsedMerchantRaw            string    `json:"parsed_merchant_raw"`
	ParsedMerchantNormalized     string    `json:"parsed_merchant_normalized"`
	ParsedUPIRef                 string    `json:"parsed_upi_ref,omitempty"`
	ParserTemplate               string    `json:"parser_template"`
	ParseConfidence              float64   `json:"parse_confidence"`
	ReviewRequired               bool      `json:"review_required"`
	CategoryPrediction           Category  `json:"category_prediction"`
	CategoryPredictionConfidence float64   `json:"category_prediction_confidence"`

	// Fingerprint identifies the underlying transaction for dedupe. It is
	// not part of the wire payload.
	Fingerprint string `json:"-"`
}

// QueuedEvent wraps an IngestEvent while it awaits delivery. It is owned
// exclusively by the delivery queue and removed exactly once, on terminal
// success or terminal drop.
type QueuedEvent struct {
	EnqueuedAt    time.Time
	NextAttemptAt time.Time
	Event         IngestEvent
	AttemptCount  int
}
