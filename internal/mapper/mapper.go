// Package mapper composes the parser, fingerprint builder, and category
// suggester into ingest-ready event records.
package mapper

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/paisatrail/paisatrail/internal/category"
	"github.com/paisatrail/paisatrail/internal/fingerprint"
	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/parser"
)

// ReviewThreshold is the parse confidence below which an event is flagged
// for manual review.
const ReviewThreshold = 0.90

// Mapper turns raw notifications into IngestEvents.
type Mapper struct {
	parser    *parser.Parser
	suggester *category.Suggester
}

// New creates a Mapper from its two collaborators.
func New(p *parser.Parser, s *category.Suggester) *Mapper {
	return &Mapper{parser: p, suggester: s}
}

// Map parses a captured notification into an IngestEvent. It returns nil
// when the text is not a parseable payment notification; nothing is queued
// for unparseable input.
func (m *Mapper) Map(n model.RawNotification) *model.IngestEvent {
	rawText := strings.TrimSpace(strings.TrimSpace(n.Title) + " " + strings.TrimSpace(n.Body))

	parsed := m.parser.Parse(rawText, n.PackageName)
	if parsed == nil {
		return nil
	}

	var postedAt time.Time
	if n.PostedAt > 0 {
		postedAt = time.UnixMilli(n.PostedAt).UTC()
	}

	fp := fingerprint.Build(
		parsed.SourceApp,
		parsed.AmountPaise,
		parsed.Direction,
		parsed.MerchantNormalized,
		parsed.UPIRef,
		postedAt,
	)

	receivedAt := postedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	suggestion := m.suggester.Suggest(parsed.Direction, parsed.MerchantRaw, parsed.MerchantNormalized)

	return &model.IngestEvent{
		EventID:                      "evt_" + hash32(fp, fmt.Sprintf("%d", n.PostedAt), n.PackageName),
		SourceApp:                    parsed.SourceApp,
		ReceivedAt:                   receivedAt.Format(time.RFC3339),
		NotificationTitle:            n.Title,
		NotificationBody:             n.Body,
		RawPayloadHash:               "fnv1a:" + hash32(n.PackageName, fmt.Sprintf("%d", n.PostedAt), n.Title, n.Body),
		ParsedAmountPaise:            parsed.AmountPaise,
		ParsedDirection:              parsed.Direction,
		ParsedMerchantRaw:            parsed.MerchantRaw,
		ParsedMerchantNormalized:     parsed.MerchantNormalized,
		ParsedUPIRef:                 parsed.UPIRef,
		ParserTemplate:               parsed.TemplateID,
		ParseConfidence:              parsed.Confidence,
		ReviewRequired:               parsed.Confidence < ReviewThreshold,
		CategoryPrediction:           suggestion.Category,
		CategoryPredictionConfidence: suggestion.Confidence,
		Fingerprint:                  fp,
	}
}

// hash32 renders the 32-bit FNV-1a digest of pipe-joined parts as 8 hex
// digits.
func hash32(parts ...string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%08x", h.Sum32())
}
