package mapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paisatrail/paisatrail/internal/category"
	"github.com/paisatrail/paisatrail/internal/model"
	"github.com/paisatrail/paisatrail/internal/parser"
)

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	suggester, err := category.NewSuggester(context.Background(), nil)
	require.NoError(t, err)
	return New(parser.New(), suggester)
}

func paymentNotification(body string) model.RawNotification {
	return model.RawNotification{
		PackageName: "com.google.android.apps.nbu.paisa.user",
		Title:       "Google Pay",
		Body:        body,
		PostedAt:    time.Date(2025, 6, 1, 10, 30, 12, 0, time.UTC).UnixMilli(),
	}
}

func TestMap_HighConfidenceDebit(t *testing.T) {
	m := newTestMapper(t)

	ev := m.Map(paymentNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012"))
	require.NotNil(t, ev)

	assert.Regexp(t, `^evt_[0-9a-f]{8}$`, ev.EventID)
	assert.Regexp(t, `^fnv1a:[0-9a-f]{8}$`, ev.RawPayloadHash)
	assert.Regexp(t, `^fp_[0-9a-f]{8}$`, ev.Fingerprint)
	assert.Equal(t, model.AppGPay, ev.SourceApp)
	assert.Equal(t, int64(25000), ev.ParsedAmountPaise)
	assert.Equal(t, model.DirectionDebit, ev.ParsedDirection)
	assert.Equal(t, "abc store", ev.ParsedMerchantNormalized)
	assert.Equal(t, "123456789012", ev.ParsedUPIRef)
	assert.False(t, ev.ReviewRequired)
	assert.Equal(t, model.CategoryShopping, ev.CategoryPrediction)
	assert.Equal(t, "2025-06-01T10:30:12Z", ev.ReceivedAt)
}

func TestMap_LowConfidenceRequiresReview(t *testing.T) {
	m := newTestMapper(t)

	ev := m.Map(paymentNotification("Paid Rs 85 to Local Tea Stall on UPI"))
	require.NotNil(t, ev)

	assert.True(t, ev.ReviewRequired)
	assert.Less(t, ev.ParseConfidence, ReviewThreshold)
}

func TestMap_ReviewThresholdBoundary(t *testing.T) {
	assert.False(t, 0.90 < ReviewThreshold)
	assert.True(t, 0.8999 < ReviewThreshold)
}

func TestMap_UnparseableReturnsNil(t *testing.T) {
	m := newTestMapper(t)

	ev := m.Map(model.RawNotification{
		PackageName: "com.example.chat",
		Title:       "New message",
		Body:        "hello",
		PostedAt:    time.Now().UnixMilli(),
	})
	assert.Nil(t, ev)
}

func TestMap_Deterministic(t *testing.T) {
	m := newTestMapper(t)
	n := paymentNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012")

	first := m.Map(n)
	second := m.Map(n)
	require.NotNil(t, first)
	require.NotNil(t, second)

	assert.Equal(t, first.EventID, second.EventID)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.RawPayloadHash, second.RawPayloadHash)
}

func TestMap_CreditPredictsIncome(t *testing.T) {
	m := newTestMapper(t)

	ev := m.Map(paymentNotification("Received ₹500 from Ramesh Kumar via UPI"))
	require.NotNil(t, ev)

	assert.Equal(t, model.DirectionCredit, ev.ParsedDirection)
	assert.Equal(t, model.CategoryIncome, ev.CategoryPrediction)
	assert.Equal(t, 0.98, ev.CategoryPredictionConfidence)
}

func TestMap_RawHashIndependentOfParseOutcome(t *testing.T) {
	m := newTestMapper(t)

	a := m.Map(paymentNotification("Paid ₹250 to ABC Store via UPI Ref 123456789012"))
	b := m.Map(paymentNotification("Paid ₹251 to ABC Store via UPI Ref 123456789012"))
	require.NotNil(t, a)
	require.NotNil(t, b)

	// Different bodies hash differently; different parse results fingerprint
	// differently.
	assert.NotEqual(t, a.RawPayloadHash, b.RawPayloadHash)
	assert.NotEqual(t, a.Fingerprint, b.Fingerprint)
}
