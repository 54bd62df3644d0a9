package fingerprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/paisatrail/paisatrail/internal/model"
)

func TestBuild_StableAcrossFormattingVariance(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 30, 5, 0, time.UTC)

	reference := Build(model.AppGPay, 25000, model.DirectionDebit, "ABC Store", "Ab12-3456", base)

	variants := []struct {
		name     string
		merchant string
		ref      string
		at       time.Time
	}{
		{"merchant casing", "abc STORE", "Ab12-3456", base},
		{"merchant punctuation", "ABC   Store!!", "Ab12-3456", base},
		{"reference dashes removed", "ABC Store", "AB123456", base},
		{"reference lowercased", "ABC Store", "ab12-3456", base},
		{"seconds drift within minute", "ABC Store", "Ab12-3456", base.Add(40 * time.Second)},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got := Build(model.AppGPay, 25000, model.DirectionDebit, v.merchant, v.ref, v.at)
			assert.Equal(t, reference, got)
		})
	}
}

func TestBuild_ChangesWithAmountAndDirection(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	fp := Build(model.AppGPay, 25000, model.DirectionDebit, "ABC Store", "123456789012", at)

	assert.NotEqual(t, fp, Build(model.AppGPay, 25001, model.DirectionDebit, "ABC Store", "123456789012", at))
	assert.NotEqual(t, fp, Build(model.AppGPay, 25000, model.DirectionCredit, "ABC Store", "123456789012", at))
	assert.NotEqual(t, fp, Build(model.AppPhonePe, 25000, model.DirectionDebit, "ABC Store", "123456789012", at))
	assert.NotEqual(t, fp, Build(model.AppGPay, 25000, model.DirectionDebit, "ABC Store", "123456789012", at.Add(time.Minute)))
}

func TestBuild_Sentinels(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	withRef := Build(model.AppPaytm, 100, model.DirectionDebit, "Tea Stall", "ABC123", at)
	noRef := Build(model.AppPaytm, 100, model.DirectionDebit, "Tea Stall", "", at)
	assert.NotEqual(t, withRef, noRef)

	// Missing reference and missing timestamp are distinct, stable sentinels.
	noTime := Build(model.AppPaytm, 100, model.DirectionDebit, "Tea Stall", "", time.Time{})
	assert.NotEqual(t, noRef, noTime)
	assert.Equal(t, noTime, Build(model.AppPaytm, 100, model.DirectionDebit, "Tea Stall", "", time.Time{}))
}

func TestBuild_Format(t *testing.T) {
	fp := Build(model.AppGPay, 25000, model.DirectionDebit, "ABC Store", "", time.Now())
	assert.Regexp(t, `^fp_[0-9a-f]{8}$`, fp)
}
