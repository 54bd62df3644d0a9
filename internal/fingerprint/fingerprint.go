// Package fingerprint builds deterministic dedupe fingerprints for parsed
// transactions. The fingerprint is a pure function of canonicalized input:
// formatting variance in merchant, reference, or sub-minute time drift must
// not change it, while a change in amount or direction must.
package fingerprint

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/paisatrail/paisatrail/internal/model"
)

const (
	version     = "v1"
	noRef       = "no-ref"
	noTimestamp = "no-time"
)

// Build returns the dedupe fingerprint for a transaction. A zero postedAt
// yields the "no-time" bucket, which also absorbs unparsable timestamps
// upstream.
func Build(app model.SourceApp, amountPaise int64, direction model.Direction, merchant, upiRef string, postedAt time.Time) string {
	canonical := strings.Join([]string{
		version,
		string(app),
		string(direction),
		fmt.Sprintf("%d", amountPaise),
		model.NormalizeMerchant(merchant),
		normalizeRef(upiRef),
		minuteBucket(postedAt),
	}, "|")

	h := fnv.New32a()
	_, _ = h.Write([]byte(canonical))
	return fmt.Sprintf("fp_%08x", h.Sum32())
}

// normalizeRef uppercases and strips non-alphanumerics so that dashed or
// spaced renderings of the same reference collapse together.
func normalizeRef(ref string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(ref) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return noRef
	}
	return b.String()
}

// minuteBucket truncates the timestamp to the minute. Capture latency
// between a notification being posted and being observed is typically well
// under a minute, so same-minute observations bucket together.
func minuteBucket(t time.Time) string {
	if t.IsZero() {
		return noTimestamp
	}
	return t.UTC().Truncate(time.Minute).Format(time.RFC3339)
}
