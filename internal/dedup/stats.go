package dedup

import (
	"strings"

	"github.com/dealmate/couponengine/internal/types"
)

// Stats summarizes the effect a dedup pass had, surfaced to callers so
// a batch run can report how much redundancy it absorbed, per spec
// §4.8 ("emits counts, removed, rate (%), and per-merchant histograms
// before and after").
type Stats struct {
	OriginalCount              int
	DeduplicatedCount          int
	RemovedCount               int
	RemovalRate                float64 // percentage, e.g. 25.0 for 25%
	MerchantCounts             map[string]int
	DeduplicatedMerchantCounts map[string]int
}

// ComputeStats compares an original coupon slice against the result of
// running a Strategy over it.
func ComputeStats(original, deduplicated []*types.RawCoupon) Stats {
	removed := len(original) - len(deduplicated)
	rate := 0.0
	if len(original) > 0 {
		rate = float64(removed) / float64(len(original)) * 100
	}
	return Stats{
		OriginalCount:              len(original),
		DeduplicatedCount:          len(deduplicated),
		RemovedCount:               removed,
		RemovalRate:                rate,
		MerchantCounts:             merchantHistogram(original),
		DeduplicatedMerchantCounts: merchantHistogram(deduplicated),
	}
}

// merchantHistogram counts coupons per normalized merchant domain.
func merchantHistogram(coupons []*types.RawCoupon) map[string]int {
	counts := make(map[string]int, len(coupons))
	for _, c := range coupons {
		counts[strings.ToLower(c.MerchantDomain)]++
	}
	return counts
}
