package dedup

import (
	"testing"

	"github.com/dealmate/couponengine/internal/types"
)

func coupon(code, title string, value float64) *types.RawCoupon {
	return couponAt(code, title, value, "example.com")
}

func couponAt(code, title string, value float64, merchant string) *types.RawCoupon {
	c := types.NewRawCoupon(code, title)
	c.DiscountType = types.DiscountPercentage
	c.DiscountValue = &value
	c.MerchantDomain = merchant
	return c
}

func TestCombinedCollapsesExactDuplicates(t *testing.T) {
	coupons := []*types.RawCoupon{
		coupon("SAVE20", "Save 20", 20),
		coupon("SAVE20", "Save 20", 20),
		coupon("SAVE20", "Save 20", 20),
		coupon("SAVE10", "Save 10", 10),
	}

	out := Combined{}.Dedupe(coupons)
	if len(out) != 2 {
		t.Fatalf("expected 2 coupons after collapsing exact duplicates, got %d: %+v", len(out), codesOf(out))
	}
}

func TestCombinedCollapsesThreeExactDuplicatesToOne(t *testing.T) {
	coupons := []*types.RawCoupon{
		coupon("WELCOME10", "Welcome", 10),
		coupon("WELCOME10", "Welcome", 10),
		coupon("WELCOME10", "Welcome", 10),
	}

	out := Combined{}.Dedupe(coupons)
	if len(out) != 1 {
		t.Fatalf("expected 1 coupon, got %d", len(out))
	}
}

func TestFuzzyCollapsesNearMissesAtThreshold(t *testing.T) {
	coupons := []*types.RawCoupon{
		coupon("SAVE10", "Save Ten Percent", 10),
		coupon("SAVE1O", "Save Ten Percent", 10), // letter O instead of zero
		coupon("DISCOUNT20", "Twenty Off", 20),
	}

	out := Fuzzy{Threshold: 0.8}.Dedupe(coupons)
	if len(out) != 2 {
		t.Fatalf("expected near-duplicate SAVE10/SAVE1O to collapse, leaving 2 coupons, got %d: %+v", len(out), codesOf(out))
	}
}

func TestFuzzyKeepsDissimilarCodesSeparate(t *testing.T) {
	coupons := []*types.RawCoupon{
		coupon("ALPHA100", "Alpha Deal", 10),
		coupon("ZULU999", "Zulu Deal", 50),
	}

	out := Fuzzy{Threshold: 0.8}.Dedupe(coupons)
	if len(out) != 2 {
		t.Fatalf("expected dissimilar coupons to remain separate, got %d", len(out))
	}
}

func TestFuzzyCollapsesNearMissesAcrossMerchants(t *testing.T) {
	coupons := []*types.RawCoupon{
		couponAt("SAVE10", "Save Ten Percent", 10, "alpha.com"),
		couponAt("SAVE1O", "Save Ten Percent", 10, "zulu.com"), // letter O instead of zero
	}

	out := Fuzzy{Threshold: 0.8}.Dedupe(coupons)
	if len(out) != 1 {
		t.Fatalf("standalone Fuzzy is a global scan with no merchant restriction; expected near-duplicates across merchants to collapse, got %d: %+v", len(out), codesOf(out))
	}
}

func TestCombinedKeepsNearMissesSeparateAcrossMerchants(t *testing.T) {
	coupons := []*types.RawCoupon{
		couponAt("SAVE10", "Save Ten Percent", 10, "alpha.com"),
		couponAt("SAVE1O", "Save Ten Percent", 10, "zulu.com"),
	}

	out := Combined{}.Dedupe(coupons)
	if len(out) != 2 {
		t.Fatalf("Combined's fuzzy pass groups by merchant; expected near-duplicates from different merchants to both survive, got %d: %+v", len(out), codesOf(out))
	}
}

func TestHashBasedRequiresAllFieldsToMatch(t *testing.T) {
	a := coupon("SAVE20", "Save 20", 20)
	b := coupon("SAVE20", "Save 20", 25) // different value

	out := HashBased{}.Dedupe([]*types.RawCoupon{a, b})
	if len(out) != 2 {
		t.Fatalf("expected distinct discount values to survive hash dedup, got %d", len(out))
	}
}

func TestComputeStats(t *testing.T) {
	original := []*types.RawCoupon{
		couponAt("A", "a", 1, "alpha.com"), couponAt("A", "a", 1, "alpha.com"), couponAt("B", "b", 2, "zulu.com"),
	}
	deduped := Combined{}.Dedupe(original)

	stats := ComputeStats(original, deduped)
	if stats.OriginalCount != 3 {
		t.Errorf("OriginalCount = %d, want 3", stats.OriginalCount)
	}
	if stats.DeduplicatedCount != len(deduped) {
		t.Errorf("DeduplicatedCount mismatch")
	}
	if stats.RemovedCount != stats.OriginalCount-stats.DeduplicatedCount {
		t.Errorf("RemovedCount inconsistent")
	}
	if want := float64(stats.RemovedCount) / float64(stats.OriginalCount) * 100; stats.RemovalRate != want {
		t.Errorf("RemovalRate = %v, want %v (percentage, not raw fraction)", stats.RemovalRate, want)
	}
	if stats.MerchantCounts["alpha.com"] != 2 {
		t.Errorf("MerchantCounts[alpha.com] = %d, want 2", stats.MerchantCounts["alpha.com"])
	}
	if stats.MerchantCounts["zulu.com"] != 1 {
		t.Errorf("MerchantCounts[zulu.com] = %d, want 1", stats.MerchantCounts["zulu.com"])
	}
	if stats.DeduplicatedMerchantCounts["alpha.com"] != 1 {
		t.Errorf("DeduplicatedMerchantCounts[alpha.com] = %d, want 1", stats.DeduplicatedMerchantCounts["alpha.com"])
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	a := coupon("SAVE10", "Save Ten", 10)
	b := coupon("SAVE1O", "Save Ten", 10)

	if Similarity(a, b) != Similarity(b, a) {
		t.Errorf("similarity should be symmetric: %v vs %v", Similarity(a, b), Similarity(b, a))
	}
}

func TestSimilarityIsOneForIdenticalCoupons(t *testing.T) {
	a := coupon("SAVE10", "Save Ten", 10)
	b := coupon("SAVE10", "Save Ten", 10)

	if got := Similarity(a, b); got != 1.0 {
		t.Errorf("Similarity = %v, want 1.0", got)
	}
}

func TestCodeAndMerchantIsIdempotent(t *testing.T) {
	coupons := []*types.RawCoupon{
		coupon("A", "a", 1), coupon("A", "a", 1), coupon("B", "b", 2),
	}

	first := CodeAndMerchant{}.Dedupe(coupons)
	second := CodeAndMerchant{}.Dedupe(first)

	if len(first) != len(second) {
		t.Errorf("expected idempotent dedup, got %d then %d", len(first), len(second))
	}
}

func codesOf(coupons []*types.RawCoupon) []string {
	out := make([]string, len(coupons))
	for i, c := range coupons {
		out[i] = c.Code
	}
	return out
}
