// Package dedup collapses duplicate and near-duplicate coupons using
// exact-key, hash-based, and fuzzy-similarity strategies, per spec §4.8.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dealmate/couponengine/internal/types"
)

// Strategy decides whether two coupons refer to the same underlying
// offer.
type Strategy interface {
	Dedupe(coupons []*types.RawCoupon) []*types.RawCoupon
}

// CodeAndMerchant collapses coupons sharing the same normalized code and
// merchant domain, keeping the first occurrence.
type CodeAndMerchant struct{}

func (CodeAndMerchant) Dedupe(coupons []*types.RawCoupon) []*types.RawCoupon {
	seen := make(map[string]bool, len(coupons))
	out := make([]*types.RawCoupon, 0, len(coupons))
	for _, c := range coupons {
		key := strings.ToUpper(c.Code) + "|" + strings.ToLower(c.MerchantDomain)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// HashBased collapses coupons whose code, merchant domain, discount
// type, and discount value all match, via a sha256 fingerprint.
type HashBased struct{}

func (HashBased) Dedupe(coupons []*types.RawCoupon) []*types.RawCoupon {
	seen := make(map[string]bool, len(coupons))
	out := make([]*types.RawCoupon, 0, len(coupons))
	for _, c := range coupons {
		h := fingerprint(c)
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, c)
	}
	return out
}

func fingerprint(c *types.RawCoupon) string {
	value := ""
	if c.DiscountValue != nil {
		value = fmt.Sprintf("%.2f", *c.DiscountValue)
	}
	raw := strings.ToUpper(c.Code) + "|" + strings.ToLower(c.MerchantDomain) + "|" + string(c.DiscountType) + "|" + value
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Fuzzy collapses coupons whose similarity score meets threshold, a
// flat global compare-to-every-kept-record scan with no merchant
// restriction.
type Fuzzy struct {
	Threshold float64
}

func (f Fuzzy) Dedupe(coupons []*types.RawCoupon) []*types.RawCoupon {
	kept := make([]*types.RawCoupon, 0, len(coupons))
	for _, c := range coupons {
		dup := false
		for _, k := range kept {
			if Similarity(c, k) >= f.Threshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}

// Combined runs the three-pass pipeline spec §4.8 describes: exact
// code+merchant collapse, then a per-merchant fuzzy pass at 0.85 (the
// merchant grouping is this stage's own, not Fuzzy's), then a final
// hash-based pass to catch any exact duplicates the fuzzy pass's
// grouping missed.
type Combined struct{}

func (Combined) Dedupe(coupons []*types.RawCoupon) []*types.RawCoupon {
	stage1 := CodeAndMerchant{}.Dedupe(coupons)
	stage2 := fuzzyByMerchant(stage1, 0.85)
	return HashBased{}.Dedupe(stage2)
}

// fuzzyByMerchant groups coupons by merchant domain and runs a Fuzzy
// pass within each group, preserving first-seen merchant order.
func fuzzyByMerchant(coupons []*types.RawCoupon, threshold float64) []*types.RawCoupon {
	byMerchant := make(map[string][]*types.RawCoupon)
	var order []string
	for _, c := range coupons {
		key := strings.ToLower(c.MerchantDomain)
		if _, ok := byMerchant[key]; !ok {
			order = append(order, key)
		}
		byMerchant[key] = append(byMerchant[key], c)
	}

	out := make([]*types.RawCoupon, 0, len(coupons))
	for _, key := range order {
		out = append(out, Fuzzy{Threshold: threshold}.Dedupe(byMerchant[key])...)
	}
	return out
}
