package dedup

import (
	"math"
	"strings"

	"github.com/dealmate/couponengine/internal/types"
)

// Similarity weights, per spec §4.8: code contributes most, then title,
// then a flat bonus for matching discount type, then a smaller flat
// bonus when both discount values are present and close. Weights sum
// to 1.0, and the Open Question on the similarity denominator was
// decided in favor of a fixed 1.0 rather than a per-field dynamic
// normalization, so two coupons missing a comparable field (e.g. no
// DiscountValue on either side) are scored on the remaining weights
// as-is rather than rescaled upward.
const (
	weightCode         = 0.4
	weightTitle        = 0.3
	weightDiscountType = 0.2
	weightDiscountVal  = 0.1

	discountValueCloseEpsilon = 0.01
)

// Similarity scores how alike two coupons are, in [0, 1].
func Similarity(a, b *types.RawCoupon) float64 {
	score := weightCode * stringSimilarity(a.Code, b.Code)
	score += weightTitle * stringSimilarity(a.Title, b.Title)

	if a.DiscountType == b.DiscountType {
		score += weightDiscountType
	}
	if a.DiscountValue != nil && b.DiscountValue != nil {
		diff := *a.DiscountValue - *b.DiscountValue
		if diff < 0 {
			diff = -diff
		}
		if diff < discountValueCloseEpsilon {
			score += weightDiscountVal
		}
	}

	// Round away float accumulation error (0.4+0.3+0.2+0.1 sums to
	// 0.9999999999999999) so identical coupons score exactly 1.0.
	return math.Round(score*1e9) / 1e9
}

// stringSimilarity returns a normalized similarity in [0, 1] derived
// from Levenshtein edit distance divided by the longer string's length.
func stringSimilarity(a, b string) float64 {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	dist := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
