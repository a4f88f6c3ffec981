// Package validator applies the four quality gates from spec §4.7 to
// extracted coupons: code, discount, dates, and merchant.
package validator

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/dealmate/couponengine/internal/types"
)

// Reason names which gate rejected a coupon.
type Reason string

const (
	ReasonCode     Reason = "code"
	ReasonDiscount Reason = "discount"
	ReasonDates    Reason = "dates"
	ReasonMerchant Reason = "merchant"
)

var (
	validCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,50}$`)
	domainPattern    = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]?(\.[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]?)*$`)

	spamKeywords = map[string]bool{
		"TEST": true, "DEMO": true, "EXAMPLE": true, "FAKE": true, "INVALID": true,
	}
)

const (
	minDiscountValue     = 1.0
	maxDiscountPercentage = 99.0
	maxFutureDays        = 365
)

// Validator holds no state beyond its thresholds, which match spec §4.7
// exactly; it is safe for concurrent use.
type Validator struct{}

// New constructs a Validator.
func New() *Validator { return &Validator{} }

// Validate reports whether c passes all four gates, and if not, which
// gates rejected it. The zero-length slice (valid=true) case never
// allocates.
func (v *Validator) Validate(c *types.RawCoupon) (bool, []Reason) {
	var reasons []Reason

	if !v.validateCode(c.Code) {
		reasons = append(reasons, ReasonCode)
	}
	if !v.validateDiscount(c.DiscountType, c.DiscountValue) {
		reasons = append(reasons, ReasonDiscount)
	}
	if !v.validateDates(c) {
		reasons = append(reasons, ReasonDates)
	}
	if !v.validateMerchant(c) {
		reasons = append(reasons, ReasonMerchant)
	}

	return len(reasons) == 0, reasons
}

// IsValid is a convenience wrapper around Validate for callers that
// don't need rejection reasons.
func (v *Validator) IsValid(c *types.RawCoupon) bool {
	ok, _ := v.Validate(c)
	return ok
}

func (v *Validator) validateCode(code string) bool {
	if !validCodePattern.MatchString(code) {
		return false
	}

	upper := strings.ToUpper(code)
	for kw := range spamKeywords {
		if strings.Contains(upper, kw) {
			return false
		}
	}

	return !hasRepetitivePattern(code)
}

func hasRepetitivePattern(code string) bool {
	if len(code) < 4 {
		return false
	}

	first := code[0]
	allSame := true
	for i := 0; i < len(code); i++ {
		if code[i] != first {
			allSame = false
			break
		}
	}
	if allSame {
		return true
	}

	// ABAB-style alternation: chars[i] == chars[i % 2] for every position.
	follows := true
	for i := 0; i < len(code); i++ {
		if code[i] != code[i%2] {
			follows = false
			break
		}
	}
	return follows
}

func (v *Validator) validateDiscount(t types.DiscountType, value *float64) bool {
	switch t {
	case types.DiscountPercentage:
		return value != nil && *value >= minDiscountValue && *value <= maxDiscountPercentage
	case types.DiscountFixed:
		return value != nil && *value >= minDiscountValue && *value <= 10000.0
	case types.DiscountFreeShipping, types.DiscountBogo:
		return true
	case types.DiscountCashBack:
		return value != nil && *value >= minDiscountValue && *value <= 100.0
	case types.DiscountPoints:
		return value != nil && *value >= 1.0 && *value <= 100000.0
	default:
		return false
	}
}

func (v *Validator) validateDates(c *types.RawCoupon) bool {
	now := time.Now().UTC()

	if c.ValidUntil != nil {
		if c.ValidUntil.Before(now) {
			return false
		}
		if c.ValidUntil.Sub(now) > maxFutureDays*24*time.Hour {
			return false
		}
	}

	if c.ValidFrom != nil {
		if c.ValidFrom.After(now) {
			return false
		}
		if c.ValidUntil != nil && !c.ValidFrom.Before(*c.ValidUntil) {
			return false
		}
	}

	return true
}

func (v *Validator) validateMerchant(c *types.RawCoupon) bool {
	if c.MerchantName == "" || len(c.MerchantName) > 100 {
		return false
	}
	if c.MerchantDomain == "" || !isValidDomain(c.MerchantDomain) {
		return false
	}
	return true
}

// isValidDomain checks both shape (a plain DNS-label regex) and that
// the domain resolves to a registrable suffix (e.g. ".com", ".co.uk")
// rather than a bare unregistrable TLD or internal hostname.
func isValidDomain(domain string) bool {
	if len(domain) < 4 || len(domain) > 253 {
		return false
	}
	if !domainPattern.MatchString(domain) {
		return false
	}

	lower := strings.ToLower(domain)
	suffix, _ := publicsuffix.PublicSuffix(lower)
	return suffix != lower
}
