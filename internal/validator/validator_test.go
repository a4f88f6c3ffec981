package validator

import (
	"testing"
	"time"

	"github.com/dealmate/couponengine/internal/types"
)

func validCoupon() *types.RawCoupon {
	c := types.NewRawCoupon("SAVE20", "Save 20%")
	c.DiscountType = types.DiscountPercentage
	v := 20.0
	c.DiscountValue = &v
	c.MerchantName = "Example Store"
	c.MerchantDomain = "example.com"
	return c
}

func TestValidateAcceptsWellFormedCoupon(t *testing.T) {
	v := New()
	ok, reasons := v.Validate(validCoupon())
	if !ok {
		t.Fatalf("expected valid, got reasons %v", reasons)
	}
	if len(reasons) != 0 {
		t.Errorf("expected no reasons, got %v", reasons)
	}
}

func TestValidateRejectsRepetitiveCode(t *testing.T) {
	c := validCoupon()
	c.Code = "AAAA"
	v := New()
	ok, reasons := v.Validate(c)
	// AAAA matches the pattern but is a repetitive run, so it should be
	// rejected on the code gate specifically.
	if ok {
		t.Fatalf("expected AAAA to be rejected")
	}
	if !containsReason(reasons, ReasonCode) {
		t.Errorf("expected code reason, got %v", reasons)
	}
}

func TestValidateRejectsSpamKeyword(t *testing.T) {
	c := validCoupon()
	c.Code = "TESTCODE123"
	v := New()
	ok, reasons := v.Validate(c)
	if ok {
		t.Fatalf("expected spam keyword code to be rejected")
	}
	if !containsReason(reasons, ReasonCode) {
		t.Errorf("expected code reason, got %v", reasons)
	}
}

func TestValidateDiscountRanges(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  bool
	}{
		{"within range", 50, true},
		{"at floor", 1, true},
		{"at ceiling", 99, true},
		{"below floor", 0.5, false},
		{"above ceiling", 150, false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCoupon()
			c.DiscountValue = &tt.value
			ok, reasons := v.Validate(c)
			if ok != tt.want {
				t.Errorf("valid = %v, reasons = %v, want %v", ok, reasons, tt.want)
			}
		})
	}
}

func TestValidateDiscountRequiresValueExceptFreeShippingAndBogo(t *testing.T) {
	v := New()

	c := validCoupon()
	c.DiscountType = types.DiscountFreeShipping
	c.DiscountValue = nil
	if ok, reasons := v.Validate(c); !ok {
		t.Errorf("free shipping without value should be valid, got reasons %v", reasons)
	}

	c2 := validCoupon()
	c2.DiscountType = types.DiscountPercentage
	c2.DiscountValue = nil
	if ok, _ := v.Validate(c2); ok {
		t.Errorf("percentage discount without value should be rejected")
	}
}

func TestValidateDatesRejectsExpired(t *testing.T) {
	c := validCoupon()
	past := time.Now().UTC().Add(-24 * time.Hour)
	c.ValidUntil = &past

	v := New()
	ok, reasons := v.Validate(c)
	if ok {
		t.Fatalf("expected expired coupon to be rejected")
	}
	if !containsReason(reasons, ReasonDates) {
		t.Errorf("expected dates reason, got %v", reasons)
	}
}

func TestValidateDatesRejectsTooFarInFuture(t *testing.T) {
	c := validCoupon()
	future := time.Now().UTC().Add(400 * 24 * time.Hour)
	c.ValidUntil = &future

	v := New()
	ok, _ := v.Validate(c)
	if ok {
		t.Fatalf("expected far-future expiry to be rejected")
	}
}

func TestValidateDatesRejectsInvertedWindow(t *testing.T) {
	c := validCoupon()
	from := time.Now().UTC().Add(10 * 24 * time.Hour)
	until := time.Now().UTC().Add(5 * 24 * time.Hour)
	c.ValidFrom = &from
	c.ValidUntil = &until

	v := New()
	ok, reasons := v.Validate(c)
	if ok {
		t.Fatalf("expected inverted validity window to be rejected")
	}
	if !containsReason(reasons, ReasonDates) {
		t.Errorf("expected dates reason, got %v", reasons)
	}
}

func TestValidateMerchantRejectsMissingDomain(t *testing.T) {
	c := validCoupon()
	c.MerchantDomain = ""

	v := New()
	ok, reasons := v.Validate(c)
	if ok {
		t.Fatalf("expected missing merchant domain to be rejected")
	}
	if !containsReason(reasons, ReasonMerchant) {
		t.Errorf("expected merchant reason, got %v", reasons)
	}
}

func TestValidateMerchantRejectsMalformedDomain(t *testing.T) {
	c := validCoupon()
	c.MerchantDomain = "not a domain!!"

	v := New()
	ok, _ := v.Validate(c)
	if ok {
		t.Fatalf("expected malformed domain to be rejected")
	}
}

func TestValidateReasonsAreSubsetOfKnownGates(t *testing.T) {
	known := map[Reason]bool{
		ReasonCode: true, ReasonDiscount: true, ReasonDates: true, ReasonMerchant: true,
	}

	c := validCoupon()
	c.Code = "X"
	c.DiscountValue = nil
	c.MerchantDomain = ""

	v := New()
	_, reasons := v.Validate(c)
	for _, r := range reasons {
		if !known[r] {
			t.Errorf("unexpected reason %q", r)
		}
	}
}

func containsReason(reasons []Reason, target Reason) bool {
	for _, r := range reasons {
		if r == target {
			return true
		}
	}
	return false
}
