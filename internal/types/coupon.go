package types

import (
	"strings"
	"time"
)

// DiscountType enumerates the kinds of discount a RawCoupon can carry.
type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeShipping DiscountType = "free_shipping"
	DiscountBogo         DiscountType = "bogo"
	DiscountCashBack     DiscountType = "cash_back"
	DiscountPoints       DiscountType = "points"
	DiscountUnknown      DiscountType = "unknown"
)

// SourceType identifies how a RawCoupon entered the pipeline.
type SourceType string

const (
	SourceAffiliateAPI SourceType = "affiliate_api"
	SourceWebScraping  SourceType = "web_scraping"
	SourceUserSubmit   SourceType = "user_submitted"
	SourcePartnerAPI   SourceType = "partner_api"
)

// RawCoupon is the record produced by the parser and consumed by the
// validator and deduplicator. NewRawCoupon normalizes the code; the
// parser and the engine then fill in the remaining fields.
type RawCoupon struct {
	Code             string
	Title            string
	Description      string
	DiscountType     DiscountType
	DiscountValue    *float64
	MinimumOrder     *float64
	MaximumDiscount  *float64
	ValidFrom        *time.Time
	ValidUntil       *time.Time
	MerchantName     string
	MerchantDomain   string
	SourceURL        string
	SourceType       SourceType
	Metadata         map[string]any
	ScrapedAt        time.Time
}

// NewRawCoupon builds a RawCoupon, uppercasing the code per the code
// normalization invariant.
func NewRawCoupon(code, title string) *RawCoupon {
	return &RawCoupon{
		Code:         strings.ToUpper(strings.TrimSpace(code)),
		Title:        title,
		DiscountType: DiscountUnknown,
		SourceType:   SourceWebScraping,
		Metadata:     make(map[string]any),
		ScrapedAt:    time.Now().UTC(),
	}
}
