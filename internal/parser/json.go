package parser

import (
	"encoding/json"
	"strings"

	"github.com/dealmate/couponengine/internal/types"
)

// jsonContainerKeys are the object keys, in order, checked for a nested
// coupon array when the top-level payload is an object rather than an
// array, per §4.6.
var jsonContainerKeys = []string{"coupons", "deals", "offers", "promotions", "data", "results"}

func (p *Parser) parseJSON(content []byte, sourceURL string) ([]*types.RawCoupon, error) {
	var top any
	if err := json.Unmarshal(content, &top); err != nil {
		return nil, &types.ParseError{URL: sourceURL, Err: err}
	}

	var candidates []any
	switch v := top.(type) {
	case []any:
		candidates = v
	case map[string]any:
		for _, key := range jsonContainerKeys {
			if arr, ok := v[key].([]any); ok {
				candidates = append(candidates, arr...)
			}
		}
	}

	var coupons []*types.RawCoupon
	for _, cand := range candidates {
		obj, ok := cand.(map[string]any)
		if !ok {
			continue
		}
		c := couponFromJSONObject(obj, sourceURL)
		if c != nil {
			coupons = append(coupons, c)
		}
	}
	return coupons, nil
}

func couponFromJSONObject(obj map[string]any, sourceURL string) *types.RawCoupon {
	code := firstStringKey(obj, "code", "couponCode", "promoCode")
	if code == "" {
		return nil
	}

	title := firstStringKey(obj, "title", "name", "description")
	if title == "" {
		title = "Coupon"
	}

	c := types.NewRawCoupon(code, title)
	c.SourceURL = sourceURL
	c.SourceType = types.SourceWebScraping
	c.DiscountType = types.DiscountUnknown
	c.Description = firstStringKey(obj, "description")
	c.DiscountValue = floatKey(obj, "discountValue")
	c.MinimumOrder = floatKey(obj, "minimumOrder")
	c.Metadata = obj

	return c
}

func firstStringKey(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

func floatKey(obj map[string]any, key string) *float64 {
	v, ok := obj[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	return &f
}
