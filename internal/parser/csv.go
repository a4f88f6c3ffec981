package parser

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/dealmate/couponengine/internal/types"
)

// parseCSV parses positionally: column 0 = code, 1 = title, 2 =
// discount type token, 3 = numeric value. The header row is consumed
// and discarded without enforcing column names, per the Open Question
// resolution in §9 (positional parsing to match observed behavior).
func (p *Parser) parseCSV(content []byte, sourceURL string) ([]*types.RawCoupon, error) {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, &types.ParseError{URL: sourceURL, Err: err}
	}
	if len(records) == 0 {
		return nil, nil
	}
	records = records[1:] // drop header row

	var coupons []*types.RawCoupon
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(rec[0]))
		if code == "" {
			continue
		}

		title := strings.TrimSpace(rec[1])
		if title == "" {
			title = "Coupon: " + code
		}

		c := types.NewRawCoupon(code, title)
		c.SourceURL = sourceURL
		c.SourceType = types.SourceWebScraping

		if len(rec) >= 3 {
			c.DiscountType = csvDiscountType(rec[2])
		}
		if len(rec) >= 4 {
			if v, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64); err == nil {
				c.DiscountValue = &v
			}
		}

		coupons = append(coupons, c)
	}

	return coupons, nil
}

func csvDiscountType(raw string) types.DiscountType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percentage", "percent", "%":
		return types.DiscountPercentage
	case "fixed", "amount", "$":
		return types.DiscountFixed
	case "free_shipping", "shipping":
		return types.DiscountFreeShipping
	default:
		return types.DiscountUnknown
	}
}
