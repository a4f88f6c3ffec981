package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dealmate/couponengine/internal/types"
)

// cssSelectors is the generic selector set run against every HTML
// payload, per spec §4.6.
var cssSelectors = []string{
	`[class*="coupon-code"]`,
	`[data-coupon-code]`,
	`.promo-code, .discount-code`,
}

// domainCSSSelectors overrides/extends the generic set for specific
// hosts. Both the generic and the domain-specific passes always run.
var domainCSSSelectors = map[string][]string{
	"coupons.com": {
		".offer-code", "[data-testid='coupon-code']",
	},
}

// defaultSelectionTitle is extractFromSelection's placeholder title
// when no data-title/title attribute is present, used by
// mergeDiscountInfo to decide whether a discount-derived title is
// safe to apply without clobbering a real attribute-sourced one.
const defaultSelectionTitle = "Coupon Code"

func (p *Parser) parseHTML(content []byte, sourceURL, host string) ([]*types.RawCoupon, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(content)))
	if err != nil {
		return nil, &types.ParseError{URL: sourceURL, Err: err}
	}

	var coupons []*types.RawCoupon

	selectors := append([]string{}, cssSelectors...)
	selectors = append(selectors, domainCSSSelectors[host]...)

	// Concatenated page text, searched for discount/minimum-order context
	// near every CSS/attribute match below, and run through the
	// text-fallback pass at the end of this function. Text nodes are
	// joined with a space so adjacent elements ("SAVE25" then "25% off")
	// do not run together into one token.
	var textParts []string
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			textParts = append(textParts, n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	for _, n := range doc.Nodes {
		collect(n)
	}
	pageText := strings.Join(textParts, " ")

	seen := make(map[string]bool)
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			c := extractFromSelection(s, sourceURL)
			if c == nil {
				return
			}
			key := c.Code
			if seen[key] {
				return
			}
			seen[key] = true
			mergeDiscountInfo(c, pageText)
			coupons = append(coupons, c)
		})
	}

	if x := p.parseXPathDomain(doc, sourceURL, host); x != nil {
		coupons = append(coupons, x...)
	}

	// Regex text pass over the concatenated text content, per §4.6.
	coupons = append(coupons, extractFromText(pageText, sourceURL)...)

	return coupons, nil
}

// extractFromSelection pulls a code and title from a matched element per
// the §4.6 attribute-priority rule, rejecting codes outside [3,50] chars.
func extractFromSelection(s *goquery.Selection, sourceURL string) *types.RawCoupon {
	var code string
	if v, ok := s.Attr("data-coupon-code"); ok && v != "" {
		code = v
	} else if v, ok := s.Attr("data-clipboard-text"); ok && v != "" {
		code = v
	} else {
		text := strings.TrimSpace(s.Text())
		fields := strings.Fields(text)
		if len(fields) > 0 {
			code = fields[0]
		}
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 3 || len(code) > 50 {
		return nil
	}

	title := defaultSelectionTitle
	if v, ok := s.Attr("data-title"); ok && v != "" {
		title = v
	} else if v, ok := s.Attr("title"); ok && v != "" {
		title = v
	}

	c := types.NewRawCoupon(code, title)
	c.SourceURL = sourceURL
	c.SourceType = types.SourceWebScraping
	return c
}

// extractFromText runs the unknown/text-fallback regex pass from §4.6
// over arbitrary text, used both as the HTML tier's concatenated-text
// pass and as the dedicated fallback for unclassified payloads.
func extractFromText(text, sourceURL string) []*types.RawCoupon {
	var coupons []*types.RawCoupon

	matches := codeTextPattern.FindAllStringSubmatchIndex(text, -1)
	for _, m := range matches {
		codeStart, codeEnd := m[2], m[3]
		code := text[codeStart:codeEnd]

		windowStart := max(0, m[0]-200)
		windowEnd := min(len(text), m[1]+200)
		window := text[windowStart:windowEnd]

		c := types.NewRawCoupon(code, "Coupon")
		c.SourceURL = sourceURL
		c.SourceType = types.SourceWebScraping

		applyDiscountInfo(c, window)
		coupons = append(coupons, c)
	}

	return coupons
}

// applyDiscountInfo fills in discount_type/value/minimum_order from a
// ±200-char context window, per §4.6's unknown/text fallback rules.
func applyDiscountInfo(c *types.RawCoupon, window string) {
	if m := percentOffPattern.FindStringSubmatch(window); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			c.DiscountType = types.DiscountPercentage
			c.DiscountValue = &v
			c.Title = m[1] + "% Off"
		}
	} else if m := fixedOffPattern.FindStringSubmatch(window); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			c.DiscountType = types.DiscountFixed
			c.DiscountValue = &v
			c.Title = "$" + m[1] + " Off"
		}
	}

	if m := minimumPattern.FindStringSubmatch(window); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			c.MinimumOrder = &v
		}
	}
}

// mergeDiscountInfo fills discount_type/value/minimum_order into a
// CSS/attribute-derived coupon from the surrounding page text, without
// the literal "code"/"coupon"/"promo" keyword extractFromText requires.
// It only sets fields the selection pass left empty, and only replaces
// Title if the selection pass left it at its placeholder value, so a
// real data-title/title attribute is never clobbered.
func mergeDiscountInfo(c *types.RawCoupon, text string) {
	if c.DiscountType == types.DiscountUnknown {
		if m := percentOffPattern.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				c.DiscountType = types.DiscountPercentage
				c.DiscountValue = &v
				if c.Title == defaultSelectionTitle {
					c.Title = m[1] + "% Off"
				}
			}
		} else if m := fixedOffPattern.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				c.DiscountType = types.DiscountFixed
				c.DiscountValue = &v
				if c.Title == defaultSelectionTitle {
					c.Title = "$" + m[1] + " Off"
				}
			}
		}
	}

	if c.MinimumOrder == nil {
		if m := minimumPattern.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				c.MinimumOrder = &v
			}
		}
	}
}
