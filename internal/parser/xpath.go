package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	xpathpkg "github.com/antchfx/xpath"

	"github.com/dealmate/couponengine/internal/types"
)

// xpathDomainSelectors holds the XPath expressions for hosts whose
// markup is easier to address by path than by CSS class, demonstrating
// the second selector engine in the HTML tier's two-tier architecture.
var xpathDomainSelectors = map[string][]string{
	"retailmenot.com": {
		`//*[contains(@class, "coupon-code")]`,
		`//*[@data-code]`,
	},
}

// parseXPathDomain runs the host's XPath overrides, if any, against the
// already-parsed goquery document by re-rendering it through htmlquery's
// node tree. A leading "www." on host is ignored for the lookup. Returns
// nil if host has no XPath overrides registered.
func (p *Parser) parseXPathDomain(doc *goquery.Document, sourceURL, host string) []*types.RawCoupon {
	exprs, ok := xpathDomainSelectors[strings.TrimPrefix(host, "www.")]
	if !ok {
		return nil
	}

	html, err := doc.Html()
	if err != nil {
		return nil
	}

	root, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		p.logger.Debug("xpath domain parse failed", "url", sourceURL, "error", err)
		return nil
	}

	var coupons []*types.RawCoupon
	seen := make(map[string]bool)

	for _, expr := range exprs {
		compiled, err := xpathpkg.Compile(expr)
		if err != nil {
			continue
		}
		nodes := htmlquery.QuerySelectorAll(root, compiled)
		for _, n := range nodes {
			code := strings.ToUpper(strings.TrimSpace(htmlquery.SelectAttr(n, "data-code")))
			if code == "" {
				code = strings.ToUpper(strings.TrimSpace(htmlquery.InnerText(n)))
				if fields := strings.Fields(code); len(fields) > 0 {
					code = fields[0]
				}
			}
			if len(code) < 3 || len(code) > 50 || seen[code] {
				continue
			}
			seen[code] = true

			c := types.NewRawCoupon(code, "Coupon Code")
			c.SourceURL = sourceURL
			c.SourceType = types.SourceWebScraping
			coupons = append(coupons, c)
		}
	}

	return coupons
}
