// Package parser extracts RawCoupon records from fetched content,
// dispatching on the classifier's content type, per spec §4.6. The
// HTML tier runs both a generic and a domain-specific extraction pass;
// the JSON, CSV, and text tiers have a generic pass only.
package parser

import (
	"log/slog"
	"net/url"
	"regexp"

	"github.com/dealmate/couponengine/internal/classifier"
	"github.com/dealmate/couponengine/internal/types"
)

var (
	codeTextPattern   = regexp.MustCompile(`(?i)(?:code|coupon|promo)[\s:]*([A-Z0-9]{3,20})`)
	percentOffPattern = regexp.MustCompile(`(\d+)\s*%\s*off`)
	fixedOffPattern   = regexp.MustCompile(`\$(\d+(?:\.\d{2})?)\s*off`)
	minimumPattern    = regexp.MustCompile(`(?i)minimum\s*(?:order|purchase)[\s:]*\$?(\d+(?:\.\d{2})?)`)
)

// Parser dispatches extraction across HTML, JSON, CSV, and text-fallback
// tiers. It is stateless apart from its logger; the HTML tier's generic
// and domain-specific selector sets are package-level.
type Parser struct {
	logger *slog.Logger
}

// New constructs a Parser.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With("component", "parser")}
}

// Extract dispatches content to the appropriate tier based on the
// classifier's verdict and returns the coupon candidates found.
func (p *Parser) Extract(content []byte, sourceURL string) ([]*types.RawCoupon, error) {
	host := hostOf(sourceURL)

	switch classifier.Classify(content) {
	case classifier.JSON:
		return p.parseJSON(content, sourceURL)
	case classifier.HTML:
		return p.parseHTML(content, sourceURL, host)
	case classifier.CSV:
		return p.parseCSV(content, sourceURL)
	default:
		return extractFromText(string(content), sourceURL), nil
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
