// Package feed implements the per-source-type fetch adapters. Every adapter
// normalizes upstream payloads into domain.RawItem and tolerates single
// malformed entries; only a total upstream failure errors out.
package feed

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "OpportunityRadar/1.0"

// stripTags reduces an HTML fragment to its text content. On parse failure
// the raw input is returned unchanged.
func stripTags(html string) string {
	if !strings.Contains(html, "<") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
