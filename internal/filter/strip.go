package filter

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripMarkup returns the visible text of an HTML body with whitespace
// collapsed to single spaces. Script, style, noscript and template elements
// are dropped. Bodies that fail to parse are returned as raw text.
func StripMarkup(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return collapseSpace(string(body))
	}
	doc.Find("script, style, noscript, template").Remove()
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
