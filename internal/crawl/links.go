package crawl

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// staticMarkers flag hrefs that point at assets rather than content.
var staticMarkers = []string{
	"css", "js", "img", "font", "icon", "static", "image",
	".png", ".jpg", ".gif", ".svg", ".woff",
}

// ExtractLinks returns the de-duplicated http(s) links of every a[href] in
// body, resolved against base. Script, mail, phone, data and fragment-only
// hrefs are dropped, as are hrefs that look like static assets.
func ExtractLinks(body []byte, base *url.URL) []*url.URL {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []*url.URL
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.AttrOr("href", ""))
		if raw == "" || strings.HasPrefix(raw, "#") {
			return
		}
		lower := strings.ToLower(raw)
		for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
			if strings.HasPrefix(lower, prefix) {
				return
			}
		}
		if isStatic(lower) {
			return
		}

		ref, err := url.Parse(raw)
		if err != nil {
			return
		}
		u := base.ResolveReference(ref)
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		u.Fragment = ""
		u.RawFragment = ""

		s := u.String()
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		links = append(links, u)
	})
	return links
}

func isStatic(href string) bool {
	for _, m := range staticMarkers {
		if strings.Contains(href, m) {
			return true
		}
	}
	return false
}

// DirectoryOf maps a link to the directory the prober should search. A
// link whose last path segment contains a dot names a file, so its parent
// directory is used; any other link is a directory itself.
func DirectoryOf(u *url.URL) *url.URL {
	d := &url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host, Path: u.Path}
	trimmed := strings.TrimRight(d.Path, "/")
	if trimmed != "" && strings.Contains(path.Base(trimmed), ".") {
		d.Path = path.Dir(trimmed)
	} else {
		d.Path = trimmed
	}
	if !strings.HasSuffix(d.Path, "/") {
		d.Path += "/"
	}
	return d
}
