package checker

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageMeta holds the metadata extracted from a fetched page. Every field is
// optional: a missing tag yields a nil field, never an error.
type PageMeta struct {
	H1          *string
	Title       *string
	Description *string
}

// Extract pulls the first <h1> text, the <title> text and the content of
// <meta name="description"> out of an HTML body. Values are trimmed of
// surrounding whitespace. A body that fails to parse as HTML produces an
// empty PageMeta.
func Extract(body []byte) PageMeta {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PageMeta{}
	}

	var meta PageMeta
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		text := strings.TrimSpace(h1.Text())
		meta.H1 = &text
	}
	if title := doc.Find("title").First(); title.Length() > 0 {
		text := strings.TrimSpace(title.Text())
		meta.Title = &text
	}
	if desc := doc.Find(`meta[name="description"]`).First(); desc.Length() > 0 {
		if content, ok := desc.Attr("content"); ok {
			text := strings.TrimSpace(content)
			meta.Description = &text
		}
	}
	return meta
}
