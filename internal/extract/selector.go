package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selector extracts the first element matching the title selector and the
// paragraphs inside the first element matching the content selector.
type Selector struct {
	Title   string
	Content string
}

// NewSelector returns a Selector, defaulting to the markup of the
// article sites the input table usually points at.
func NewSelector(title, content string) *Selector {
	if title == "" {
		title = "h1.entry-title"
	}
	if content == "" {
		content = "div.td-post-content.tagdiv-type"
	}
	return &Selector{Title: title, Content: content}
}

func (s *Selector) Extract(html string, _ *url.URL) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	res := &Result{Title: NoTitle, Text: NoContent}

	if title := doc.Find(s.Title).First(); title.Length() > 0 {
		res.Title = strings.TrimSpace(title.Text())
	}

	content := doc.Find(s.Content).First()
	if content.Length() == 0 {
		return res, nil
	}
	content.Find("script, style").Remove()

	var paras []string
	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	res.Text = strings.Join(paras, "\n\n")
	return res, nil
}
