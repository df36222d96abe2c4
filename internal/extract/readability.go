package extract

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Readability extracts the main content with go-readability.
type Readability struct{}

func (Readability) Extract(html string, pageURL *url.URL) (*Result, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrNoContent
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, err
	}
	return &Result{
		Title: strings.TrimSpace(article.Title),
		Text:  strings.TrimSpace(article.TextContent),
	}, nil
}
