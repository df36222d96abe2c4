package extract

import (
	"net/url"
	"strings"

	"github.com/markusmobius/go-trafilatura"
)

// Trafilatura extracts the main content with go-trafilatura.
type Trafilatura struct{}

func (Trafilatura) Extract(html string, pageURL *url.URL) (*Result, error) {
	if strings.TrimSpace(html) == "" {
		return nil, ErrNoContent
	}
	result, err := trafilatura.Extract(strings.NewReader(html), trafilatura.Options{
		OriginalURL:    pageURL,
		EnableFallback: true,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Title: strings.TrimSpace(result.Metadata.Title),
		Text:  strings.TrimSpace(result.ContentText),
	}, nil
}
