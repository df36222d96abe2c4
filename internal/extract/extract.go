// Package extract locates the title and body text of an article in an HTML
// page.
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Placeholders returned by the selector extractor when an element is absent.
const (
	NoTitle   = "No Title Found"
	NoContent = "No Content Found"
)

// ErrNoContent is returned when an extractor finds no usable body text.
var ErrNoContent = errors.New("no content found")

// Result is the title and plain-text body of an article.
type Result struct {
	Title string
	Text  string
}

// Empty reports whether the body is missing or a placeholder.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	t := strings.TrimSpace(r.Text)
	return t == "" || t == NoContent
}

// Extractor turns raw HTML into a Result. pageURL may be nil.
type Extractor interface {
	Extract(html string, pageURL *url.URL) (*Result, error)
}

// Options configures the extractors built by New.
type Options struct {
	TitleSelector   string
	ContentSelector string
}

// New builds an extractor by name: selector, readability or trafilatura.
func New(name string, opts Options) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "selector":
		return NewSelector(opts.TitleSelector, opts.ContentSelector), nil
	case "readability":
		return &Readability{}, nil
	case "trafilatura":
		return &Trafilatura{}, nil
	}
	return nil, fmt.Errorf("unknown extractor %q", name)
}

// NewChain builds the primary extractor followed by an optional fallback.
// The fallback is skipped when empty or equal to the primary.
func NewChain(primary, fallback string, opts Options) (Extractor, error) {
	first, err := New(primary, opts)
	if err != nil {
		return nil, err
	}
	if fallback == "" || strings.EqualFold(fallback, primary) {
		return first, nil
	}
	second, err := New(fallback, opts)
	if err != nil {
		return nil, err
	}
	return Chain{first, second}, nil
}

// Chain tries extractors in order until one yields body text. When none
// does, the first successful result is returned so the primary's
// placeholders survive.
type Chain []Extractor

func (c Chain) Extract(html string, pageURL *url.URL) (*Result, error) {
	var (
		first   *Result
		lastErr error
	)
	for _, e := range c {
		res, err := e.Extract(html, pageURL)
		if err != nil {
			lastErr = err
			continue
		}
		if !res.Empty() {
			return res, nil
		}
		if first == nil {
			first = res
		}
	}
	if first != nil {
		return first, nil
	}
	if lastErr == nil {
		lastErr = ErrNoContent
	}
	return nil, lastErr
}
