// Package fetch downloads article pages and hands them to an extractor.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/articlemetrics/internal/extract"
	"github.com/TobiSchelling/articlemetrics/internal/input"
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

const (
	maxBodyBytes = 10 << 20
	maxRedirects = 10
)

// ErrDomainSkipped is returned for URLs on a host that already answered
// 429 Too Many Requests during this fetcher's lifetime.
var ErrDomainSkipped = errors.New("domain skipped after rate limit response")

// ErrTooManyRedirects is returned (wrapped) when a URL redirects more than
// ten times.
var ErrTooManyRedirects = errors.New("too many redirects")

// HTTPError is returned for responses with status >= 400.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Options configures a Fetcher.
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	Concurrency       int
	RequestsPerSecond float64
}

// Fetcher downloads pages with browser-like headers. It is safe for
// concurrent use.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	concurrency int
	limiter     *rate.Limiter
	extractor   extract.Extractor

	mu        sync.Mutex
	throttled map[string]struct{}
}

// New creates a Fetcher. A nil extractor defaults to the selector extractor.
func New(opts Options, ex extract.Extractor) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if ex == nil {
		ex = extract.NewSelector("", "")
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("%w: exceeded %d", ErrTooManyRedirects, maxRedirects)
				}
				return nil
			},
		},
		userAgent:   opts.UserAgent,
		concurrency: opts.Concurrency,
		limiter:     rate.NewLimiter(limit, 1),
		extractor:   ex,
		throttled:   make(map[string]struct{}),
	}
}

// Fetch downloads pageURL and returns the response body.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid url %q", pageURL)
	}
	host := strings.ToLower(u.Host)
	if f.isThrottled(host) {
		return "", fmt.Errorf("%s: %w", host, ErrDomainSkipped)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusTooManyRequests {
			f.throttle(host)
		}
		return "", &HTTPError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}
	return string(body), nil
}

// FetchArticle downloads pageURL and runs the extractor over it.
func (f *Fetcher) FetchArticle(ctx context.Context, pageURL string) (*extract.Result, error) {
	body, err := f.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	u, _ := url.Parse(pageURL)
	res, err := f.extractor.Extract(body, u)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", pageURL, err)
	}
	return res, nil
}

// FetchAll fetches every row with bounded concurrency and calls handle once
// per row. handle may be called from several goroutines. FetchAll returns
// early only when ctx is cancelled.
func (f *Fetcher) FetchAll(ctx context.Context, rows []input.Row, handle func(input.Row, *extract.Result, error)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, row := range rows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := f.FetchArticle(gctx, row.URL)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			handle(row, res, err)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (f *Fetcher) isThrottled(host string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.throttled[host]
	return ok
}

func (f *Fetcher) throttle(host string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.throttled[host]; !ok {
		log.Printf("Rate limited by %s, skipping remaining articles from this domain", host)
	}
	f.throttled[host] = struct{}{}
}
