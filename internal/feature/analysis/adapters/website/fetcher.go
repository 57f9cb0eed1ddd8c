// Package website extracts readable metadata from a company's web site.
package website

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	apphttp "company_analyzer/internal/platform/http"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 2 << 20
)

// Page is the readable summary of a fetched page.
type Page struct {
	URL      string
	Title    string
	SiteName string
	Excerpt  string
}

// Fetcher downloads pages and runs them through readability.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher using client. When client is nil the Fetcher
// only connects to public addresses, since site URLs come from model answers.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = apphttp.NewPublicHTTPClient(DefaultTimeout)
	}
	return &Fetcher{client: client}
}

// Fetch downloads rawURL and extracts its title, site name and excerpt.
// A URL without scheme is fetched over https.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := normalize(rawURL)
	if err != nil {
		return Page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", apphttp.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetch %s: unexpected status %d", u, resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Request.URL)
	if err != nil {
		return Page{}, fmt.Errorf("parse %s: %w", u, err)
	}
	return Page{
		URL:      resp.Request.URL.String(),
		Title:    strings.TrimSpace(article.Title),
		SiteName: strings.TrimSpace(article.SiteName),
		Excerpt:  strings.TrimSpace(article.Excerpt),
	}, nil
}

func normalize(rawURL string) (*url.URL, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}
	return u, nil
}
