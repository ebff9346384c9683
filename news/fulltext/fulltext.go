// Package fulltext fetches an article page and extracts its readable body.
package fulltext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

// ErrNotHTML is returned for responses that are not HTML pages.
var ErrNotHTML = errors.New("not an html page")

const maxBody = 4 << 20

// Fetcher downloads pages over plain HTTP and runs readability extraction.
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string
	MaxChars   int // extracted text is cut to this many runes, 0 keeps everything
}

func New(timeout time.Duration, maxChars int) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  "newsagent/1.0",
		MaxChars:   maxChars,
	}
}

// Fetch returns the main text of the page at link.
func (f *Fetcher) Fetch(ctx context.Context, link string) (string, error) {
	pageURL, err := url.Parse(link)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return "", fmt.Errorf("invalid url %q", link)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", link, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", ErrNotHTML
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBody), pageURL)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", link, err)
	}
	text := strings.Join(strings.Fields(article.TextContent), " ")
	if f.MaxChars > 0 && utf8.RuneCountInString(text) > f.MaxChars {
		text = string([]rune(text)[:f.MaxChars])
	}
	return text, nil
}
