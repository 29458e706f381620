// Package web provides a page fetcher that turns live web pages into
// clean markdown text.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/custodia-labs/websearch-cli/internal/core/domain"
	"github.com/custodia-labs/websearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/websearch-cli/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxBody   = 4 << 20 // 4 MiB of HTML is plenty for any article
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	// Pages shorter than minPageChars carry no extractable article.
	minPageChars = 400

	// Pages shorter than junkScanChars are additionally screened for
	// interstitial markers (consent walls, bot checks).
	junkScanChars = 550
)

// removeSelectors name the elements stripped before text extraction.
var removeSelectors = []string{
	"script", "style", "noscript", "iframe", "svg", "form", "button",
	"header", "footer", "nav", "aside",
	".advertisement", ".ad", ".sidebar", ".comments", ".cookie-banner",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
}

// junkMarkers flag short pages that are interstitials rather than content.
var junkMarkers = []string{
	"enable javascript",
	"javascript is disabled",
	"enable cookies",
	"accept cookies",
	"verify you are human",
	"are you a robot",
	"access denied",
	"captcha",
}

var whitespaceRe = regexp.MustCompile(`\n{3,}`)

// Config holds configuration for the web fetcher.
type Config struct {
	// UserAgent is sent with every request (default: a desktop browser UA).
	UserAgent string

	// MaxBodyBytes caps how much of a response is read (default: 4 MiB).
	MaxBodyBytes int64
}

// Fetcher retrieves pages over HTTP and reduces them to markdown.
// Failures are reported in-band through the document status, never as
// an error, so one dead page cannot abort a batch.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// New creates a web fetcher. The per-request timeout is supplied per
// call, so the underlying client carries none.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBody
	}
	return &Fetcher{
		client:    &http.Client{},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
	}
}

// Fetch retrieves one page within the timeout and extracts its text.
func (f *Fetcher) Fetch(ctx context.Context, url string, timeout time.Duration) domain.Document {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	doc := domain.Document{
		ID:        uuid.NewString(),
		URL:       url,
		Status:    domain.FetchFailed,
		FetchedAt: time.Now(),
	}

	title, text, err := f.extract(ctx, url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			doc.Status = domain.FetchTimeout
			logger.Debug("Fetch timed out: %s", url)
		} else {
			logger.Debug("Fetch failed: %s: %v", url, err)
		}
		return doc
	}

	doc.Title = title
	doc.Text = text
	doc.Status = domain.FetchOK
	return doc
}

func (f *Fetcher) extract(ctx context.Context, url string) (title, text string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text/plain") {
		return "", "", fmt.Errorf("unsupported content type %q", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}

	return extractText(string(body))
}

// extractText strips navigation chrome from the HTML and converts the
// remainder to markdown. Pages too short to be articles, or carrying
// interstitial markers, count as failures.
func extractText(html string) (title, text string, err error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}

	title = strings.TrimSpace(gq.Find("title").First().Text())
	if title == "" {
		if og, ok := gq.Find("meta[property='og:title']").First().Attr("content"); ok {
			title = strings.TrimSpace(og)
		}
	}

	gq.Find(strings.Join(removeSelectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	content := gq.Find("article, main, #content").First()
	if content.Length() == 0 {
		content = gq.Find("body")
	}

	inner, err := content.Html()
	if err != nil {
		return "", "", fmt.Errorf("render content: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(inner)
	if err != nil {
		// Markdown conversion is best-effort; plain text still chunks fine.
		md = content.Text()
	}

	md = strings.TrimSpace(whitespaceRe.ReplaceAllString(md, "\n\n"))

	if isJunkPage(md) {
		return "", "", fmt.Errorf("no extractable content (%d chars)", len(md))
	}

	return title, md, nil
}

// isJunkPage screens out pages whose text is too short to be an
// article, or short enough that interstitial markers dominate it.
func isJunkPage(text string) bool {
	if len(text) < minPageChars {
		return true
	}
	if len(text) >= junkScanChars {
		return false
	}
	lower := strings.ToLower(text)
	for _, marker := range junkMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
