package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog/log"

	"github.com/TobiSchelling/lightnote/internal/journal"
)

// ClipPrefix marks entries clipped from a web page.
const ClipPrefix = "clip:"

const minClipChars = 100

// Clipper fetches a web page and keeps its readable text as an entry.
type Clipper struct {
	importer *Importer
	client   *http.Client
}

// NewClipper creates a Clipper. A zero timeout means 15 seconds.
func NewClipper(importer *Importer, timeout time.Duration) *Clipper {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Clipper{
		importer: importer,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Clip stores the page at pageURL as one entry with ID "clip:<url>".
func (c *Clipper) Clip(ctx context.Context, pageURL string) (*journal.Entry, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "lightnote/1.0 (journal clipper)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: %s", pageURL, http.StatusText(resp.StatusCode))
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", pageURL, err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) < minClipChars {
		return nil, fmt.Errorf("no extractable content from %s", pageURL)
	}
	if title := strings.TrimSpace(article.Title); title != "" && !strings.HasPrefix(text, title) {
		text = title + ". " + text
	}

	e := journal.Entry{ID: ClipPrefix + pageURL, Text: text, CreatedAt: c.importer.now()}
	stored, _, err := c.importer.store1(ctx, e)
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("Clipped %s", pageURL)
	return &stored, nil
}
