package evidence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"stockscan/internal/model"
)

// Link source defaults.
const (
	// DefaultLinkTimeout bounds one title fetch. Reference pages are
	// ordinary clearnet sites; anything slower is not worth waiting for.
	DefaultLinkTimeout = 10 * time.Second

	// defaultLinkBodyLimit caps how much of a page is read while hunting
	// for the <title> element.
	defaultLinkBodyLimit int64 = 512 * 1024
)

// LinkSource resolves user-supplied reference links (filings,
// announcements, research notes) into titled markdown links attached as
// uploaded-priority evidence. It implements UploadedSource.
//
// Design decision: We use golang.org/x/net/html to extract titles rather
// than regex because it correctly handles malformed markup common on
// financial news sites.
type LinkSource struct {
	links     []string
	client    *http.Client
	userAgent string
	bodyLimit int64
	logger    *slog.Logger
}

// LinkSourceOption configures a LinkSource.
type LinkSourceOption func(*LinkSource)

// WithLinkHTTPClient replaces the HTTP client. Test hook and proxy
// support.
func WithLinkHTTPClient(client *http.Client) LinkSourceOption {
	return func(s *LinkSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithLinkUserAgent sets the User-Agent header for title fetches.
func WithLinkUserAgent(ua string) LinkSourceOption {
	return func(s *LinkSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithLinkSourceLogger sets a custom logger.
func WithLinkSourceLogger(logger *slog.Logger) LinkSourceOption {
	return func(s *LinkSource) {
		s.logger = logger
	}
}

// NewLinkSource creates a LinkSource over the given URLs.
func NewLinkSource(links []string, opts ...LinkSourceOption) *LinkSource {
	s := &LinkSource{
		links:     links,
		client:    &http.Client{Timeout: DefaultLinkTimeout},
		bodyLimit: defaultLinkBodyLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// FetchUploaded resolves each link to a "[title](url)" markdown line.
// A link whose title cannot be fetched falls back to the bare URL rather
// than being dropped, so the analyst's chosen sources always appear in
// the report appendix.
func (s *LinkSource) FetchUploaded(ctx context.Context, company model.Company) ([]model.EvidenceItem, error) {
	if len(s.links) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(s.links))
	for _, link := range s.links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		title, err := s.fetchTitle(ctx, link)
		if err != nil {
			s.logger.Warn("failed to fetch link title",
				"company", company.Name,
				"url", link,
				"error", err,
			)
			title = link
		}
		lines = append(lines, fmt.Sprintf("- [%s](%s)", title, link))
	}

	return []model.EvidenceItem{{
		Source:    model.SourceUploaded,
		Key:       model.FieldReferences,
		Payload:   strings.Join(lines, "\n"),
		FetchedAt: time.Now(),
	}}, nil
}

// fetchTitle downloads the page and returns its <title> text.
func (s *LinkSource) fetchTitle(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort cleanup

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	title, err := extractTitle(io.LimitReader(resp.Body, s.bodyLimit))
	if err != nil {
		return "", err
	}
	if title == "" {
		return "", fmt.Errorf("page has no title")
	}
	return title, nil
}

// extractTitle parses HTML and returns the text of the first <title>
// element.
func extractTitle(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			title = strings.TrimSpace(sb.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, nil
}
