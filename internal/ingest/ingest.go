// Package ingest implements C3: turning one RSS/Atom feed into persisted
// articles. Each feed is parsed with gofeed, capped at 20 entries (fetcher.py's
// per-feed cap), canonicalized, deduplicated against the store by URL, and
// given a body through a fallback chain: entry content/summary first, a
// goquery-selected body element of the fetched page second, the entry
// summary third, and the page's cleaned whole-document text last. When a
// page was fetched, its raw HTML is also stored, capped at 100,000
// characters.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/mkolb22/k8s-news-engine/internal/errs"
	"github.com/mkolb22/k8s-news-engine/internal/models"
	"github.com/mkolb22/k8s-news-engine/internal/store"
)

const (
	maxEntriesPerFeed = 20
	maxBodyChars      = 50_000
	maxRawHTMLChars   = 100_000
	userAgent         = "k8s-news-engine/1.0 (+https://github.com/mkolb22/k8s-news-engine)"
)

// Service fetches and persists articles for one feed at a time. It is
// injected into the scheduler as an Ingester.
type Service struct {
	store  *store.Store
	parser *gofeed.Parser
	client *http.Client
	log    zerolog.Logger
}

// NewService builds an ingester with a fresh gofeed parser and an HTTP
// client with a bounded timeout, matching the teacher's rss.Service shape.
func NewService(st *store.Store, log zerolog.Logger) *Service {
	return &Service{
		store:  st,
		parser: gofeed.NewParser(),
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log.With().Str("component", "ingest").Logger(),
	}
}

// FetchFeed downloads and parses one feed, ingesting up to 20 new
// articles. Returns the count of newly inserted articles.
func (s *Service) FetchFeed(ctx context.Context, feed models.Feed) (int, error) {
	parsed, err := s.parseWithRetry(ctx, feed.URL)
	if err != nil {
		return 0, errs.New(errs.KindTransientNetwork, "ingest.FetchFeed", err)
	}

	entries := parsed.Items
	if len(entries) > maxEntriesPerFeed {
		entries = entries[:maxEntriesPerFeed]
	}

	inserted := 0
	for _, item := range entries {
		canonicalURL, err := canonicalizeURL(item.Link)
		if err != nil {
			s.log.Warn().Err(err).Str("link", item.Link).Msg("skipping entry with unparseable URL")
			continue
		}

		article := models.Article{
			URL:        canonicalURL,
			OutletName: feed.OutletName,
			Title:      strings.TrimSpace(item.Title),
			FetchedAt:  time.Now().UTC(),
			FeedID:     feed.ID,
		}
		if item.Author != nil && item.Author.Name != "" {
			author := cleanAuthor(item.Author.Name)
			article.Author = &author
		}
		if item.PublishedParsed != nil {
			t := item.PublishedParsed.UTC()
			article.PublishedAt = &t
		}

		body, rawHTML := s.extractBody(ctx, item, canonicalURL)
		article.Text = truncate(body, maxBodyChars)
		if rawHTML != "" {
			capped := truncate(rawHTML, maxRawHTMLChars)
			article.RawHTML = &capped
		}

		_, isNew, err := s.store.UpsertArticleByURL(ctx, article)
		if err != nil {
			s.log.Error().Err(err).Str("url", canonicalURL).Msg("upserting article")
			continue
		}
		if isNew {
			inserted++
		}
	}

	return inserted, nil
}

// parseWithRetry tries ParseURLWithContext twice more after an initial
// failure, backing off 1s then 2s, matching the spec's 2-retry policy.
// Each attempt has a 5s timeout; a 4xx response ends the retries at once.
func (s *Service) parseWithRetry(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt <= 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		attemptCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		feed, err := s.parser.ParseURLWithContext(feedURL, attemptCtx)
		cancel()
		if err == nil {
			return feed, nil
		}
		lastErr = err
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return nil, err
		}
	}
	return nil, lastErr
}

// extractBody returns the article body text and, where a live page fetch
// happened, the capped raw HTML. It tries, in order: the feed entry's full
// content, the feed entry's summary/description, then a live page fetch
// with goquery selector extraction, then the entry summary however short,
// and finally the fetched page's whole text with scripts and styles removed.
func (s *Service) extractBody(ctx context.Context, item *gofeed.Item, pageURL string) (body, rawHTML string) {
	if clean := stripHTML(item.Content); len(clean) > 200 {
		return clean, ""
	}
	if clean := stripHTML(item.Description); len(clean) > 200 {
		return clean, ""
	}

	html, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		s.log.Debug().Err(err).Str("url", pageURL).Msg("falling back to feed summary, page fetch failed")
		return stripHTML(item.Description), ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return stripHTML(item.Description), html
	}

	for _, sel := range contentSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); len(text) > 200 {
			return collapseWhitespace(text), html
		}
	}
	if summary := stripHTML(item.Description); summary != "" {
		return summary, html
	}
	doc.Find("script, style").Remove()
	return collapseWhitespace(doc.Text()), html
}

func (s *Service) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("page fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*maxRawHTMLChars))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// canonicalizeURL lowercases the scheme/host, drops fragments and common
// tracking query parameters, and strips a trailing slash, so the same
// story reached through different tracking links dedupes to one row.
func canonicalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid article URL %q", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || lower == "ref" || lower == "fbclid" || lower == "gclid" {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}

func cleanAuthor(name string) string {
	name = strings.TrimSpace(name)
	if authorStopWords[name] {
		return ""
	}
	return name
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
