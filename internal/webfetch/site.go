package webfetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ritz-media/chat-service/internal/cache"
	"github.com/ritz-media/chat-service/internal/config"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Pages shorter than this are boilerplate-only and skipped.
	minPageChars = 100

	maxBodyBytes = 512 * 1024
)

// SiteFetcher crawls and caches a fixed external site, extracting passages
// relevant to a question.
type SiteFetcher struct {
	client       *http.Client
	limiter      *rate.Limiter
	maxPages     int
	contentCache *cache.TTLCache
	searchCache  *cache.TTLCache
}

// NewSiteFetcher creates a SiteFetcher from config.
func NewSiteFetcher(cfg config.WebsiteConfig) *SiteFetcher {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 4
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 5
	}
	timeout := time.Duration(cfg.FetchTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &SiteFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		maxPages:     maxPages,
		contentCache: cache.NewTTLCache(cfg.ContentTTL()),
		searchCache:  cache.NewTTLCache(cfg.SearchTTL()),
	}
}

// normalizeSiteURL defaults the scheme to https and strips query + fragment
// so that crawl deduplication and cache keys are stable.
func normalizeSiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawQuery = ""
	return u.String()
}

// Content returns the cached full-site text for siteURL, re-crawling when the
// cache entry is stale or force is set.
func (f *SiteFetcher) Content(ctx context.Context, siteURL string, force bool) string {
	normalized := normalizeSiteURL(siteURL)

	if !force {
		if text, ok := f.contentCache.Get(normalized); ok {
			zap.L().Debug("webfetch: using cached site content", zap.String("url", normalized))
			return text
		}
	}

	zap.L().Info("webfetch: refreshing site content", zap.String("url", normalized))
	text := f.scrape(ctx, normalized)
	f.contentCache.Put(normalized, text)
	return text
}

// Search crawls the site and returns only ±2-line windows around each line
// containing the query. When nothing matches it falls back to the full site
// content: recall over precision.
func (f *SiteFetcher) Search(ctx context.Context, query, siteURL string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	normalized := normalizeSiteURL(siteURL)
	cacheKey := normalized + "\x00" + strings.ToLower(query)

	if text, ok := f.searchCache.Get(cacheKey); ok {
		zap.L().Debug("webfetch: using cached site search", zap.String("query", query))
		return text
	}

	lowerQuery := strings.ToLower(query)
	var sections []string

	for _, link := range f.collectLinks(ctx, normalized) {
		content := f.fetchPage(ctx, link)
		if content == "" || !strings.Contains(strings.ToLower(content), lowerQuery) {
			continue
		}

		windows := matchWindows(content, lowerQuery, 2)
		if len(windows) > 0 {
			sections = append(sections, "\n\n=== From: "+link+" ===\n\n"+strings.Join(windows, "\n"))
		}
	}

	result := strings.Join(sections, "\n")
	if result == "" {
		zap.L().Info("webfetch: no direct site match, falling back to full content", zap.String("query", query))
		result = f.Content(ctx, normalized, false)
	}

	f.searchCache.Put(cacheKey, result)
	return result
}

// matchWindows returns the lines within radius of each line containing query
// (already lower-cased). Windows around adjacent matches may repeat lines,
// matching the recall-first contract.
func matchWindows(content, lowerQuery string, radius int) []string {
	lines := strings.Split(content, "\n")
	var out []string
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), lowerQuery) {
			continue
		}
		start := i - radius
		if start < 0 {
			start = 0
		}
		end := i + radius + 1
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, lines[start:end]...)
	}
	return out
}

// scrape crawls up to maxPages pages and concatenates their text.
func (f *SiteFetcher) scrape(ctx context.Context, siteURL string) string {
	links := f.collectLinks(ctx, siteURL)

	var parts []string
	for i, link := range links {
		zap.L().Debug("webfetch: scraping page",
			zap.Int("page", i+1),
			zap.Int("total", len(links)),
			zap.String("url", link),
		)
		content := f.fetchPage(ctx, link)
		if len(content) > minPageChars {
			parts = append(parts, "\n\n=== Page: "+link+" ===\n\n"+content)
		}
	}

	combined := strings.Join(parts, "\n")
	zap.L().Info("webfetch: site scrape complete",
		zap.String("url", siteURL),
		zap.Int("pages", len(links)),
		zap.Int("chars", len(combined)),
	)
	return combined
}

// collectLinks breadth-first walks the site from its root, staying on the
// same host, skipping fragment-only and mailto links, bounded to maxPages.
func (f *SiteFetcher) collectLinks(ctx context.Context, siteURL string) []string {
	root := normalizeSiteURL(siteURL)
	base, err := url.Parse(root)
	if err != nil {
		zap.L().Warn("webfetch: bad site url", zap.String("url", siteURL), zap.Error(err))
		return nil
	}

	visited := make(map[string]bool)
	queue := []string{root}
	var links []string

	for len(queue) > 0 && len(visited) < f.maxPages {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		links = append(links, current)

		body := f.get(ctx, current)
		if body == "" {
			continue
		}

		for _, href := range extractHrefs(body) {
			if strings.Contains(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
				continue
			}
			resolved, err := url.Parse(href)
			if err != nil {
				continue
			}
			candidate := base.ResolveReference(resolved)
			if candidate.Host != base.Host {
				continue
			}
			if candidate.Scheme != "http" && candidate.Scheme != "https" {
				continue
			}
			candidate.Fragment = ""
			candidate.RawQuery = ""
			normalized := candidate.String()
			if visited[normalized] || queued(queue, normalized) {
				continue
			}
			queue = append(queue, normalized)
		}
	}

	if len(links) > f.maxPages {
		links = links[:f.maxPages]
	}
	return links
}

func queued(queue []string, u string) bool {
	for _, q := range queue {
		if q == u {
			return true
		}
	}
	return false
}

// extractHrefs pulls href attribute values from raw HTML.
func extractHrefs(html string) []string {
	var hrefs []string
	idx := 0
	for {
		pos := strings.Index(html[idx:], `href="`)
		if pos == -1 {
			break
		}
		idx += pos + 6
		end := strings.Index(html[idx:], `"`)
		if end == -1 {
			break
		}
		hrefs = append(hrefs, html[idx:idx+end])
		idx += end + 1
	}
	return hrefs
}

// fetchPage fetches one page and reduces it to clean text. Errors are logged
// and yield "": a failed page is a skipped page, not a failed request.
func (f *SiteFetcher) fetchPage(ctx context.Context, pageURL string) string {
	body := f.get(ctx, pageURL)
	if body == "" {
		return ""
	}
	return pageText(body)
}

// get performs one rate-limited GET, returning "" on any failure.
func (f *SiteFetcher) get(ctx context.Context, rawURL string) string {
	if err := f.limiter.Wait(ctx); err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		zap.L().Warn("webfetch: create request", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		zap.L().Warn("webfetch: fetch failed", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("webfetch: non-200 page skipped",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
		)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		zap.L().Warn("webfetch: read body", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	return string(body)
}
