package webfetch

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/cache"
	"github.com/ritz-media/chat-service/internal/config"
	"github.com/ritz-media/chat-service/internal/resilience"
)

// WebSearcher queries a general search engine with a secondary engine as
// fallback, extracting structured "- title / snippet / source" rows.
type WebSearcher struct {
	client      *http.Client
	primaryURL  string
	fallbackURL string
	keywords    []string
	maxResults  int
	retry       resilience.RetryConfig
	cache       *cache.TTLCache
}

// NewWebSearcher creates a WebSearcher from config.
func NewWebSearcher(cfg config.SearchConfig) *WebSearcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.Retries + 1
	retry.OnRetry = func(attempt int, err error) {
		zap.L().Warn("webfetch: retrying search fetch",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return &WebSearcher{
		client:      &http.Client{Timeout: timeout},
		primaryURL:  cfg.PrimaryBaseURL,
		fallbackURL: cfg.FallbackBaseURL,
		keywords:    cfg.RelevanceKeywords,
		maxResults:  maxResults,
		retry:       retry,
		cache:       cache.NewTTLCache(cfg.TTL()),
	}
}

// SearchGeneral queries the primary engine, falling back to the secondary
// when no rows can be extracted. Results are cached per normalized query.
// Any failure yields an empty string.
func (s *WebSearcher) SearchGeneral(ctx context.Context, query string, maxResults int) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	if maxResults <= 0 || maxResults > s.maxResults {
		maxResults = s.maxResults
	}

	cacheKey := strings.ToLower(query)
	if cached, ok := s.cache.Get(cacheKey); ok {
		zap.L().Debug("webfetch: using cached external search", zap.String("query", query))
		return cached
	}

	combined := s.searchPrimary(ctx, query, maxResults)
	if combined == "" {
		// Markup change or anti-bot block on the primary engine.
		zap.L().Info("webfetch: primary search empty, trying fallback engine", zap.String("query", query))
		combined = s.searchFallback(ctx, query, maxResults)
	}

	s.cache.Put(cacheKey, combined)
	return combined
}

var (
	ddgAnchorRe  = regexp.MustCompile(`(?is)<a[^>]*class="[^"]*result__a[^"]*"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	ddgSnippetRe = regexp.MustCompile(`(?is)<[a-z]+[^>]*class="[^"]*result__snippet[^"]*"[^>]*>(.*?)</[a-z]+>`)
)

// searchPrimary extracts result rows from the DuckDuckGo HTML endpoint.
func (s *WebSearcher) searchPrimary(ctx context.Context, query string, maxResults int) string {
	body := s.get(ctx, s.primaryURL+"?"+url.Values{"q": {query}}.Encode())
	if body == "" {
		return ""
	}

	anchors := ddgAnchorRe.FindAllStringSubmatchIndex(body, maxResults)

	var rows []string
	for i, loc := range anchors {
		href := body[loc[2]:loc[3]]
		title := inlineText(body[loc[4]:loc[5]])
		if title == "" {
			continue
		}

		// The snippet belongs to the same result block, so look only
		// between this anchor and the next; a result without a snippet
		// must not steal its neighbor's.
		segEnd := len(body)
		if i+1 < len(anchors) {
			segEnd = anchors[i+1][0]
		}
		desc := ""
		if m := ddgSnippetRe.FindStringSubmatch(body[loc[1]:segEnd]); m != nil {
			desc = inlineText(m[1])
		}
		rows = append(rows, "- "+title+"\n  "+desc+"\n  Source: "+strings.TrimSpace(href))
	}
	return strings.Join(rows, "\n")
}

var (
	bingItemRe    = regexp.MustCompile(`(?is)<li class="b_algo[^"]*".*?</li>`)
	bingAnchorRe  = regexp.MustCompile(`(?is)<h2[^>]*>\s*<a[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	bingSnippetRe = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
)

// searchFallback extracts rows from Bing, filtered by the relevance keyword
// list to suppress the fallback engine's noisier results.
func (s *WebSearcher) searchFallback(ctx context.Context, query string, maxResults int) string {
	body := s.get(ctx, s.fallbackURL+"?"+url.Values{"q": {query}, "setlang": {"en"}}.Encode())
	if body == "" {
		return ""
	}

	items := bingItemRe.FindAllString(body, maxResults)

	var rows []string
	for _, item := range items {
		link := bingAnchorRe.FindStringSubmatch(item)
		if link == nil {
			continue
		}
		title := inlineText(link[2])
		href := decodeBingRedirect(strings.TrimSpace(link[1]))

		desc := ""
		if m := bingSnippetRe.FindStringSubmatch(item); m != nil {
			desc = inlineText(m[1])
		}

		if !s.relevant(title + " " + desc) {
			continue
		}
		rows = append(rows, "- "+title+"\n  "+desc+"\n  Source: "+href)
	}
	return strings.Join(rows, "\n")
}

// relevant reports whether text matches at least one relevance keyword.
// With no keywords configured everything passes.
func (s *WebSearcher) relevant(text string) bool {
	if len(s.keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, k := range s.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// decodeBingRedirect unwraps Bing's /ck/a redirect URLs back to the direct
// target. Best effort: on any decode failure the wrapped URL is kept.
func decodeBingRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if !strings.Contains(parsed.Host, "bing.com") || !strings.HasPrefix(parsed.Path, "/ck/a") {
		return href
	}

	target := parsed.Query().Get("u")
	if !strings.HasPrefix(target, "a1") {
		return href
	}

	payload := target[2:]
	if pad := len(payload) % 4; pad != 0 {
		payload += strings.Repeat("=", 4-pad)
	}

	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		if decoded, err = base64.StdEncoding.DecodeString(payload); err != nil {
			return href
		}
	}
	if direct := string(decoded); strings.HasPrefix(direct, "http") {
		return direct
	}
	return href
}

// get performs one GET with retry on transient failures, returning "" on
// any final failure.
func (s *WebSearcher) get(ctx context.Context, rawURL string) string {
	var body string

	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("webfetch: search engine status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return resilience.NewTransientError(err, resp.StatusCode)
			}
			return err
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return err
		}
		body = string(b)
		return nil
	})
	if err != nil {
		zap.L().Warn("webfetch: external search failed", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	return body
}
