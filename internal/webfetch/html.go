// Package webfetch gathers question context from the live website and from
// general web search engines. All fetchers degrade to empty results on
// failure; they log, they never propagate network errors.
package webfetch

import (
	"regexp"
	"strings"
)

var (
	chromeTagRe = map[string]*regexp.Regexp{}
	blockEndRe  = regexp.MustCompile(`(?i)<(?:br|/p|/div|/li|/h[1-6]|/tr)[^>]*>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	spaceRe     = regexp.MustCompile(`[ \t]+`)
)

func init() {
	// Page chrome carries no answerable content.
	for _, tag := range []string{"script", "style", "nav", "footer", "header"} {
		chromeTagRe[tag] = regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
	}
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// pageText strips chrome blocks and markup from HTML and collapses the rest
// to non-blank lines suitable for substring search.
func pageText(html string) string {
	for _, re := range chromeTagRe {
		html = re.ReplaceAllString(html, "")
	}

	// Keep block boundaries as newlines so line windows stay meaningful.
	html = blockEndRe.ReplaceAllString(html, "\n")
	html = tagRe.ReplaceAllString(html, " ")
	html = entityReplacer.Replace(html)

	var lines []string
	for _, line := range strings.Split(html, "\n") {
		line = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// inlineText flattens an HTML fragment (a link label, a snippet) to one line.
func inlineText(html string) string {
	html = tagRe.ReplaceAllString(html, " ")
	html = entityReplacer.Replace(html)
	return strings.TrimSpace(spaceRe.ReplaceAllString(html, " "))
}
