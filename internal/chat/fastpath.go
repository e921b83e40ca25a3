package chat

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ritz-media/chat-service/internal/model"
)

// fmChannelsList is the fixed ranked answer for "top FM channels" queries.
// Hand-curated; generation kept producing unstable orderings for this one.
const fmChannelsList = `Here are the top FM radio channels in India:

1. Radio Mirchi 98.3 FM
2. Red FM 93.5
3. Big FM 92.7
4. Radio City 91.1 FM
5. Fever 104 FM
6. My FM 94.3
7. Radio One 94.3 FM
8. Ishq FM 104.8
9. Radio Nasha 107.2 FM
10. AIR FM Rainbow

We plan and book radio campaigns across all of these. If you'd like to reach listeners on any of them, our team can put together a media plan for you.`

// isFMChannelsQuery reports whether the question asks for a ranking or list
// of FM/radio channels.
func isFMChannelsQuery(question string) bool {
	lower := strings.ToLower(question)
	if !strings.Contains(lower, "fm") && !strings.Contains(lower, "radio") {
		return false
	}
	if !strings.Contains(lower, "channel") && !strings.Contains(lower, "station") {
		return false
	}
	for _, marker := range []string{"top", "best", "list", "leading", "popular"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Plausible founding years: 1900 through 2026.
var yearRe = regexp.MustCompile(`\b(19\d{2}|20[01]\d|202[0-6])\b`)

// isFoundedQuery reports whether the question asks when the company was
// founded or established.
func isFoundedQuery(question string) bool {
	lower := strings.ToLower(question)
	for _, marker := range []string{"founded", "established", "founding year", "start year", "when did", "how old"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// foundedAnswer extracts a founding year from the retrieved documents and
// website context. preferredYear wins when present among the candidates;
// otherwise the earliest plausible year is used. Returns false when no year
// can be found, letting the question fall through to normal generation.
func foundedAnswer(bundle model.ContextBundle, preferredYear string) (string, bool) {
	var corpus strings.Builder
	for _, p := range bundle.Documents {
		corpus.WriteString(p.Text)
		corpus.WriteString("\n")
	}
	corpus.WriteString(bundle.WebContext)

	matches := yearRe.FindAllString(corpus.String(), -1)
	if len(matches) == 0 {
		return "", false
	}

	year := ""
	for _, m := range matches {
		if m == preferredYear {
			year = m
			break
		}
	}
	if year == "" {
		years := make([]int, 0, len(matches))
		for _, m := range matches {
			if y, err := strconv.Atoi(m); err == nil {
				years = append(years, y)
			}
		}
		sort.Ints(years)
		year = strconv.Itoa(years[0])
	}

	return "Ritz Media World was founded in " + year + ".", true
}
