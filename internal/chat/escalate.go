package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/pkg/claude"
)

const maxExtractedNames = 8
const maxFallbackTitles = 6

const noReliableInfoAnswer = "I'm sorry, I could not find enough reliable information to answer that confidently. " +
	"Our team would be happy to help directly: please reach out and we'll get you a proper answer."

// needsEscalation reports whether the generated answer contains any of the
// configured low-confidence marker phrases.
func (s *Service) needsEscalation(answer string) bool {
	lower := strings.ToLower(answer)
	for _, mark := range s.lowConfidenceMarks {
		if strings.Contains(lower, strings.ToLower(mark)) {
			return true
		}
	}
	return false
}

// escalate re-answers the question with external web search and merges the
// result with the internal answer into one professional response.
func (s *Service) escalate(ctx context.Context, question, internalAnswer string) string {
	lower := strings.ToLower(question)
	agencyQuery := strings.Contains(lower, "agency") || strings.Contains(lower, "agencies") || strings.Contains(lower, "media")

	results := s.external.SearchGeneral(ctx, question, s.maxSearchResults)
	if agencyQuery {
		extra := s.external.SearchGeneral(ctx, question+" company names list", s.maxSearchResults)
		if extra != "" {
			if results != "" {
				results += "\n"
			}
			results += extra
		}
	}

	cleaned := cleanInternalAnswer(internalAnswer, s.lowConfidenceMarks)

	if results == "" {
		if cleaned != "" {
			return cleaned
		}
		return noReliableInfoAnswer
	}

	var names []string
	if agencyQuery {
		names = s.extractNames(ctx, results)
		if len(names) == 0 {
			names = s.fallbackAgencyNames
			zap.L().Info("chat: name extraction empty, using fallback agency list")
		}
	}

	var tail string
	switch {
	case len(names) > 0:
		tail = "Some well-known names in this space include " + joinNames(names) + "."
	default:
		titles := extractTitles(results, maxFallbackTitles)
		if len(titles) > 0 {
			tail = "Here's what I found: " + joinNames(titles) + "."
		}
	}

	switch {
	case cleaned != "" && tail != "":
		return cleaned + "\n\n" + tail
	case tail != "":
		return tail
	case cleaned != "":
		return cleaned
	default:
		return noReliableInfoAnswer
	}
}

// extractNames runs one constrained generation call that pulls explicit
// company names out of the search snippets. Names must appear verbatim in
// the snippets; anything else is discarded.
func (s *Service) extractNames(ctx context.Context, results string) []string {
	extractionTemp := 0.0
	resp, err := s.llm.CreateMessage(ctx, claude.MessageRequest{
		Model:       s.model,
		MaxTokens:   256,
		Temperature: &extractionTemp,
		Messages: []claude.Message{{
			Role: "user",
			Content: "Extract the names of companies or agencies explicitly mentioned in the search results below. " +
				"Output at most 8 names, one per line, nothing else. Only output names that appear verbatim in the text.\n\n" +
				results,
		}},
	})
	if err != nil {
		zap.L().Warn("chat: name extraction call failed", zap.Error(err))
		return nil
	}

	lowerResults := strings.ToLower(results)
	var names []string
	for _, line := range strings.Split(resp.Text(), "\n") {
		name := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if name == "" {
			continue
		}
		// Verbatim check keeps hallucinated names out.
		if !strings.Contains(lowerResults, strings.ToLower(name)) {
			continue
		}
		names = append(names, name)
		if len(names) >= maxExtractedNames {
			break
		}
	}
	return names
}

// cleanInternalAnswer drops the internal answer entirely when it carries
// failure boilerplate or markdown emphasis, and strips any low-confidence
// marker sentences otherwise so the marker never reaches the user.
func cleanInternalAnswer(answer string, marks []string) string {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	for _, boiler := range []string{"i'm sorry", "i am sorry", "i apologize", "as an ai", "**"} {
		if strings.Contains(lower, boiler) {
			return ""
		}
	}

	var kept []string
	for _, sentence := range strings.Split(trimmed, ". ") {
		lowerSentence := strings.ToLower(sentence)
		flagged := false
		for _, mark := range marks {
			if strings.Contains(lowerSentence, strings.ToLower(mark)) {
				flagged = true
				break
			}
		}
		if !flagged {
			kept = append(kept, sentence)
		}
	}
	out := strings.TrimSpace(strings.Join(kept, ". "))
	if out != "" && !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out
}

// extractTitles pulls result titles out of the "- title" rows of a search
// result block.
func extractTitles(results string, limit int) []string {
	var titles []string
	for _, line := range strings.Split(results, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		title := strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if title == "" {
			continue
		}
		titles = append(titles, title)
		if len(titles) >= limit {
			break
		}
	}
	return titles
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
