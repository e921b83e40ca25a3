package chat

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritz-media/chat-service/internal/model"
)

func TestFlushWords(t *testing.T) {
	emit, rest := flushWords("hello wor")
	assert.Equal(t, "hello ", emit)
	assert.Equal(t, "wor", rest)

	emit, rest = flushWords("nospace")
	assert.Equal(t, "", emit)
	assert.Equal(t, "nospace", rest)

	emit, rest = flushWords("ends with space ")
	assert.Equal(t, "ends with space ", emit)
	assert.Equal(t, "", rest)

	emit, rest = flushWords("line\nbreak mid")
	assert.Equal(t, "line\nbreak ", emit)
	assert.Equal(t, "mid", rest)
}

func TestFlushWordsMultiByteWhitespace(t *testing.T) {
	// Model output can carry non-breaking or thin spaces; the cut must land
	// on a rune boundary so both halves stay valid UTF-8.
	for _, space := range []string{" ", " ", " "} {
		buf := "hello" + space + "world"
		emit, rest := flushWords(buf)
		assert.Equal(t, "hello"+space, emit)
		assert.Equal(t, "world", rest)
		assert.True(t, utf8.ValidString(emit))
		assert.True(t, utf8.ValidString(rest))
	}
}

func TestWordChunksReassemble(t *testing.T) {
	text := "Here are the top FM radio channels in India."
	chunks := wordChunks(text)
	assert.Greater(t, len(chunks), 1)
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestLooksTruncated(t *testing.T) {
	assert.True(t, looksTruncated("This answer just stops mid"))
	assert.False(t, looksTruncated("This one finishes properly."))
	assert.False(t, looksTruncated("Quoted ending works too!\""))
	assert.False(t, looksTruncated("Does a question count?"))

	// Long answers are never flagged, even without terminal punctuation.
	long := strings.Repeat("word ", 60)
	require.GreaterOrEqual(t, len(long), truncationLength)
	assert.False(t, looksTruncated(long))
}

func TestBuildPromptSelectsTemplate(t *testing.T) {
	question := "who are the leading agencies"

	_, user := buildPrompt(question, model.ContextBundle{ExternalContext: "- result"}, "p", "e")
	assert.Contains(t, user, "authoritative")
	assert.Contains(t, user, "- result")

	_, user = buildPrompt(question, model.ContextBundle{WebContext: "site text"}, "p", "e")
	assert.Contains(t, user, "priority order")
	assert.Contains(t, user, "site text")

	system, user := buildPrompt(question, model.ContextBundle{
		Documents: []model.Passage{{Text: "doc text", Source: "brochure.pdf"}},
	}, "+91-1", "x@y.com")
	assert.Contains(t, user, "doc text")
	assert.Contains(t, user, "brochure.pdf")
	assert.NotContains(t, user, "priority order")
	assert.Contains(t, system, "Ruby")
	assert.Contains(t, system, "+91-1")
	assert.Contains(t, system, "x@y.com")
}

func TestIsFMChannelsQuery(t *testing.T) {
	assert.True(t, isFMChannelsQuery("Tell me about top FM channels in India"))
	assert.True(t, isFMChannelsQuery("best radio stations for ads"))
	assert.False(t, isFMChannelsQuery("how does FM transmission work"))
	assert.False(t, isFMChannelsQuery("top print publications"))
}

func TestFoundedAnswerPrefersKnownYear(t *testing.T) {
	bundle := model.ContextBundle{
		Documents: []model.Passage{{Text: "Growing since 2015, originally set up in 2008."}},
	}
	text, ok := foundedAnswer(bundle, "2008")
	require.True(t, ok)
	assert.Equal(t, "Ritz Media World was founded in 2008.", text)
}

func TestFoundedAnswerEarliestWithoutPreferred(t *testing.T) {
	bundle := model.ContextBundle{WebContext: "milestones: 2019, 2012, 2021"}
	text, ok := foundedAnswer(bundle, "2008")
	require.True(t, ok)
	assert.Contains(t, text, "2012")
}

func TestFoundedAnswerIgnoresImplausibleYears(t *testing.T) {
	bundle := model.ContextBundle{WebContext: "reference codes 1776 and 2099 only"}
	_, ok := foundedAnswer(bundle, "2008")
	assert.False(t, ok)
}

func TestCleanInternalAnswer(t *testing.T) {
	marks := []string{"not listed"}

	assert.Empty(t, cleanInternalAnswer("I'm sorry, I can't help with that.", marks),
		"failure boilerplate drops the whole answer")
	assert.Empty(t, cleanInternalAnswer("These are **great** options.", marks),
		"markdown emphasis drops the whole answer")

	out := cleanInternalAnswer("Radio works well. That channel is not listed here. Print works too.", marks)
	assert.Contains(t, out, "Radio works well")
	assert.Contains(t, out, "Print works too")
	assert.NotContains(t, out, "not listed")
}

func TestExtractTitles(t *testing.T) {
	results := "- First Title\n  snippet one\n  Source: a\n- Second Title\n  snippet two\n  Source: b\n- Third\n- Fourth"
	titles := extractTitles(results, 2)
	assert.Equal(t, []string{"First Title", "Second Title"}, titles)
}

func TestJoinNames(t *testing.T) {
	assert.Equal(t, "A", joinNames([]string{"A"}))
	assert.Equal(t, "A and B", joinNames([]string{"A", "B"}))
	assert.Equal(t, "A, B, and C", joinNames([]string{"A", "B", "C"}))
}
