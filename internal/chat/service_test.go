package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritz-media/chat-service/internal/cache"
	"github.com/ritz-media/chat-service/internal/config"
	"github.com/ritz-media/chat-service/internal/intent"
	"github.com/ritz-media/chat-service/internal/model"
	"github.com/ritz-media/chat-service/pkg/claude"
)

// fakeLLM pops scripted responses per call and records what it was asked.
type fakeLLM struct {
	responses []string
	err       error
	calls     int
	lastUser  string
	lastTemp  *float64
}

func (f *fakeLLM) CreateMessage(_ context.Context, req claude.MessageRequest) (*claude.MessageResponse, error) {
	f.calls++
	f.lastTemp = req.Temperature
	if len(req.Messages) > 0 {
		f.lastUser = req.Messages[len(req.Messages)-1].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	text := "Here's what I can tell you about that."
	if len(f.responses) > 0 {
		text = f.responses[0]
		f.responses = f.responses[1:]
	}
	return &claude.MessageResponse{
		Content: []claude.ContentBlock{{Type: "text", Text: text}},
	}, nil
}

func (f *fakeLLM) StreamMessage(_ context.Context, req claude.MessageRequest) (claude.TextStream, error) {
	f.calls++
	f.lastTemp = req.Temperature
	if len(req.Messages) > 0 {
		f.lastUser = req.Messages[len(req.Messages)-1].Content
	}
	if f.err != nil {
		return nil, f.err
	}
	text := "Streaming answer for you."
	if len(f.responses) > 0 {
		text = f.responses[0]
		f.responses = f.responses[1:]
	}
	return &scriptedStream{fragments: strings.SplitAfter(text, " ")}, nil
}

type scriptedStream struct {
	fragments []string
	idx       int
}

func (s *scriptedStream) Next() bool {
	if s.idx < len(s.fragments) {
		s.idx++
		return true
	}
	return false
}

func (s *scriptedStream) Text() string { return s.fragments[s.idx-1] }
func (s *scriptedStream) Err() error   { return nil }
func (s *scriptedStream) Close() error { return nil }

type fakeRetriever struct {
	passages []model.Passage
	calls    int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ int) []model.Passage {
	f.calls++
	return f.passages
}

type fakeSite struct {
	content string
	calls   int
}

func (f *fakeSite) Search(_ context.Context, _, _ string) string {
	f.calls++
	return f.content
}

type fakeExternal struct {
	results string
	queries []string
}

func (f *fakeExternal) SearchGeneral(_ context.Context, query string, _ int) string {
	f.queries = append(f.queries, query)
	return f.results
}

func testConfig() *config.Config {
	return &config.Config{
		Claude: config.ClaudeConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024, Temperature: 0.4},
		Index:  config.IndexConfig{TopK: 3},
		Website: config.WebsiteConfig{
			URL: "https://ritzmediaworld.com",
		},
		Search: config.SearchConfig{MaxResults: 5},
		Chat: config.ChatConfig{
			RequestTimeoutSecs:  12,
			AnswerCacheSize:     50,
			LowConfidenceMarks:  []string{"not listed", "cannot provide a specific list", "i couldn't find"},
			ExternalMarks:       []string{"in delhi", "in india", "list of", "agencies", "top 10"},
			FallbackAgencyNames: []string{"Madison World", "GroupM", "Dentsu India"},
			FoundingYear:        "2008",
		},
		Contact: config.ContactConfig{Phone: "+91-7290002168", Email: "info@ritzmediaworld.com"},
	}
}

func newTestService(t *testing.T, llm claude.Client, ret *fakeRetriever, site *fakeSite, ext *fakeExternal) *Service {
	t.Helper()
	tables, err := intent.LoadTables()
	require.NoError(t, err)

	cfg := testConfig()
	return NewService(cfg, Deps{
		Classifier: intent.NewClassifier(tables, cfg.Chat.ExternalMarks),
		Retriever:  ret,
		Site:       site,
		External:   ext,
		LLM:        llm,
	})
}

func TestAnswerSubServiceFastPath(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "What is SEO?"})
	assert.Equal(t, "sub_service", resp.Intent)
	assert.False(t, resp.ShowLeadForm)
	assert.NotEmpty(t, resp.Answer)
	assert.Zero(t, llm.calls, "intent answers must bypass generation")
}

func TestAnswerPricingOpensLeadForm(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "How much does web development cost?"})
	assert.Equal(t, "pricing_contact", resp.Intent)
	assert.True(t, resp.ShowLeadForm)
	assert.Zero(t, llm.calls)
}

func TestAnswerRestricted(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "Can you recommend good alcohol brands for a party?"})
	assert.Equal(t, "restricted", resp.Intent)
	assert.False(t, resp.ShowLeadForm)
	assert.Zero(t, llm.calls)
}

func TestAnswerFMChannelsFastPath(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "Tell me about top FM channels in India"})
	assert.Contains(t, resp.Answer, "Radio Mirchi 98.3 FM")
	assert.Contains(t, resp.Answer, "AIR FM Rainbow")
	assert.Zero(t, llm.calls, "deterministic fast path must bypass generation")
}

func TestAnswerFoundedFastPath(t *testing.T) {
	llm := &fakeLLM{}
	ret := &fakeRetriever{passages: []model.Passage{
		{Text: "Ritz Media World, started in 2008, has grown steadily since 2015.", Source: "profile.pdf"},
	}}
	svc := newTestService(t, llm, ret, &fakeSite{}, &fakeExternal{})

	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "When was Ritz Media World founded?"})
	assert.Equal(t, "Ritz Media World was founded in 2008.", resp.Answer)
	assert.Zero(t, llm.calls)
}

func TestAnswerFoundedFallsThroughWithoutYear(t *testing.T) {
	llm := &fakeLLM{responses: []string{"We've been around for a while now, serving brands across India."}}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "When was the company founded?"})
	assert.Equal(t, 1, llm.calls, "no year in context must fall through to generation")
	assert.NotEmpty(t, resp.Answer)
}

func TestAnswerGeneralPipelineCaches(t *testing.T) {
	llm := &fakeLLM{responses: []string{"Regional jingles still carry surprisingly far."}}
	ret := &fakeRetriever{}
	site := &fakeSite{content: "We produce jingles for regional stations."}
	svc := newTestService(t, llm, ret, site, &fakeExternal{})

	first := svc.Answer(context.Background(), model.ChatRequest{Message: "Do regional jingles still reach rural audiences?"})
	assert.Equal(t, "Regional jingles still carry surprisingly far.", first.Answer)
	assert.Equal(t, 1, llm.calls)
	assert.Equal(t, 1, ret.calls)

	second := svc.Answer(context.Background(), model.ChatRequest{Message: "  do regional JINGLES still reach rural audiences?  "})
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, 1, llm.calls, "second call must be served from cache")
	assert.Equal(t, 1, ret.calls)
}

func TestAnswerGenerationUsesConfiguredTemperature(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	_ = svc.Answer(context.Background(), model.ChatRequest{Message: "Do regional jingles still reach rural audiences?"})
	require.NotNil(t, llm.lastTemp)
	assert.InDelta(t, 0.4, *llm.lastTemp, 1e-9)
}

func TestAnswerQuotaErrorNotCached(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rpc error: RESOURCE_EXHAUSTED")}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	req := model.ChatRequest{Message: "Do regional festivals change when campaigns should run?"}
	first := svc.Answer(context.Background(), req)
	assert.Contains(t, first.Answer, "high demand")

	key := cache.Key(strings.TrimSpace(req.Message), "")
	_, ok := svc.answers.Get(key)
	assert.False(t, ok, "failed generations must never be cached")

	// The next identical request generates again instead of hitting a cache.
	_ = svc.Answer(context.Background(), req)
	assert.Equal(t, 2, llm.calls)
}

func TestAnswerExternalQuestionUsesSearchFirst(t *testing.T) {
	llm := &fakeLLM{responses: []string{"Several strong agencies operate in Delhi."}}
	ext := &fakeExternal{results: "- Madison World tops most rankings\n  The agency leads in billings\n  Source: https://example.com"}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, ext)

	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "best advertising agencies in Delhi"})
	require.NotEmpty(t, ext.queries, "external questions must hit web search before generation")
	assert.Contains(t, llm.lastUser, "Madison World", "search results must drive the prompt")
	assert.NotEmpty(t, resp.Answer)
}

func TestAnswerLowConfidenceEscalates(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"That channel is not listed in our materials.",
		"Madison World\nGroupM",
	}}
	ext := &fakeExternal{results: "- Madison World review\n  Madison World and GroupM lead the market\n  Source: https://example.com"}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, ext)

	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "which media agencies handle celebrity tie-ups"})
	assert.NotEmpty(t, ext.queries, "low-confidence answer must trigger external search")
	assert.NotContains(t, strings.ToLower(resp.Answer), "not listed",
		"the low-confidence marker must not survive into the final answer")
	assert.Contains(t, resp.Answer, "Madison World")
}

func TestAnswerEmptyMessage(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})
	resp := svc.Answer(context.Background(), model.ChatRequest{Message: "   "})
	assert.Equal(t, "error", resp.Intent)
	assert.NotEmpty(t, resp.Answer)
}

func TestAnswerStreamGeneral(t *testing.T) {
	llm := &fakeLLM{responses: []string{"Sponsorships compound brand recall over seasons."}}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	events := svc.AnswerStream(context.Background(), model.ChatRequest{Message: "why do brands sponsor cricket tournaments"})

	var chunks []string
	var final model.StreamEvent
	for ev := range events {
		require.Empty(t, ev.Error)
		if ev.Final {
			final = ev
		} else {
			chunks = append(chunks, ev.Chunk)
		}
	}

	require.True(t, final.Final)
	assert.Equal(t, "Sponsorships compound brand recall over seasons.", final.Answer)
	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		trimmed := strings.TrimSpace(c)
		assert.NotContains(t, trimmed, " ", "chunks must not contain interior spaces beyond word boundaries")
	}
	assert.Equal(t, final.Answer, strings.TrimSpace(strings.Join(chunks, "")))
}

func TestAnswerStreamExternalTailIsChunked(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"Delhi hosts several strong creative shops.",
		"Madison World\nGroupM",
	}}
	ext := &fakeExternal{results: "- Agency roundup\n  Madison World and GroupM lead the market.\n  Source: https://example.com/list"}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, ext)

	events := svc.AnswerStream(context.Background(), model.ChatRequest{Message: "best advertising agencies in Delhi"})

	var chunks []string
	var final model.StreamEvent
	for ev := range events {
		require.Empty(t, ev.Error)
		if ev.Final {
			final = ev
		} else {
			chunks = append(chunks, ev.Chunk)
		}
	}

	require.True(t, final.Final)
	assert.Contains(t, final.Answer, "Madison World")
	assert.Equal(t, final.Answer, strings.Join(chunks, ""),
		"appended names must reach the client as chunks, not only in the final event")
}

func TestAnswerStreamIntentAnswerIsWordStreamed(t *testing.T) {
	llm := &fakeLLM{}
	svc := newTestService(t, llm, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})

	events := svc.AnswerStream(context.Background(), model.ChatRequest{Message: "What is SEO?"})

	var sawChunk, sawFinal bool
	for ev := range events {
		if ev.Chunk != "" {
			sawChunk = true
		}
		if ev.Final {
			sawFinal = true
			assert.NotEmpty(t, ev.Answer)
		}
	}
	assert.True(t, sawChunk)
	assert.True(t, sawFinal)
	assert.Zero(t, llm.calls)
}

func TestAnswerStreamEmptyMessage(t *testing.T) {
	svc := newTestService(t, &fakeLLM{}, &fakeRetriever{}, &fakeSite{}, &fakeExternal{})
	events := svc.AnswerStream(context.Background(), model.ChatRequest{Message: ""})

	ev, ok := <-events
	require.True(t, ok)
	assert.NotEmpty(t, ev.Error)
	_, more := <-events
	assert.False(t, more, "error event must be terminal")
}
