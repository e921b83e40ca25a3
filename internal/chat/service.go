// Package chat implements the retrieval-augmented answer pipeline: intent
// fast paths, answer caching, parallel context assembly, generation with
// escalation to external web search, and the streaming variant of all of it.
package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/cache"
	"github.com/ritz-media/chat-service/internal/config"
	"github.com/ritz-media/chat-service/internal/intent"
	"github.com/ritz-media/chat-service/internal/model"
	"github.com/ritz-media/chat-service/internal/resilience"
	"github.com/ritz-media/chat-service/internal/retriever"
	"github.com/ritz-media/chat-service/pkg/claude"
)

// SiteSearcher extracts question-relevant text from the agency website.
type SiteSearcher interface {
	Search(ctx context.Context, query, siteURL string) string
}

// ExternalSearcher queries general web search engines.
type ExternalSearcher interface {
	SearchGeneral(ctx context.Context, query string, maxResults int) string
}

// Deps carries the service's collaborators, all injectable for testing.
type Deps struct {
	Classifier *intent.Classifier
	Retriever  retriever.Retriever
	Site       SiteSearcher
	External   ExternalSearcher
	LLM        claude.Client
}

// Service runs the chat pipeline. Safe for concurrent use; the answer cache
// is the only shared mutable state and guards itself.
type Service struct {
	classifier *intent.Classifier
	retriever  retriever.Retriever
	site       SiteSearcher
	external   ExternalSearcher
	llm        claude.Client
	answers    *cache.AnswerCache
	breakers   *resilience.ServiceBreakers
	breaker    *resilience.CircuitBreaker
	contact    resilience.Contact

	model            string
	maxTokens        int64
	temperature      float64
	topK             int
	siteURL          string
	maxSearchResults int
	requestTimeout   time.Duration

	lowConfidenceMarks  []string
	fallbackAgencyNames []string
	foundingYear        string
}

// NewService wires a Service from config and collaborators.
func NewService(cfg *config.Config, deps Deps) *Service {
	topK := cfg.Index.TopK
	if topK <= 0 {
		topK = 3
	}
	maxTokens := cfg.Claude.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	timeout := cfg.Chat.RequestTimeout()
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	maxResults := cfg.Search.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	breakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("chat: upstream circuit state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Service{
		classifier: deps.Classifier,
		retriever:  deps.Retriever,
		site:       deps.Site,
		external:   deps.External,
		llm:        deps.LLM,
		answers:    cache.NewAnswerCache(cfg.Chat.AnswerCacheSize),
		breakers:   breakers,
		breaker:    breakers.Get("claude"),
		contact: resilience.Contact{
			Phone: cfg.Contact.Phone,
			Email: cfg.Contact.Email,
		},
		model:               cfg.Claude.Model,
		maxTokens:           maxTokens,
		temperature:         cfg.Claude.Temperature,
		topK:                topK,
		siteURL:             cfg.Website.URL,
		maxSearchResults:    maxResults,
		requestTimeout:      timeout,
		lowConfidenceMarks:  cfg.Chat.LowConfidenceMarks,
		fallbackAgencyNames: cfg.Chat.FallbackAgencyNames,
		foundingYear:        cfg.Chat.FoundingYear,
	}
}

// UpstreamStates reports the circuit state of each upstream by name.
func (s *Service) UpstreamStates() map[string]string {
	states := make(map[string]string)
	for name, st := range s.breakers.States() {
		states[name] = st.String()
	}
	return states
}

// Answer runs the full pipeline for one message under the hard request
// deadline and returns a structured response. It never returns an error:
// every failure becomes fixed fallback text.
func (s *Service) Answer(ctx context.Context, req model.ChatRequest) model.StructuredChatResponse {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return model.StructuredChatResponse{
			Answer: "Please type a question and I'll do my best to help.",
			Intent: "error",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	// Intent fast path short-circuits everything but the general case.
	res := s.classifier.Classify(message)
	if res.Type != intent.TypeGeneral {
		return model.StructuredChatResponse{
			Answer:       res.Answer,
			Intent:       intentTag(res),
			ShowLeadForm: res.ShowLeadForm(),
			FollowUp:     res.FollowUp,
		}
	}

	answer := s.pipeline(ctx, message, req.DeveloperContext, res)
	intentLabel := "general"
	if ctx.Err() != nil && !answer.HasAnswer {
		intentLabel = "error"
	}
	return model.StructuredChatResponse{
		Answer: answer.Text,
		Intent: intentLabel,
	}
}

// pipeline is the generation path shared by the synchronous and streaming
// entry points: cache, deterministic fast paths, context assembly,
// generation, escalation. Only successful answers are cached.
func (s *Service) pipeline(ctx context.Context, message, developerContext string, res intent.Result) model.Answer {
	key := cache.Key(message, developerContext)
	if entry, ok := s.answers.Get(key); ok {
		zap.L().Debug("chat: answer served from cache")
		return model.Answer{Text: entry.Answer, HasAnswer: entry.HasAnswer}
	}

	if isFMChannelsQuery(message) {
		return model.Answer{Text: fmChannelsList, HasAnswer: true}
	}

	bundle := s.buildContext(ctx, message, developerContext, true)

	if isFoundedQuery(message) {
		if text, ok := foundedAnswer(bundle, s.foundingYear); ok {
			return model.Answer{Text: text, HasAnswer: true}
		}
	}

	// Pre-flagged external questions search the web before generating so the
	// external results drive the prompt.
	if res.External {
		bundle.ExternalContext = s.external.SearchGeneral(ctx, message, s.maxSearchResults)
	}

	if err := ctx.Err(); err != nil {
		return model.Answer{Text: resilience.Fallback(resilience.KindUpstreamTimeout, s.contact), HasAnswer: false}
	}

	answer := s.generate(ctx, message, bundle)

	if answer.HasAnswer && (res.External || s.needsEscalation(answer.Text)) {
		answer.Text = s.escalate(ctx, message, answer.Text)
	}

	if answer.HasAnswer {
		s.answers.Put(key, cache.Entry{Answer: answer.Text, HasAnswer: true})
	}
	return answer
}

// AnswerStream runs the pipeline and emits word-bounded chunks followed by
// one final event carrying the assembled answer. Intent and fast-path
// answers are also streamed word by word for interface consistency. The
// returned channel closes after the terminal event.
func (s *Service) AnswerStream(ctx context.Context, req model.ChatRequest) <-chan model.StreamEvent {
	events := make(chan model.StreamEvent, 8)

	go func() {
		defer close(events)

		message := strings.TrimSpace(req.Message)
		if message == "" {
			events <- model.StreamEvent{Error: "empty message"}
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()

		res := s.classifier.Classify(message)
		if res.Type != intent.TypeGeneral {
			streamFixed(ctx, events, res.Answer)
			return
		}

		key := cache.Key(message, req.DeveloperContext)
		if entry, ok := s.answers.Get(key); ok {
			streamFixed(ctx, events, entry.Answer)
			return
		}

		if isFMChannelsQuery(message) {
			streamFixed(ctx, events, fmChannelsList)
			return
		}

		bundle := s.buildContext(ctx, message, req.DeveloperContext, true)

		if isFoundedQuery(message) {
			if text, ok := foundedAnswer(bundle, s.foundingYear); ok {
				streamFixed(ctx, events, text)
				return
			}
		}

		if res.External {
			bundle.ExternalContext = s.external.SearchGeneral(ctx, message, s.maxSearchResults)
		}

		answer := s.streamGenerate(ctx, events, message, bundle)
		if answer.Text == "" {
			events <- model.StreamEvent{Error: "generation failed"}
			return
		}

		if answer.HasAnswer && (res.External || s.needsEscalation(answer.Text)) {
			streamed := answer.Text
			answer.Text = s.escalate(ctx, message, streamed)
			if tail, ok := strings.CutPrefix(answer.Text, streamed); ok && tail != "" {
				// Escalation appended to what was already streamed; the
				// tail goes out as regular chunks.
				streamChunks(ctx, events, tail)
			}
			// When escalation rewrote earlier text the sent chunks cannot
			// be recalled; the final event carries the authoritative text.
		}

		if answer.HasAnswer {
			s.answers.Put(key, cache.Entry{Answer: answer.Text, HasAnswer: true})
		}
		events <- model.StreamEvent{Final: true, Answer: answer.Text}
	}()

	return events
}

// streamGenerate runs a streaming model call, releasing fragments only at
// word boundaries, and returns the assembled answer. On upstream failure it
// falls back to the single-shot path so the user still gets an answer.
func (s *Service) streamGenerate(ctx context.Context, events chan<- model.StreamEvent, question string, bundle model.ContextBundle) model.Answer {
	system, user := buildPrompt(question, bundle, s.contact.Phone, s.contact.Email)

	stream, err := s.llm.StreamMessage(ctx, claude.MessageRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: &s.temperature,
		System:      []claude.SystemBlock{{Text: system, CacheControl: &claude.CacheControl{}}},
		Messages:    []claude.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		zap.L().Warn("chat: streaming call failed, falling back to single-shot", zap.Error(err))
		answer := s.generate(ctx, question, bundle)
		streamChunks(ctx, events, answer.Text)
		return answer
	}
	defer stream.Close() //nolint:errcheck

	var assembled strings.Builder
	var buf string
	for stream.Next() {
		buf += stream.Text()
		emit, rest := flushWords(buf)
		if emit != "" {
			select {
			case events <- model.StreamEvent{Chunk: emit}:
				assembled.WriteString(emit)
			case <-ctx.Done():
				return model.Answer{Text: resilience.Fallback(resilience.KindUpstreamTimeout, s.contact), HasAnswer: false}
			}
		}
		buf = rest
	}
	if buf != "" {
		select {
		case events <- model.StreamEvent{Chunk: buf}:
			assembled.WriteString(buf)
		case <-ctx.Done():
		}
	}

	if err := stream.Err(); err != nil {
		kind := resilience.Classify(err)
		zap.L().Error("chat: stream ended with error", zap.String("kind", kind.String()), zap.Error(err))
		if assembled.Len() == 0 {
			return model.Answer{Text: resilience.Fallback(kind, s.contact), HasAnswer: false}
		}
	}

	text := strings.TrimSpace(assembled.String())
	if text == "" {
		return model.Answer{Text: resilience.Fallback(resilience.KindGenerationEmpty, s.contact), HasAnswer: false}
	}
	return model.Answer{Text: text, HasAnswer: true}
}

// streamFixed emits a synchronously computed answer as word-bounded chunks
// plus the terminal event, so fixed answers use the same wire shape as
// generated ones.
func streamFixed(ctx context.Context, events chan<- model.StreamEvent, text string) {
	streamChunks(ctx, events, text)
	select {
	case events <- model.StreamEvent{Final: true, Answer: text}:
	case <-ctx.Done():
	}
}

func streamChunks(ctx context.Context, events chan<- model.StreamEvent, text string) {
	for _, chunk := range wordChunks(text) {
		select {
		case events <- model.StreamEvent{Chunk: chunk}:
		case <-ctx.Done():
			return
		}
	}
}

// intentTag folds sub-service keys to one label for the structured response.
func intentTag(res intent.Result) string {
	if res.Type == intent.TypeSubService {
		return "sub_service"
	}
	return string(res.Type)
}
