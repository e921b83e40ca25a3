package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/model"
	"github.com/ritz-media/chat-service/internal/resilience"
	"github.com/ritz-media/chat-service/pkg/claude"
)

// truncationLength is the answer length under which a missing terminal
// punctuation mark suggests the generation was cut off.
const truncationLength = 220

// generate runs one single-shot model call for the question and bundle.
// Failures never propagate: they are classified and rendered as fixed
// fallback text with HasAnswer=false so they are never cached.
func (s *Service) generate(ctx context.Context, question string, bundle model.ContextBundle) model.Answer {
	system, user := buildPrompt(question, bundle, s.contact.Phone, s.contact.Email)

	resp, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (*claude.MessageResponse, error) {
		return s.llm.CreateMessage(ctx, claude.MessageRequest{
			Model:       s.model,
			MaxTokens:   s.maxTokens,
			Temperature: &s.temperature,
			System:      []claude.SystemBlock{{Text: system, CacheControl: &claude.CacheControl{}}},
			Messages:    []claude.Message{{Role: "user", Content: user}},
		})
	})
	if err != nil {
		kind := resilience.Classify(err)
		zap.L().Error("chat: generation failed",
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		return model.Answer{Text: resilience.Fallback(kind, s.contact), HasAnswer: false}
	}

	text := strings.TrimSpace(resp.Text())
	resp.Usage.LogCost(s.model, "generate")

	if text == "" {
		zap.L().Warn("chat: generation returned empty text", zap.String("question", question))
		return model.Answer{Text: resilience.Fallback(resilience.KindGenerationEmpty, s.contact), HasAnswer: false}
	}

	if looksTruncated(text) {
		// Detection only; no automatic retry.
		zap.L().Warn("chat: answer looks truncated",
			zap.Int("length", len(text)),
			zap.String("tail", text[max(0, len(text)-40):]),
		)
	}

	return model.Answer{Text: text, HasAnswer: true}
}

// looksTruncated flags short answers that do not end in terminal punctuation,
// optionally followed by a closing quote or bracket.
func looksTruncated(text string) bool {
	if len(text) >= truncationLength {
		return false
	}
	trimmed := strings.TrimRight(text, `"')]}`+"”’")
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', ':':
		return false
	}
	return true
}
