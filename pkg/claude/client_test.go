package claude

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sdk "github.com/anthropics/anthropic-sdk-go"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func (m *MockClient) StreamMessage(ctx context.Context, req MessageRequest) (TextStream, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(TextStream), args.Error(1)
}

// FakeTextStream yields fixed fragments, optionally failing at the end.
type FakeTextStream struct {
	Fragments []string
	FailWith  error
	idx       int
}

func (s *FakeTextStream) Next() bool {
	if s.idx < len(s.Fragments) {
		s.idx++
		return true
	}
	return false
}

func (s *FakeTextStream) Text() string { return s.Fragments[s.idx-1] }

func (s *FakeTextStream) Err() error {
	if s.idx >= len(s.Fragments) {
		return s.FailWith
	}
	return nil
}

func (s *FakeTextStream) Close() error { return nil }

func TestMessageResponseText(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "Hello "},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: "world"},
		},
	}
	assert.Equal(t, "Hello world", resp.Text())

	empty := &MessageResponse{}
	assert.Equal(t, "", empty.Text())
}

func TestToSDKParams(t *testing.T) {
	temp := 0.3
	req := MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 1024,
		System: []SystemBlock{
			{Text: "You are a helpful assistant.", CacheControl: &CacheControl{TTL: "5m"}},
		},
		Messages: []Message{
			{Role: "user", Content: "Hello"},
			{Role: "assistant", Content: "Hi!"},
			{Role: "user", Content: "What services do you offer?"},
		},
		Temperature: &temp,
	}

	params := toSDKParams(req)
	assert.Equal(t, sdk.Model("claude-haiku-4-5-20251001"), params.Model)
	assert.Equal(t, int64(1024), params.MaxTokens)
	require.Len(t, params.Messages, 3)
	assert.Equal(t, sdk.MessageParamRoleUser, params.Messages[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, params.Messages[1].Role)
	require.Len(t, params.System, 1)
	assert.Equal(t, "You are a helpful assistant.", params.System[0].Text)
	assert.True(t, params.Temperature.Valid())
	assert.InDelta(t, 0.3, params.Temperature.Value, 1e-9)
}

func TestToSDKParamsOmitsOptionalFields(t *testing.T) {
	params := toSDKParams(MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 256,
		Messages:  []Message{{Role: "user", Content: "hi"}},
	})
	assert.Empty(t, params.System)
	assert.False(t, params.Temperature.Valid())
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	}
	assert.InDelta(t, 4.80, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.Equal(t, 0.0, usage.EstimateCost("unknown-model"))
}

func TestFakeTextStream(t *testing.T) {
	s := &FakeTextStream{Fragments: []string{"Hello", " there"}}
	var got string
	for s.Next() {
		got += s.Text()
	}
	assert.Equal(t, "Hello there", got)
	assert.NoError(t, s.Err())
	assert.NoError(t, s.Close())
}
