package model

// ChatRequest is the request body for the chat endpoints.
type ChatRequest struct {
	SessionID        string `json:"session_id,omitempty"`
	Message          string `json:"message"`
	DeveloperContext string `json:"developer_context,omitempty"`
}

// ChatResponse is the response body for the plain chat endpoint.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// StructuredChatResponse is the response body for the structured chat endpoint.
type StructuredChatResponse struct {
	Answer         string `json:"answer"`
	Intent         string `json:"intent"`
	ShowLeadForm   bool   `json:"show_lead_form"`
	FollowUp       string `json:"follow_up,omitempty"`
	EnquiryMessage string `json:"enquiry_message,omitempty"`
}

// Passage is a retrieved document fragment with its relevance rank.
type Passage struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// ContextBundle is the set of text sources assembled before generation.
// It is built fresh per request and owned by that request alone.
type ContextBundle struct {
	Documents        []Passage `json:"documents"`
	WebContext       string    `json:"web_context"`
	DeveloperContext string    `json:"developer_context"`
	ExternalContext  string    `json:"external_context"`
}

// Answer is a generation result. HasAnswer is false for every fallback or
// error text; such answers must never be cached.
type Answer struct {
	Text      string `json:"text"`
	HasAnswer bool   `json:"has_answer"`
}

// StreamEvent is one server-push event on the streaming chat endpoint.
// Exactly one of Chunk, Final or Error is meaningful per event. Answer on
// the final event is the authoritative full text; clients should prefer it
// over the concatenated chunks, which late post-processing may supersede.
type StreamEvent struct {
	Chunk  string `json:"chunk,omitempty"`
	Final  bool   `json:"final,omitempty"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}
