package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/model"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if !readJSON(w, r, &req) {
		return
	}

	resp := s.chatSvc.Answer(r.Context(), req)
	writeJSON(w, http.StatusOK, model.ChatResponse{Answer: resp.Answer})
}

func (s *Server) handleChatStructured(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if !readJSON(w, r, &req) {
		return
	}

	resp := s.chatSvc.Answer(r.Context(), req)
	if resp.ShowLeadForm {
		resp.EnquiryMessage = "Share a few details and our team will get back to you with a tailored proposal."
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChatStream emits the answer as server-sent events: data frames with
// {chunk}, then one {final, answer}, or a single {error} frame on failure.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if !readJSON(w, r, &req) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range s.chatSvc.AnswerStream(r.Context(), req) {
		data, err := json.Marshal(ev)
		if err != nil {
			zap.L().Warn("server: marshal stream event", zap.Error(err))
			continue
		}
		if _, err := w.Write(append(append([]byte("data: "), data...), '\n', '\n')); err != nil {
			// Client went away; the pipeline goroutine unwinds via context.
			return
		}
		flusher.Flush()
	}
}
