// Package server exposes the chat pipeline over HTTP: chat endpoints
// (plain, structured, streaming), lead submission, and the static UI
// configuration the widget reads at load.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/chat"
	"github.com/ritz-media/chat-service/internal/config"
	"github.com/ritz-media/chat-service/pkg/crm"
)

// Server is the HTTP front of the chat service.
type Server struct {
	cfg     *config.Config
	chatSvc *chat.Service
	crm     crm.Client
	router  chi.Router
}

// New wires the router and handlers.
func New(cfg *config.Config, chatSvc *chat.Service, crmClient crm.Client) *Server {
	s := &Server{
		cfg:     cfg,
		chatSvc: chatSvc,
		crm:     crmClient,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/chat/structured", s.handleChatStructured)
		r.Post("/chat/stream", s.handleChatStream)
		r.Post("/submit-lead", s.handleSubmitLead)

		r.Get("/welcome", s.handleWelcome)
		r.Get("/enquire-button", s.handleEnquireButton)
		r.Get("/follow-up-messages", s.handleFollowUpMessages)
		r.Get("/contact-info", s.handleContactInfo)
		r.Get("/chat-config", s.handleChatConfig)
	})

	// Unversioned alias kept for the deployed widget.
	r.Post("/submit-lead", s.handleSubmitLead)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains with a shutdown grace
// period slightly above the request deadline.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		zap.L().Info("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"upstreams": s.chatSvc.UpstreamStates(),
	})
}
