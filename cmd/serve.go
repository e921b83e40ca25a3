package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/chat"
	"github.com/ritz-media/chat-service/internal/intent"
	"github.com/ritz-media/chat-service/internal/retriever"
	"github.com/ritz-media/chat-service/internal/server"
	"github.com/ritz-media/chat-service/internal/webfetch"
	"github.com/ritz-media/chat-service/pkg/claude"
	"github.com/ritz-media/chat-service/pkg/crm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := intent.LoadTables()
		if err != nil {
			return fmt.Errorf("load intent tables: %w", err)
		}

		ret, err := retriever.Open(cfg.Index.Path, cfg.Index.PassageCap)
		if err != nil {
			return fmt.Errorf("open index %s: %w", cfg.Index.Path, err)
		}
		defer ret.Close() //nolint:errcheck

		svc := chat.NewService(cfg, chat.Deps{
			Classifier: intent.NewClassifier(tables, cfg.Chat.ExternalMarks),
			Retriever:  ret,
			Site:       webfetch.NewSiteFetcher(cfg.Website),
			External:   webfetch.NewWebSearcher(cfg.Search),
			LLM:        claude.NewClient(cfg.Claude.Key),
		})

		crmClient := crm.NewClient(cfg.CRM.Endpoint,
			crm.WithTimeout(time.Duration(cfg.CRM.TimeoutSecs)*time.Second),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		zap.L().Info("starting chat service",
			zap.Int("port", cfg.Server.Port),
			zap.String("index", cfg.Index.Path),
			zap.String("site", cfg.Website.URL),
		)
		return server.New(cfg, svc, crmClient).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
