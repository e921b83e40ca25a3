package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ritz-media/chat-service/internal/chat"
	"github.com/ritz-media/chat-service/internal/intent"
	"github.com/ritz-media/chat-service/internal/model"
	"github.com/ritz-media/chat-service/internal/retriever"
	"github.com/ritz-media/chat-service/internal/webfetch"
	"github.com/ritz-media/chat-service/pkg/claude"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Run one question through the full pipeline",
	Long:  "One-shot variant of the chat endpoint, useful for smoke-testing the index, prompts and escalation behavior from the terminal.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

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

		resp := svc.Answer(cmd.Context(), model.ChatRequest{Message: question})
		fmt.Printf("[%s]\n%s\n", resp.Intent, resp.Answer)
		if resp.FollowUp != "" {
			fmt.Printf("\n%s\n", resp.FollowUp)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
