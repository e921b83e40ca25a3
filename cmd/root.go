package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chat-service",
	Short: "Retrieval-augmented chat backend for Ritz Media World",
	Long:  "Classifies inbound questions, answers known-service queries from static tables, and runs a retrieval-augmented generation pipeline over indexed documents, the live website, and general web search.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
