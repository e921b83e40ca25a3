package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/retriever"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files or directories]",
	Short: "Build the document index from PDFs and text files",
	Long:  "Extracts text from PDF, txt and md files, chunks it at word boundaries, and writes a fresh searchable index at the configured path.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var docs []retriever.Doc

		for _, root := range args {
			err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					return nil
				}

				text, err := extractText(path)
				if err != nil {
					zap.L().Warn("ingest: skipping file", zap.String("path", path), zap.Error(err))
					return nil
				}
				if strings.TrimSpace(text) == "" {
					return nil
				}

				chunks := retriever.Chunk(text, cfg.Index.ChunkChars, cfg.Index.ChunkOverlap)
				source := filepath.Base(path)
				for _, c := range chunks {
					docs = append(docs, retriever.Doc{Source: source, Text: c})
				}
				zap.L().Info("ingest: file processed",
					zap.String("path", path),
					zap.Int("chunks", len(chunks)),
				)
				return nil
			})
			if err != nil {
				return fmt.Errorf("walk %s: %w", root, err)
			}
		}

		if len(docs) == 0 {
			return fmt.Errorf("no ingestible content found")
		}

		if err := retriever.BuildIndex(cfg.Index.Path, docs); err != nil {
			return fmt.Errorf("build index: %w", err)
		}
		zap.L().Info("ingest: index built",
			zap.String("path", cfg.Index.Path),
			zap.Int("chunks", len(docs)),
		)
		return nil
	},
}

// extractText reads one file into plain text. PDFs go through MuPDF; txt and
// md are read as-is; everything else is skipped.
func extractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".md":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", err
	}
	defer doc.Close() //nolint:errcheck

	var b strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			zap.L().Warn("ingest: page extraction failed",
				zap.String("path", path),
				zap.Int("page", page+1),
				zap.Error(err),
			)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
