package chat

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ritz-media/chat-service/internal/model"
)

// buildContext fans out document retrieval and website search concurrently
// and joins them into one bundle. Either source failing degrades to an empty
// result; failures are logged, never raised. ExternalContext stays empty
// here and is populated only when escalation triggers.
func (s *Service) buildContext(ctx context.Context, question, developerContext string, includeWeb bool) model.ContextBundle {
	bundle := model.ContextBundle{DeveloperContext: developerContext}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bundle.Documents = s.retriever.Retrieve(gctx, question, s.topK)
		return nil
	})

	g.Go(func() error {
		if !includeWeb {
			return nil
		}
		bundle.WebContext = s.site.Search(gctx, question, s.siteURL)
		return nil
	})

	// Both goroutines always return nil; the join is the point.
	_ = g.Wait()

	zap.L().Debug("chat: context assembled",
		zap.String("question", question),
		zap.Int("documents", len(bundle.Documents)),
		zap.Int("web_chars", len(bundle.WebContext)),
	)
	return bundle
}
