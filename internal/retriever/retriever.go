// Package retriever wraps the local bleve document index used to ground
// answers in the agency's own documents.
package retriever

import (
	"context"

	"github.com/blevesearch/bleve/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ritz-media/chat-service/internal/model"
)

// Retriever returns the top-k passages most similar to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) []model.Passage
}

// Doc is one indexed document chunk.
type Doc struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// BleveRetriever queries a bleve index of document chunks.
type BleveRetriever struct {
	index      bleve.Index
	passageCap int
}

// Open opens an existing index at path.
func Open(path string, passageCap int) (*BleveRetriever, error) {
	index, err := bleve.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "retriever: open index %s", path)
	}
	return New(index, passageCap), nil
}

// New wraps an already-open index. passageCap bounds each returned passage's
// length in characters so prompt size stays bounded.
func New(index bleve.Index, passageCap int) *BleveRetriever {
	if passageCap <= 0 {
		passageCap = 1500
	}
	return &BleveRetriever{index: index, passageCap: passageCap}
}

// Close releases the underlying index.
func (r *BleveRetriever) Close() error {
	return r.index.Close()
}

// Retrieve returns up to k passages ranked by relevance. Failures are logged
// and yield an empty slice so downstream stages always get a well-formed
// (possibly empty) bundle.
func (r *BleveRetriever) Retrieve(ctx context.Context, question string, k int) []model.Passage {
	if question == "" || k <= 0 {
		return nil
	}

	query := bleve.NewMatchQuery(question)
	search := bleve.NewSearchRequest(query)
	search.Size = k
	search.Fields = []string{"source", "text"}

	result, err := r.index.SearchInContext(ctx, search)
	if err != nil {
		zap.L().Warn("retriever: search failed", zap.String("question", question), zap.Error(err))
		return nil
	}

	passages := make([]model.Passage, 0, len(result.Hits))
	for _, hit := range result.Hits {
		text, _ := hit.Fields["text"].(string)
		if text == "" {
			continue
		}
		source, _ := hit.Fields["source"].(string)
		passages = append(passages, model.Passage{
			Text:   truncateAtWord(text, r.passageCap),
			Score:  hit.Score,
			Source: source,
		})
	}
	return passages
}

// truncateAtWord caps s at max characters, backing up to the last word
// boundary so passages never end mid-word.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for i := len(cut) - 1; i > max-100 && i > 0; i-- {
		if cut[i] == ' ' || cut[i] == '\n' {
			return cut[:i]
		}
	}
	return cut
}
