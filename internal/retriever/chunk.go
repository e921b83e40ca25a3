package retriever

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/rotisserie/eris"
)

// Chunk splits text into pieces of at most maxChars, breaking at word
// boundaries and overlapping consecutive pieces by overlapChars so that
// sentences spanning a boundary stay retrievable.
func Chunk(text string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		maxChars = 1200
	}
	if overlapChars < 0 || overlapChars >= maxChars {
		overlapChars = 0
	}

	var parts []string
	for len(text) > 0 {
		size := maxChars
		if len(text) < size {
			size = len(text)
		}

		if size < len(text) {
			// Back up to a space or newline.
			for i := size; i > size-100 && i > 0; i-- {
				if text[i] == ' ' || text[i] == '\n' {
					size = i
					break
				}
			}
		}

		parts = append(parts, text[:size])

		if size+overlapChars < len(text) {
			text = text[size-overlapChars:]
		} else {
			text = text[size:]
		}
	}
	return parts
}

// BuildIndex creates a fresh index at path from the given docs, replacing any
// previous index content the caller removed beforehand.
func BuildIndex(path string, docs []Doc) error {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.New(path, mapping)
	if err != nil {
		return eris.Wrapf(err, "retriever: create index %s", path)
	}
	defer index.Close() //nolint:errcheck

	batch := index.NewBatch()
	for i, doc := range docs {
		if err := batch.Index(fmt.Sprintf("doc-%d", i), doc); err != nil {
			return eris.Wrap(err, "retriever: batch index")
		}
		if batch.Size() >= 100 {
			if err := index.Batch(batch); err != nil {
				return eris.Wrap(err, "retriever: flush batch")
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return eris.Wrap(err, "retriever: flush final batch")
		}
	}
	return nil
}
