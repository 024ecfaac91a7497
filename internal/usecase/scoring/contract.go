package scoring

import (
	"context"

	"github.com/kailas-cloud/autoeval/internal/domain"
)

// ArtifactStore persists an uploaded document for the extractor.
type ArtifactStore interface {
	Save(filename string, content []byte) (domain.Artifact, error)
}

// Extractor turns a stored document into raw text.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// EmbeddingProvider embeds the normalized answer and reference texts.
type EmbeddingProvider interface {
	EmbedPair(ctx context.Context, answer, reference string) ([]float32, []float32, error)
}

// Comparator scores two embeddings in (0, 1).
type Comparator interface {
	Compare(a, b []float32) (float64, error)
}
