package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/autoeval/internal/domain"
)

// Provider maps normalized answer texts to fixed-dimension sentence embeddings.
// Every vector it returns has exactly Dimensions() elements.
type Provider struct {
	embedder domain.Embedder
	dim      int
	logger   *zap.Logger
}

// NewProvider wraps an embedder chain and enforces dimension dim on its output.
func NewProvider(embedder domain.Embedder, dim int, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{embedder: embedder, dim: dim, logger: logger}
}

// Dimensions returns D.
func (p *Provider) Dimensions() int { return p.dim }

// Embed returns the embedding of text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if err := p.checkDim(res.Embedding, "text"); err != nil {
		return nil, err
	}
	return res.Embedding, nil
}

// EmbedPair embeds the extracted answer and the reference answer, batched into one
// upstream call when the chain supports it.
func (p *Provider) EmbedPair(ctx context.Context, answer, reference string) ([]float32, []float32, error) {
	var vecs [][]float32
	if be, ok := p.embedder.(domain.BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, []string{answer, reference})
		if err != nil {
			return nil, nil, fmt.Errorf("embed pair: %w", err)
		}
		vecs = res.Embeddings
	} else {
		res, err := domain.BatchFallback(ctx, p.embedder, []string{answer, reference})
		if err != nil {
			return nil, nil, fmt.Errorf("embed pair: %w", err)
		}
		vecs = res.Embeddings
	}

	if len(vecs) != 2 {
		return nil, nil, fmt.Errorf("embed pair: got %d vectors: %w", len(vecs), domain.ErrEmbeddingProviderError)
	}
	if err := p.checkDim(vecs[0], "answer"); err != nil {
		return nil, nil, err
	}
	if err := p.checkDim(vecs[1], "reference"); err != nil {
		return nil, nil, err
	}
	return vecs[0], vecs[1], nil
}

func (p *Provider) checkDim(vec []float32, which string) error {
	if len(vec) == p.dim {
		return nil
	}
	p.logger.Error("Embedding dimension mismatch",
		zap.String("input", which),
		zap.Int("expected", p.dim),
		zap.Int("got", len(vec)),
	)
	return fmt.Errorf("%s embedding has %d dimensions, want %d: %w", which, len(vec), p.dim, domain.ErrShapeMismatch)
}
