package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/autoeval/internal/domain"
)

func TestProvider_EmbedPair_UsesBatch(t *testing.T) {
	inner := &mockEmbedder{batchResult: domain.BatchEmbeddingResult{
		Embeddings: [][]float32{{1, 2, 3}, {4, 5, 6}},
	}}
	p := NewProvider(inner, 3, zap.NewNop())

	a, b, err := p.EmbedPair(context.Background(), "answer", "reference")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a[0] != 1 || b[0] != 4 {
		t.Errorf("vectors out of order: %v %v", a, b)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected one batch call, got %d", inner.batchCalls)
	}
}

func TestProvider_EmbedPair_Fallback(t *testing.T) {
	inner := &plainMockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0, 1}}}
	p := NewProvider(inner, 2, nil)

	if _, _, err := p.EmbedPair(context.Background(), "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 single calls, got %d", inner.calls)
	}
}

func TestProvider_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		vecs [][]float32
	}{
		{"answer too short", [][]float32{{1}, {1, 2}}},
		{"reference too long", [][]float32{{1, 2}, {1, 2, 3}}},
		{"empty", [][]float32{{}, {1, 2}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProvider(&mockEmbedder{batchResult: domain.BatchEmbeddingResult{Embeddings: tc.vecs}}, 2, nil)
			if _, _, err := p.EmbedPair(context.Background(), "a", "b"); !errors.Is(err, domain.ErrShapeMismatch) {
				t.Fatalf("expected ErrShapeMismatch, got %v", err)
			}
		})
	}
}

func TestProvider_WrongVectorCount(t *testing.T) {
	inner := &mockEmbedder{batchResult: domain.BatchEmbeddingResult{Embeddings: [][]float32{{1, 2}}}}
	p := NewProvider(inner, 2, nil)

	if _, _, err := p.EmbedPair(context.Background(), "a", "b"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestProvider_PropagatesErrors(t *testing.T) {
	quota := NewInstrumentedEmbedder(&mockEmbedder{}, "p", "m",
		exhaustedBudget(t), zap.NewNop())
	p := NewProvider(quota, 2, nil)

	_, _, err := p.EmbedPair(context.Background(), "a", "b")
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}

	p = NewProvider(&mockEmbedder{batchErr: domain.ErrEmbeddingProviderError}, 2, nil)
	if _, _, err := p.EmbedPair(context.Background(), "a", "b"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestProvider_Embed(t *testing.T) {
	p := NewProvider(&mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}, 2, nil)
	v, err := p.Embed(context.Background(), "a")
	if err != nil || len(v) != 2 {
		t.Fatalf("got %v, %v", v, err)
	}

	p = NewProvider(&mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}, 2, nil)
	if _, err := p.Embed(context.Background(), "a"); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if p.Dimensions() != 2 {
		t.Errorf("expected 2 dimensions, got %d", p.Dimensions())
	}
}

func exhaustedBudget(t *testing.T) *BudgetTracker {
	t.Helper()
	bt := NewBudgetTracker("p", 10, 0, BudgetActionReject, zap.NewNop())
	bt.Record(10)
	return bt
}
