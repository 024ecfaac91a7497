// Package comparator implements the siamese similarity network used for scoring.
//
// Both embeddings pass through the same first layer; the absolute difference of the two
// projections feeds a single-unit output layer with a logistic activation:
//
//	s = sigmoid(W2 · |relu(W1·a + b1) - relu(W1·b + b1)| + b2)
//
// A Comparator is immutable after construction and safe for concurrent use.
package comparator

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kailas-cloud/autoeval/internal/domain"
)

var (
	minSimilarity = math.Nextafter(0, 1)
	maxSimilarity = math.Nextafter(1, 0)
)

// Comparator scores the similarity of two embeddings in (0, 1).
type Comparator struct {
	w1        *mat.Dense
	b1        *mat.VecDense
	w2        *mat.VecDense
	b2        float64
	inputDim  int
	hiddenDim int
}

// New validates the weights and copies them into an immutable Comparator.
func New(w Weights) (*Comparator, error) {
	input, hidden, err := w.validate()
	if err != nil {
		return nil, fmt.Errorf("invalid comparator weights: %w", err)
	}

	w1 := mat.NewDense(hidden, input, nil)
	for i, row := range w.FC1Weight {
		w1.SetRow(i, row)
	}

	return &Comparator{
		w1:        w1,
		b1:        mat.NewVecDense(hidden, append([]float64(nil), w.FC1Bias...)),
		w2:        mat.NewVecDense(hidden, append([]float64(nil), w.FC2Weight[0]...)),
		b2:        w.FC2Bias[0],
		inputDim:  input,
		hiddenDim: hidden,
	}, nil
}

// InputDim returns the embedding dimension the comparator accepts.
func (c *Comparator) InputDim() int { return c.inputDim }

// HiddenDim returns the width of the shared projection.
func (c *Comparator) HiddenDim() int { return c.hiddenDim }

// Compare returns the similarity of a and b. The result is symmetric in its arguments.
// Embeddings of the wrong dimension fail with domain.ErrShapeMismatch.
func (c *Comparator) Compare(a, b []float32) (float64, error) {
	if len(a) != c.inputDim || len(b) != c.inputDim {
		return 0, fmt.Errorf("%w: got %d and %d, comparator expects %d",
			domain.ErrShapeMismatch, len(a), len(b), c.inputDim)
	}

	h1 := c.project(a)
	h2 := c.project(b)

	diff := mat.NewVecDense(c.hiddenDim, nil)
	diff.SubVec(h1, h2)
	for i := 0; i < c.hiddenDim; i++ {
		diff.SetVec(i, math.Abs(diff.AtVec(i)))
	}

	s := sigmoid(mat.Dot(c.w2, diff) + c.b2)
	if math.IsNaN(s) {
		return 0, fmt.Errorf("%w: NaN", domain.ErrComparatorOutput)
	}
	// float64 sigmoid saturates to exactly 0 or 1 for |z| > ~37.
	return math.Min(math.Max(s, minSimilarity), maxSimilarity), nil
}

// HealthCheck runs one comparison of two zero embeddings through the loaded weights.
func (c *Comparator) HealthCheck(context.Context) error {
	zero := make([]float32, c.inputDim)
	if _, err := c.Compare(zero, zero); err != nil {
		return fmt.Errorf("comparator self-check: %w", err)
	}
	return nil
}

// project applies the shared first layer and ReLU.
func (c *Comparator) project(x []float32) *mat.VecDense {
	in := make([]float64, len(x))
	for i, v := range x {
		in[i] = float64(v)
	}

	h := mat.NewVecDense(c.hiddenDim, nil)
	h.MulVec(c.w1, mat.NewVecDense(c.inputDim, in))
	h.AddVec(h, c.b1)
	for i := 0; i < c.hiddenDim; i++ {
		if h.AtVec(i) < 0 {
			h.SetVec(i, 0)
		}
	}
	return h
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
