//go:build !ocr

package tesseract

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/autoeval/internal/domain"
)

// Engine is the placeholder used when the binary is built without the "ocr" tag.
type Engine struct {
	languages []string
}

// New creates a stub engine.
func New(cfg Config) *Engine {
	return &Engine{languages: languagesOrDefault(cfg.Languages)}
}

// ExtractText always fails: tesseract support was not compiled in.
func (e *Engine) ExtractText(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("tesseract: rebuild with -tags ocr and install tesseract-ocr: %w",
		domain.ErrOCRUnavailable)
}

// HealthCheck reports the engine as unavailable.
func (e *Engine) HealthCheck(_ context.Context) error {
	return fmt.Errorf("tesseract: %w", domain.ErrOCRUnavailable)
}
