//go:build ocr

package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Engine extracts text from images with tesseract.
type Engine struct {
	languages []string
}

// New creates a tesseract engine.
func New(cfg Config) *Engine {
	return &Engine{languages: languagesOrDefault(cfg.Languages)}
}

// ExtractText runs OCR on the image at path. A fresh client per call keeps the engine
// safe for concurrent requests.
func (e *Engine) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("tesseract set language %v: %w", e.languages, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("tesseract set page segmentation: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("tesseract load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text), nil
}

// HealthCheck verifies that libtesseract is loadable.
func (e *Engine) HealthCheck(_ context.Context) error {
	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()
	if client.Version() == "" {
		return fmt.Errorf("tesseract: empty version")
	}
	return nil
}
