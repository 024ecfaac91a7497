// Package extraction routes a stored document to the reader or OCR engine that can
// produce its text.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/autoeval/internal/domain"
	"github.com/kailas-cloud/autoeval/internal/metrics"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".tif": true, ".tiff": true, ".bmp": true,
	".gif": true, ".webp": true,
}

// Service picks an extraction strategy by file extension.
type Service struct {
	engine OCREngine
	pdf    TextReader
	docx   TextReader
	logger *zap.Logger
}

// New creates a Service. engine may be nil, in which case images fail with
// domain.ErrOCRUnavailable.
func New(engine OCREngine, pdf, docx TextReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: engine, pdf: pdf, docx: docx, logger: logger}
}

// EngineName returns the configured OCR engine name, or "none".
func (s *Service) EngineName() string {
	if s.engine == nil {
		return "none"
	}
	return s.engine.Name()
}

// ExtractText returns the text of the document at path. Empty text is a valid result.
// Errors always wrap one of domain.ErrOCRFailed, domain.ErrOCRUnavailable or
// domain.ErrUnsupportedDocument.
func (s *Service) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("extraction canceled: %w: %w", domain.ErrOCRFailed, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".txt":
		return s.observe("plain", func() (string, error) {
			data, err := os.ReadFile(filepath.Clean(path))
			if err != nil {
				return "", fmt.Errorf("read text file: %w", err)
			}
			return string(data), nil
		})
	case ext == ".docx" && s.docx != nil:
		return s.observe("docx", func() (string, error) { return s.docx.ReadText(path) })
	case ext == ".pdf" && s.pdf != nil:
		return s.extractPDF(ctx, path)
	case imageExtensions[ext]:
		return s.ocr(ctx, path)
	default:
		return "", fmt.Errorf("extension %q: %w", ext, domain.ErrUnsupportedDocument)
	}
}

func (s *Service) extractPDF(ctx context.Context, path string) (string, error) {
	text, err := s.observe("pdf", func() (string, error) { return s.pdf.ReadText(path) })
	if err != nil || strings.TrimSpace(text) != "" {
		return text, err
	}

	// Scanned PDF: no text layer.
	if pc, ok := s.engine.(pdfCapable); ok && pc.AcceptsPDF() {
		s.logger.Debug("PDF has no text layer, falling back to OCR", zap.String("engine", s.engine.Name()))
		return s.ocr(ctx, path)
	}
	return "", fmt.Errorf("pdf has no text layer and engine %s cannot read PDFs: %w",
		s.EngineName(), domain.ErrOCRFailed)
}

func (s *Service) ocr(ctx context.Context, path string) (string, error) {
	if s.engine == nil {
		return "", fmt.Errorf("no OCR engine configured: %w", domain.ErrOCRUnavailable)
	}
	return s.observe(s.engine.Name(), func() (string, error) { return s.engine.ExtractText(ctx, path) })
}

// observe records duration and outcome, and makes sure failures carry an OCR sentinel.
func (s *Service) observe(label string, fn func() (string, error)) (string, error) {
	start := time.Now()
	text, err := fn()
	metrics.OCRDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.OCRRequestsTotal.WithLabelValues(label, "error").Inc()
		if errors.Is(err, domain.ErrOCRUnavailable) || errors.Is(err, domain.ErrOCRFailed) {
			return "", err
		}
		return "", fmt.Errorf("%s: %w: %w", label, domain.ErrOCRFailed, err)
	}

	status := "success"
	if strings.TrimSpace(text) == "" {
		status = "empty"
	}
	metrics.OCRRequestsTotal.WithLabelValues(label, status).Inc()
	return text, nil
}

// HealthCheck probes the OCR engine when it supports it.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.engine == nil {
		return domain.ErrOCRUnavailable
	}
	if hc, ok := s.engine.(healthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // engine errors are already descriptive
	}
	return nil
}
