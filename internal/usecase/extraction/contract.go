package extraction

import "context"

// OCREngine turns an image (and, for some engines, a PDF) into text.
type OCREngine interface {
	Name() string
	ExtractText(ctx context.Context, path string) (string, error)
}

// pdfCapable is implemented by engines that rasterize PDFs themselves.
type pdfCapable interface {
	AcceptsPDF() bool
}

// healthChecker is implemented by engines that can probe their backend.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// TextReader reads the embedded text layer of a document.
type TextReader interface {
	ReadText(path string) (string, error)
}
