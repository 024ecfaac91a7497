// Package tesseract runs OCR locally through libtesseract.
//
// The cgo binding is compiled only with the "ocr" build tag; default builds get a stub that
// reports domain.ErrOCRUnavailable so the service still starts on hosts without tesseract.
package tesseract

// Config holds tesseract settings.
type Config struct {
	// Languages are tesseract language codes, e.g. "eng" or "eng", "fra".
	Languages []string
}

// Name identifies the engine in logs and metrics.
func (e *Engine) Name() string { return "tesseract" }

// AcceptsPDF reports whether the engine can OCR PDF files directly.
func (e *Engine) AcceptsPDF() bool { return false }

func languagesOrDefault(langs []string) []string {
	if len(langs) == 0 {
		return []string{"eng"}
	}
	return langs
}
