// Package document reads the text layer of office and PDF documents from disk.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFReader extracts embedded text from PDF files. It does not rasterize pages;
// a scanned PDF yields an empty string.
type PDFReader struct {
	MaxPages int
}

// ReadText returns the plain text of every page, separated by blank lines.
func (r PDFReader) ReadText(path string) (text string, err error) {
	// ledongthuc/pdf panics on some malformed object streams.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("pdf: malformed document: %v", p)
		}
	}()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("pdf: read file: %w", err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return "", fmt.Errorf("pdf: not a PDF document")
	}

	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: parse: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if r.MaxPages > 0 && i > r.MaxPages {
			break
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
