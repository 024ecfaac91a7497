package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DOCXReader extracts paragraph text from Word documents.
type DOCXReader struct{}

// ReadText returns the document body with one line per paragraph.
func (DOCXReader) ReadText(path string) (string, error) {
	doc, err := docx.ReadDocxFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("docx: open: %w", err)
	}
	defer func() { _ = doc.Close() }()

	text, err := stripWordXML(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("docx: parse body: %w", err)
	}
	return text, nil
}

// stripWordXML keeps the text runs (<w:t>) of WordprocessingML and breaks lines at
// paragraph, line-break and tab elements. Field codes (instrText), tracked deletions
// (delText) and markup whitespace are dropped.
func stripWordXML(body string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(body))
	dec.Strict = false

	var sb strings.Builder
	inText, inTabStops := false, false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				inTabStops = true
			case "br", "cr":
				sb.WriteByte('\n')
			case "tab":
				if !inTabStops {
					sb.WriteByte('\t')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabStops = false
			case "p":
				sb.WriteByte('\n')
			}
		}
	}

	text := strings.ReplaceAll(sb.String(), "\r\n", "\n")
	return strings.TrimSpace(text), nil
}
