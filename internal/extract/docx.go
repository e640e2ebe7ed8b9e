package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// docxParagraphSeparator joins body paragraphs in raw-text output.
const docxParagraphSeparator = "\n\n"

var errNoDocumentPart = errors.New("word/document.xml not found")

// extractDOCX extracts the body paragraphs of a .docx. Tables, headers, footers and
// drawings are not read. Runs contribute w:t text, w:tab as a tab and w:br as a newline.
func extractDOCX(content []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if doc.Document.XMLName.Local != "document" {
		return "", fmt.Errorf("extract DOCX: %w", errNoDocumentPart)
	}
	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		paragraphs = append(paragraphs, paragraphText(p))
	}
	return strings.Join(paragraphs, docxParagraphSeparator), nil
}

func paragraphText(p *docx.Paragraph) string {
	var sb strings.Builder
	for _, c := range p.Children {
		switch o := c.(type) {
		case *docx.Run:
			writeRun(&sb, o)
		case *docx.Hyperlink:
			writeRun(&sb, &o.Run)
		}
	}
	return sb.String()
}

func writeRun(sb *strings.Builder, r *docx.Run) {
	for _, c := range r.Children {
		switch x := c.(type) {
		case *docx.Text:
			sb.WriteString(x.Text)
		case *docx.Tab:
			sb.WriteByte('\t')
		case *docx.BarterRabbet:
			sb.WriteByte('\n')
		}
	}
}
