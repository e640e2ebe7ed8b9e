package generate

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"
)

// writeDOCX writes a document with a single paragraph holding body. Newlines become
// line breaks and tabs become tab stops inside that paragraph.
func (g *Generator) writeDOCX(w io.Writer, body string) error {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(body)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write DOCX: %w", err)
	}
	return nil
}
