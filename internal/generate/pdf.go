package generate

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PDF page geometry in points. Text starts 50pt from the left and top edges and
// advances by a fixed leading per line. Lines are not wrapped and a single page is
// produced, so long text is clipped.
const (
	pdfPageWidth  = 600
	pdfPageHeight = 800
	pdfOriginX    = 50
	pdfOriginY    = 50
	pdfFontSize   = 12
	pdfLeading    = 14
	pdfFontFamily = "body"
)

func (g *Generator) writePDF(w io.Writer, body string) error {
	font, err := g.fontBytes()
	if err != nil {
		return err
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: pdfPageWidth, Ht: pdfPageHeight},
	})
	pdf.SetCreationDate(g.now())
	pdf.SetCreator("upcase", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", font)
	pdf.SetFont(pdfFontFamily, "", pdfFontSize)
	pdf.AddPage()
	for i, line := range strings.Split(body, "\n") {
		pdf.Text(pdfOriginX, pdfOriginY+float64(i)*pdfLeading, line)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write PDF: %w", err)
	}
	return nil
}
