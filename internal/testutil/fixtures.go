// Package testutil builds small in-memory documents for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

// Zip packs the given name/content pairs into a zip archive in order.
func Zip(files ...ZipEntry) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.Create(f.Name)
		if err != nil {
			panic(err)
		}
		if _, err := fw.Write([]byte(f.Body)); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ZipEntry is one file of a zip fixture.
type ZipEntry struct {
	Name string
	Body string
}

// Escape returns s with XML special characters escaped.
func Escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// DocxXML wraps raw body XML in a word/document.xml part and packs it as a .docx.
func DocxXML(bodyXML string) []byte {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="` + nsW + `" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<w:body>` + bodyXML + `</w:body></w:document>`
	return Zip(
		ZipEntry{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`},
		ZipEntry{"word/document.xml", doc},
	)
}

// Docx returns a .docx with one plain paragraph per argument.
func Docx(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		body.WriteString(Escape(p))
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	return DocxXML(body.String())
}

// SlideXML returns a slide part with one text box holding the given runs.
func SlideXML(runs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<p:sld xmlns:a="` + nsA + `" xmlns:p="` + nsP + `"><p:cSld><p:spTree><p:sp><p:txBody><a:bodyPr/><a:p>`)
	for _, r := range runs {
		b.WriteString(`<a:r><a:rPr lang="en-US"/><a:t>`)
		b.WriteString(Escape(r))
		b.WriteString(`</a:t></a:r>`)
	}
	b.WriteString(`</a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return b.String()
}

// Pptx returns a .pptx whose slide<N>.xml (N starting at 1) holds slides[N-1].
// Slides are written to the archive in reverse so readers cannot rely on entry order.
func Pptx(slides ...[]string) []byte {
	entries := []ZipEntry{{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`}}
	for i := len(slides) - 1; i >= 0; i-- {
		n := i + 1
		entries = append(entries,
			ZipEntry{fmt.Sprintf("ppt/slides/slide%d.xml", n), SlideXML(slides[i]...)},
			ZipEntry{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		)
	}
	return Zip(entries...)
}

// PDF returns a PDF with one page per argument, drawn with a core font.
// Each line of a page is its own text object.
func PDF(pages ...string) []byte {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont("Helvetica", "", 12)
	for _, page := range pages {
		pdf.AddPage()
		for i, line := range strings.Split(page, "\n") {
			pdf.Text(50, 72+float64(i)*14, line)
		}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Corrupt returns bytes that no document parser accepts.
func Corrupt() []byte {
	return []byte("this is not a document\x00\x01\x02")
}
