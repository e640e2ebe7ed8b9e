package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// drawingMLNamespace is the namespace bound to the a: prefix in slide parts.
const drawingMLNamespace = "http://schemas.openxmlformats.org/drawingml/2006/main"

// slidePartRe matches slide parts and captures the slide number. Slide _rels are excluded.
var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type slidePart struct {
	num  int
	file *zip.File
}

// extractPPTX returns the text of every <a:t> element across all slides, ordered by
// slide number and then by document order within each slide.
func extractPPTX(content []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: not a zip: %w", err)
	}
	slides := slideParts(zr)
	runs := make([]string, 0, len(slides)*4)
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: open %s: %w", s.file.Name, err)
		}
		runs, err = appendTextRuns(runs, rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: read %s: %w", s.file.Name, err)
		}
	}
	return runs, nil
}

// slideParts returns the slide entries sorted numerically, so slide10 follows slide9.
func slideParts(zr *zip.Reader) []slidePart {
	var parts []slidePart
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{num: n, file: f})
	}
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].num < parts[j].num })
	return parts
}

// appendTextRuns streams one slide part and appends the character data of each a:t element.
func appendTextRuns(runs []string, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		inText bool
		cur    strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return runs, nil
		}
		if err != nil {
			return runs, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if isTextElement(t.Name) {
				inText = true
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		case xml.EndElement:
			if inText && isTextElement(t.Name) {
				runs = append(runs, cur.String())
				inText = false
			}
		}
	}
}

// isTextElement reports whether name is a DrawingML text element. Parts that use the
// a: prefix without declaring it still match.
func isTextElement(name xml.Name) bool {
	return name.Local == "t" && (name.Space == drawingMLNamespace || name.Space == "a")
}
