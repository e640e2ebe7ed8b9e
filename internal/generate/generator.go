// Package generate builds DOCX, PDF and PPTX documents from transformed text.
package generate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/hyperjump/upcase/internal/models"
)

// ErrUnsupported is returned for formats the generator cannot write.
var ErrUnsupported = errors.New("unsupported format")

// Generator writes a new document of a given format holding the supplied text.
type Generator struct {
	fontPath string
	now      func() time.Time
	logger   *zap.Logger

	fontOnce sync.Once
	font     []byte
	fontErr  error
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithFontPath sets a TrueType font used for PDF output instead of the embedded Go Regular.
// An empty path keeps the embedded font.
func WithFontPath(path string) Option {
	return func(g *Generator) { g.fontPath = path }
}

// WithClock overrides the time recorded in document properties.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator returns a new Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes a document of the given format to w.
// DOCX and PDF use text.Body; PPTX uses text.Runs, one slide per run.
func (g *Generator) Generate(w io.Writer, text models.Text, format models.Format) error {
	switch format {
	case models.FormatDOCX:
		return g.writeDOCX(w, text.Body)
	case models.FormatPDF:
		return g.writePDF(w, text.Body)
	case models.FormatPPTX:
		return g.writePPTX(w, text.Runs)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, format)
	}
}

// WriteFile generates the document into a new file at path. The file is removed
// if generation fails.
func (g *Generator) WriteFile(path string, text models.Text, format models.Format) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	if err = g.Generate(f, text, format); err != nil {
		return err
	}
	g.logger.Debug("document generated", zap.String("path", path), zap.String("format", string(format)))
	return nil
}

// fontBytes returns the PDF font, reading a configured font file once.
func (g *Generator) fontBytes() ([]byte, error) {
	g.fontOnce.Do(func() {
		if g.fontPath == "" {
			g.font = goregular.TTF
			return
		}
		g.font, g.fontErr = os.ReadFile(g.fontPath)
		if g.fontErr != nil {
			g.fontErr = fmt.Errorf("load font: %w", g.fontErr)
		}
	})
	return g.font, g.fontErr
}
