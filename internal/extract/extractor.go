// Package extract reads the text out of DOCX, PDF and PPTX documents.
package extract

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/upcase/internal/models"
)

// ErrUnsupported is returned for formats the extractor cannot read.
var ErrUnsupported = errors.New("unsupported format")

// Extractor extracts text from document files.
type Extractor struct {
	logger *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text, using the extension to pick the format.
func (e *Extractor) Extract(path string) (models.Text, models.Format, error) {
	format, ok := models.ParseFormat(path)
	if !ok {
		return models.Text{}, format, fmt.Errorf("%w: %q", ErrUnsupported, format)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return models.Text{}, format, fmt.Errorf("read file: %w", err)
	}
	text, err := e.ExtractBytes(content, format)
	return text, format, err
}

// ExtractBytes extracts text from content of the given format.
// DOCX and PDF yield a single body; PPTX yields one run per <a:t> element.
func (e *Extractor) ExtractBytes(content []byte, format models.Format) (models.Text, error) {
	var (
		text models.Text
		err  error
	)
	switch format {
	case models.FormatDOCX:
		text.Body, err = extractDOCX(content)
	case models.FormatPDF:
		text.Body, err = extractPDF(content)
	case models.FormatPPTX:
		text.Runs, err = extractPPTX(content)
	default:
		return models.Text{}, fmt.Errorf("%w: %q", ErrUnsupported, format)
	}
	if err != nil {
		return models.Text{}, err
	}
	e.logger.Debug("text extracted",
		zap.String("format", string(format)),
		zap.Int("bytes", len(content)),
		zap.Int("chars", len(text.Body)),
		zap.Int("runs", len(text.Runs)))
	return text, nil
}
