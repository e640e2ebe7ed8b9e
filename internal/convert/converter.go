// Package convert runs the conversion pipeline: detect the format, extract the text,
// uppercase it and build a new document of the same format.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/upcase/internal/extract"
	"github.com/hyperjump/upcase/internal/generate"
	"github.com/hyperjump/upcase/internal/models"
	"github.com/hyperjump/upcase/internal/transform"
	"github.com/hyperjump/upcase/pkg/utils"
)

const previewLen = 80

// OutputStore hands out per-request output paths and removes them again.
type OutputStore interface {
	OutputPath(requestID, base string, format models.Format) (string, error)
	Release(path string) error
}

// TextExtractor reads the text of a document.
type TextExtractor interface {
	ExtractBytes(content []byte, format models.Format) (models.Text, error)
}

// DocumentWriter writes a document holding text to a file.
type DocumentWriter interface {
	WriteFile(path string, text models.Text, format models.Format) error
}

// Converter converts uploaded documents.
type Converter struct {
	store     OutputStore
	extractor TextExtractor
	generator DocumentWriter
	logger    *zap.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithExtractor replaces the default extractor.
func WithExtractor(e TextExtractor) Option {
	return func(c *Converter) { c.extractor = e }
}

// WithGenerator replaces the default generator.
func WithGenerator(g DocumentWriter) Option {
	return func(c *Converter) { c.generator = g }
}

// New returns a Converter writing outputs through store.
func New(store OutputStore, opts ...Option) *Converter {
	c := &Converter{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = utils.NopIfNil(c.logger)
	if c.extractor == nil {
		c.extractor = extract.NewExtractor(extract.WithLogger(c.logger))
	}
	if c.generator == nil {
		c.generator = generate.NewGenerator(generate.WithLogger(c.logger))
	}
	return c
}

// Convert processes an uploaded file into outputs/<request-id>/<base>_UPPER<ext>.
// An unsupported extension returns ErrUnsupportedFormat before any output path is created.
// Every other failure is a *ProcessingError.
func (c *Converter) Convert(ctx context.Context, up *models.UploadedFile) (*models.OutputFile, error) {
	format, ok := models.ParseFormat(up.OriginalName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	text, err := c.readText(ctx, up.Path, format)
	if err != nil {
		return nil, err
	}
	if err := checkContext(ctx, StageGenerate, format); err != nil {
		return nil, err
	}
	path, err := c.store.OutputPath(up.RequestID, up.BaseName(), format)
	if err != nil {
		return nil, &ProcessingError{Stage: StageGenerate, Format: format, Err: err}
	}
	if err := c.write(path, text, format); err != nil {
		if rerr := c.store.Release(path); rerr != nil {
			c.logger.Warn("release failed output", zap.String("path", path), zap.Error(rerr))
		}
		return nil, err
	}
	c.logger.Info("file converted",
		zap.String("request_id", up.RequestID),
		zap.String("filename", up.OriginalName),
		zap.String("format", string(format)))
	return &models.OutputFile{
		RequestID:    up.RequestID,
		Path:         path,
		DownloadName: filepath.Base(path),
		Format:       format,
	}, nil
}

// ConvertFile converts the local file at src into outDir and returns the output path.
func (c *Converter) ConvertFile(ctx context.Context, src, outDir string) (string, error) {
	format, ok := models.ParseFormat(src)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	text, err := c.readText(ctx, src, format)
	if err != nil {
		return "", err
	}
	if err := checkContext(ctx, StageGenerate, format); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", &ProcessingError{Stage: StageGenerate, Format: format, Err: err}
	}
	dst := filepath.Join(outDir, models.OutputName(models.BaseName(src), format))
	if err := c.write(dst, text, format); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// readText extracts and transforms the text of src.
func (c *Converter) readText(ctx context.Context, src string, format models.Format) (models.Text, error) {
	if err := checkContext(ctx, StageExtract, format); err != nil {
		return models.Text{}, err
	}
	content, err := os.ReadFile(src)
	if err != nil {
		return models.Text{}, &ProcessingError{Stage: StageExtract, Format: format, Err: err}
	}
	text, err := c.extract(content, format)
	if err != nil {
		return models.Text{}, err
	}
	if err := checkContext(ctx, StageExtract, format); err != nil {
		return models.Text{}, err
	}
	out := transform.Apply(text)
	c.logger.Debug("text transformed",
		zap.String("format", string(format)),
		zap.String("preview", utils.Preview(out.String(), previewLen)))
	return out, nil
}

func (c *Converter) extract(content []byte, format models.Format) (text models.Text, err error) {
	defer recoverStage(StageExtract, format, &err)
	text, err = c.extractor.ExtractBytes(content, format)
	if err != nil {
		return models.Text{}, &ProcessingError{Stage: StageExtract, Format: format, Err: err}
	}
	return text, nil
}

func (c *Converter) write(dst string, text models.Text, format models.Format) (err error) {
	defer recoverStage(StageGenerate, format, &err)
	if err := c.generator.WriteFile(dst, text, format); err != nil {
		return &ProcessingError{Stage: StageGenerate, Format: format, Err: err}
	}
	return nil
}

func checkContext(ctx context.Context, stage Stage, format models.Format) error {
	if err := ctx.Err(); err != nil {
		return &ProcessingError{Stage: stage, Format: format, Err: err}
	}
	return nil
}
