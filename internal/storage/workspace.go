// Package storage manages the transient upload and output directories and
// reports their disk usage.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/upcase/internal/models"
)

// Workspace namespaces every upload and output by a per-request id so that
// concurrent requests for the same filename never share a path.
type Workspace struct {
	uploadDir string
	outputDir string
	logger    *zap.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WorkspaceOption {
	return func(w *Workspace) { w.logger = l }
}

// NewWorkspace returns a workspace rooted at the given directories. Call EnsureDirs before use.
func NewWorkspace(uploadDir, outputDir string, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		uploadDir: filepath.Clean(uploadDir),
		outputDir: filepath.Clean(outputDir),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// UploadDir returns the upload directory.
func (w *Workspace) UploadDir() string { return w.uploadDir }

// OutputDir returns the output directory.
func (w *Workspace) OutputDir() string { return w.outputDir }

// EnsureDirs creates the upload and output directories if they are missing.
func (w *Workspace) EnsureDirs() error {
	for _, dir := range []string{w.uploadDir, w.outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// SaveUpload streams r to uploads/<request-id><ext> and returns the stored file. The
// original name is kept on the returned file only. The partial file is removed if the
// copy fails.
func (w *Workspace) SaveUpload(name string, r io.Reader) (*models.UploadedFile, error) {
	id := uuid.NewString()
	format, _ := models.ParseFormat(name)
	path := filepath.Join(w.uploadDir, id+format.Ext())

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}
	w.logger.Debug("upload stored",
		zap.String("request_id", id),
		zap.String("path", path),
		zap.Int64("size", n))
	return &models.UploadedFile{
		RequestID:    id,
		OriginalName: name,
		Path:         path,
		Format:       format,
		Size:         n,
	}, nil
}

// OutputPath returns outputs/<request-id>/<base>_UPPER<ext>, creating the request directory.
func (w *Workspace) OutputPath(requestID, base string, format models.Format) (string, error) {
	if requestID == "" || strings.ContainsAny(requestID, `/\`) || requestID == "." || requestID == ".." {
		return "", fmt.Errorf("invalid request id %q", requestID)
	}
	dir := filepath.Join(w.outputDir, requestID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(dir, models.OutputName(safeBase(base), format)), nil
}

// Release removes path. When path sits in a per-request output directory, that
// directory is removed too once empty. Missing files are not an error.
func (w *Workspace) Release(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	dir := filepath.Dir(filepath.Clean(path))
	if filepath.Dir(dir) == w.outputDir {
		if err := os.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.logger.Debug("request dir not removed", zap.String("dir", dir), zap.Error(err))
		}
	}
	return nil
}

// safeBase keeps a base name usable as a single path element.
func safeBase(base string) string {
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		return "document"
	}
	return base
}
