package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/upcase/internal/convert"
	"github.com/hyperjump/upcase/internal/models"
)

// Plain-text bodies returned by the upload endpoint.
const (
	msgNoFile          = "No file uploaded"
	msgUnsupported     = "Unsupported file format"
	msgProcessingError = "Error processing file"
	msgTooLarge        = "File too large"
)

// uploadField is the multipart field carrying the document.
const uploadField = "file"

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if limit := s.config.Convert.MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	file, header, err := r.FormFile(uploadField)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.logger.Info("upload rejected", zap.Int64("limit", tooLarge.Limit))
			s.respondText(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		s.logger.Debug("no file in request", zap.Error(err))
		s.respondText(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	if format, ok := models.ParseFormat(header.Filename); !ok {
		s.logger.Info("unsupported upload",
			zap.String("filename", header.Filename),
			zap.String("format", string(format)))
		s.respondText(w, http.StatusBadRequest, msgUnsupported)
		return
	}

	up, err := s.workspace.SaveUpload(header.Filename, file)
	if err != nil {
		s.logger.Error("save upload failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondText(w, http.StatusInternalServerError, msgProcessingError)
		return
	}
	defer s.release(up.Path)
	log := s.logger.With(
		zap.String("request_id", up.RequestID),
		zap.String("filename", up.OriginalName),
		zap.String("format", string(up.Format)))

	out, err := s.converter.Convert(r.Context(), up)
	if err != nil {
		var perr *convert.ProcessingError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			// middleware.Timeout answers with 504 once the handler returns.
			log.Warn("conversion timed out", zap.Error(err))
		case errors.Is(err, convert.ErrUnsupportedFormat):
			s.respondText(w, http.StatusBadRequest, msgUnsupported)
		case errors.As(err, &perr):
			log.Error("conversion failed", zap.String("stage", string(perr.Stage)), zap.Error(perr.Err))
			s.respondText(w, http.StatusInternalServerError, msgProcessingError)
		default:
			log.Error("conversion failed", zap.Error(err))
			s.respondText(w, http.StatusInternalServerError, msgProcessingError)
		}
		return
	}
	defer s.release(out.Path)

	s.sendFile(w, out, log)
}

// sendFile streams the output as an attachment. Errors after the header is written
// are logged only.
func (s *Server) sendFile(w http.ResponseWriter, out *models.OutputFile, log *zap.Logger) {
	f, err := os.Open(out.Path)
	if err != nil {
		log.Error("open output failed", zap.Error(err))
		s.respondText(w, http.StatusInternalServerError, msgProcessingError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		log.Error("stat output failed", zap.Error(err))
		s.respondText(w, http.StatusInternalServerError, msgProcessingError)
		return
	}
	w.Header().Set("Content-Type", out.Format.ContentType())
	w.Header().Set("Content-Disposition", contentDisposition(out.DownloadName))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.Warn("download interrupted", zap.Error(err))
	}
}

func (s *Server) release(path string) {
	if err := s.workspace.Release(path); err != nil {
		s.logger.Warn("cleanup failed", zap.String("path", path), zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := models.Status{
		Formats:        models.SupportedExtensions(),
		UploadDir:      s.workspace.UploadDir(),
		OutputDir:      s.workspace.OutputDir(),
		MaxUploadBytes: s.config.Convert.MaxUploadBytes,
	}
	diskBytes, err := s.workspace.Usage()
	if err != nil {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	} else {
		status.DiskUsageBytes = &diskBytes
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}

// contentDisposition returns an attachment header for name, quoting plain ASCII
// names directly and falling back to RFC 2231 encoding otherwise.
func contentDisposition(name string) string {
	plain := name != ""
	for _, r := range name {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			plain = false
			break
		}
	}
	if plain {
		return `attachment; filename="` + name + `"`
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment; filename=\"" + strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, name) + "\""
}
