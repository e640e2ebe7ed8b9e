// Package cli provides output helpers for the upcase command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/upcase/internal/models"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// ExtractResult is the text pulled out of one document.
type ExtractResult struct {
	File   string        `json:"file"`
	Format models.Format `json:"format"`
	Body   string        `json:"body,omitempty"`
	Runs   []string      `json:"runs,omitempty"`
}

// NewExtractResult builds a result from extracted text.
func NewExtractResult(file string, format models.Format, text models.Text) *ExtractResult {
	return &ExtractResult{File: file, Format: format, Body: text.Body, Runs: text.Runs}
}

// WriteExtract writes an extraction result to w in the given format.
// Text output prints a PPTX run per line, prefixed with its slide number.
func WriteExtract(w io.Writer, res *ExtractResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	if res.Format.Segmented() {
		for i, run := range res.Runs {
			if _, err := fmt.Fprintf(w, "[%d] %s\n", i+1, run); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := fmt.Fprintln(w, res.Body)
	return err
}

// WriteStatus writes the server status to w in the given format.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "formats:            %s\n", strings.Join(status.Formats, ", "))
	fmt.Fprintf(&b, "upload_dir:         %s\n", status.UploadDir)
	fmt.Fprintf(&b, "output_dir:         %s\n", status.OutputDir)
	fmt.Fprintf(&b, "max_upload_bytes:   %d\n", status.MaxUploadBytes)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(&b, "disk_usage_bytes:   %d   # uploads + outputs on disk\n", *status.DiskUsageBytes)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
