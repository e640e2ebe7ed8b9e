package convert

import (
	"errors"
	"fmt"

	"github.com/hyperjump/upcase/internal/models"
)

// ErrUnsupportedFormat is returned when the upload's extension is not .docx, .pdf or .pptx.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Stage names the pipeline step a ProcessingError came from.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageGenerate Stage = "generate"
)

// ProcessingError reports a failure while reading the input or writing the output.
type ProcessingError struct {
	Stage  Stage
	Format models.Format
	Err    error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Format, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// recoverStage turns a panic raised by a parsing or writing library into a ProcessingError.
// It must be deferred directly.
func recoverStage(stage Stage, format models.Format, errp *error) {
	if r := recover(); r != nil {
		*errp = &ProcessingError{Stage: stage, Format: format, Err: fmt.Errorf("panic: %v", r)}
	}
}
