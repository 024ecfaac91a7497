package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFileSelected signals an upload without a filename.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrMissingFields signals a request without file, text or marks.
	ErrMissingFields = errors.New("file, text, or marks not provided")
	// ErrNegativeMarks signals a negative maximum mark.
	ErrNegativeMarks = errors.New("marks must be non-negative")
	// ErrInvalidMarks signals a NaN, infinite or unparsable maximum mark.
	ErrInvalidMarks = errors.New("marks must be a finite number")
	// ErrMarksTooLarge signals marks above the configured ceiling.
	ErrMarksTooLarge = errors.New("marks exceed the configured maximum")
	// ErrDocumentTooLarge signals an upload over the size limit.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrUnsupportedDocument signals a file type no extractor handles.
	ErrUnsupportedDocument = errors.New("unsupported document type")
	// ErrOCRFailed signals a text extraction failure.
	ErrOCRFailed = errors.New("text extraction failed")
	// ErrOCRUnavailable signals that the configured OCR engine is not usable in this build.
	ErrOCRUnavailable = errors.New("ocr engine unavailable")

	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")

	// ErrShapeMismatch signals an embedding whose dimension does not match the comparator.
	ErrShapeMismatch = errors.New("embedding dimension mismatch")
	// ErrComparatorOutput signals a similarity outside (0, 1), e.g. NaN from malformed input.
	ErrComparatorOutput = errors.New("comparator produced an invalid similarity")

	// ErrTempStorage signals a failure to persist or release the temporary artifact.
	ErrTempStorage = errors.New("temporary storage failure")
)

// Stage names the pipeline step that failed.
type Stage string

// Pipeline stages.
const (
	StageValidation Stage = "validation"
	StageStorage    Stage = "storage"
	StageOCR        Stage = "ocr"
	StageEmbedding  Stage = "embedding"
	StageComparator Stage = "comparator"
)

// PipelineError is a terminal scoring failure tagged with the stage that produced it.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError wraps err with the failing stage.
func NewPipelineError(stage Stage, err error) error {
	return &PipelineError{Stage: stage, Err: err}
}

// StageOf returns the stage of a PipelineError in err's chain, or "" if there is none.
func StageOf(err error) Stage {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
