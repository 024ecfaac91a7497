package autoeval

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/autoeval/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check an *APIError against them.
var (
	ErrNoFileSelected         = domain.ErrNoFileSelected
	ErrMissingFields          = domain.ErrMissingFields
	ErrNegativeMarks          = domain.ErrNegativeMarks
	ErrInvalidMarks           = domain.ErrInvalidMarks
	ErrMarksTooLarge          = domain.ErrMarksTooLarge
	ErrDocumentTooLarge       = domain.ErrDocumentTooLarge
	ErrUnsupportedDocument    = domain.ErrUnsupportedDocument
	ErrOCRFailed              = domain.ErrOCRFailed
	ErrOCRUnavailable         = domain.ErrOCRUnavailable
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrShapeMismatch          = domain.ErrShapeMismatch
	ErrComparatorOutput       = domain.ErrComparatorOutput
	ErrTempStorage            = domain.ErrTempStorage
	ErrUnauthorized           = errors.New("unauthorized")
)

var sentinelByCode = map[string]error{
	"no_file_selected":         ErrNoFileSelected,
	"invalid_marks":            ErrInvalidMarks,
	"negative_marks":           ErrNegativeMarks,
	"marks_too_large":          ErrMarksTooLarge,
	"document_too_large":       ErrDocumentTooLarge,
	"unsupported_document":     ErrUnsupportedDocument,
	"ocr_failed":               ErrOCRFailed,
	"ocr_unavailable":          ErrOCRUnavailable,
	"embedding_quota_exceeded": ErrEmbeddingQuotaExceeded,
	"embedding_provider_error": ErrEmbeddingProviderError,
	"shape_mismatch":           ErrShapeMismatch,
	"comparator_output":        ErrComparatorOutput,
	"temp_storage":             ErrTempStorage,
	"unauthorized":             ErrUnauthorized,
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string // machine code, e.g. "ocr_failed"
	Stage      string // pipeline stage, empty outside scoring
	Message    string
}

func (e *APIError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("autoeval: %d %s (%s): %s", e.StatusCode, e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("autoeval: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is matches the sentinel that corresponds to the error code.
func (e *APIError) Is(target error) bool {
	if e.Code == "bad_request" {
		return target == ErrMissingFields && e.Message == ErrMissingFields.Error()
	}
	s, ok := sentinelByCode[e.Code]
	return ok && s == target
}
