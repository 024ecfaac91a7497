package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorCode is the machine-readable error identifier in error bodies.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeNoFileSelected         ErrorCode = "no_file_selected"
	ErrorCodeInvalidMarks           ErrorCode = "invalid_marks"
	ErrorCodeNegativeMarks          ErrorCode = "negative_marks"
	ErrorCodeMarksTooLarge          ErrorCode = "marks_too_large"
	ErrorCodeDocumentTooLarge       ErrorCode = "document_too_large"
	ErrorCodeUnsupportedDocument    ErrorCode = "unsupported_document"
	ErrorCodeOCRFailed              ErrorCode = "ocr_failed"
	ErrorCodeOCRUnavailable         ErrorCode = "ocr_unavailable"
	ErrorCodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeShapeMismatch          ErrorCode = "shape_mismatch"
	ErrorCodeComparatorOutput       ErrorCode = "comparator_output"
	ErrorCodeTempStorage            ErrorCode = "temp_storage"
	ErrorCodeTimeout                ErrorCode = "timeout"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code  ErrorCode `json:"code"`
	Stage string    `json:"stage,omitempty"`
	Error string    `json:"error"`
}

// ScoreResponse is the body of a successful POST /api/calculate.
type ScoreResponse struct {
	OCRText     string  `json:"ocr_text"`
	ScaledScore float64 `json:"scaled_score"`
	Similarity  float64 `json:"similarity"`
	Marks       float64 `json:"marks"`
}

// UsageResponse is the body of GET /api/usage.
type UsageResponse struct {
	Period          string     `json:"period"`
	PeriodStartAt   *time.Time `json:"period_start_at,omitempty"`
	PeriodEndAt     *time.Time `json:"period_end_at,omitempty"`
	TokensUsed      int64      `json:"tokens_used"`
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GetUsageParams are the query parameters of GET /api/usage.
type GetUsageParams struct {
	Period *string `form:"period,omitempty" json:"period,omitempty"`
}

// ServerInterface lists the API operations.
type ServerInterface interface {
	// Calculate handles POST /api/calculate.
	Calculate(w http.ResponseWriter, r *http.Request)
	// GetUsage handles GET /api/usage.
	GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams)
	// HealthCheck handles GET /health.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ServerOptions configures route registration.
type ServerOptions struct {
	BaseRouter chi.Router
	// ErrorHandlerFunc answers requests whose parameters fail to bind.
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions registers the API routes on options.BaseRouter.
func HandlerWithOptions(si ServerInterface, options ServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	onBindError := options.ErrorHandlerFunc
	if onBindError == nil {
		onBindError = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	r.Post("/api/calculate", si.Calculate)
	r.Get("/api/usage", func(w http.ResponseWriter, r *http.Request) {
		var params GetUsageParams
		if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &params.Period); err != nil {
			onBindError(w, r, err)
			return
		}
		si.GetUsage(w, r, params)
	})
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}
