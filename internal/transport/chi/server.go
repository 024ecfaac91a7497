// Package chi exposes the scoring pipeline over HTTP with the go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/autoeval/internal/domain"
	"github.com/kailas-cloud/autoeval/internal/logger"
	healthuc "github.com/kailas-cloud/autoeval/internal/usecase/health"
	"github.com/kailas-cloud/autoeval/internal/usecase/scoring"
	usageuc "github.com/kailas-cloud/autoeval/internal/usecase/usage"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory.
const multipartMemory = 8 << 20

// Scorer grades one document.
type Scorer interface {
	Score(ctx context.Context, req scoring.Request) (domain.ScoreResult, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, stage string) bool

// Config holds HTTP-level limits.
type Config struct {
	// MaxUploadBytes caps the request body of POST /api/calculate.
	MaxUploadBytes int64
}

// Server implements ServerInterface.
type Server struct {
	scorer        Scorer
	usage         *usageuc.Service
	health        *healthuc.Service
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	scorer Scorer,
	usage *usageuc.Service,
	health *healthuc.Service,
	cfg Config,
	logger *zap.Logger,
) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		scorer: scorer,
		usage:  usage,
		health: health,
		cfg:    cfg,
		logger: logger,
	}
	// Context errors come first: collaborators wrap them in their own sentinels.
	s.errorHandlers = []errorHandler{
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeTimeout),
		sentinelHandler(context.Canceled, http.StatusGatewayTimeout, ErrorCodeTimeout),
		sentinelHandler(domain.ErrNoFileSelected, http.StatusBadRequest, ErrorCodeNoFileSelected),
		sentinelHandler(domain.ErrMissingFields, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrNegativeMarks, http.StatusBadRequest, ErrorCodeNegativeMarks),
		sentinelHandler(domain.ErrInvalidMarks, http.StatusBadRequest, ErrorCodeInvalidMarks),
		sentinelHandler(domain.ErrMarksTooLarge, http.StatusBadRequest, ErrorCodeMarksTooLarge),
		sentinelHandler(domain.ErrDocumentTooLarge, http.StatusRequestEntityTooLarge, ErrorCodeDocumentTooLarge),
		sentinelHandler(domain.ErrUnsupportedDocument,
			http.StatusUnsupportedMediaType, ErrorCodeUnsupportedDocument),
		sentinelHandler(domain.ErrOCRUnavailable, http.StatusServiceUnavailable, ErrorCodeOCRUnavailable),
		sentinelHandler(domain.ErrOCRFailed, http.StatusBadGateway, ErrorCodeOCRFailed),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, ErrorCodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrShapeMismatch, http.StatusInternalServerError, ErrorCodeShapeMismatch),
		sentinelHandler(domain.ErrComparatorOutput, http.StatusInternalServerError, ErrorCodeComparatorOutput),
		sentinelHandler(domain.ErrTempStorage, http.StatusInternalServerError, ErrorCodeTempStorage),
	}
	return s
}

// Calculate handles POST /api/calculate.
func (s *Server) Calculate(w http.ResponseWriter, r *http.Request) {
	tooLarge := domain.NewPipelineError(domain.StageValidation, domain.ErrDocumentTooLarge)
	if r.ContentLength > s.cfg.MaxUploadBytes {
		s.handleDomainError(w, r, tooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.handleDomainError(w, r, tooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "", "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req, err := s.calculateRequest(r.MultipartForm)
	if err != nil {
		s.handleDomainError(w, r, domain.NewPipelineError(domain.StageValidation, err))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.scorer.Score(ctx, req)
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ScoreResponse{
		OCRText:     res.ExtractedText,
		ScaledScore: res.ScaledScore,
		Similarity:  res.Similarity,
		Marks:       res.Marks,
	})
}

// calculateRequest reads the file, text and marks fields. A file part sent without a
// filename arrives as a plain value and becomes a document with an empty name.
func (s *Server) calculateRequest(form *multipart.Form) (scoring.Request, error) {
	texts, hasText := form.Value["text"]
	marksRaw, hasMarks := form.Value["marks"]
	headers := form.File["file"]
	_, hasEmptyFile := form.Value["file"]
	if !hasText || !hasMarks || (len(headers) == 0 && !hasEmptyFile) {
		return scoring.Request{}, domain.ErrMissingFields
	}

	marks, err := strconv.ParseFloat(strings.TrimSpace(marksRaw[0]), 64)
	if err != nil {
		return scoring.Request{}, domain.ErrInvalidMarks
	}

	req := scoring.Request{ReferenceText: texts[0], Marks: marks}
	if len(headers) == 0 {
		return req, nil
	}

	var file types.File
	file.InitFromMultipart(headers[0])
	if file.FileSize() > s.cfg.MaxUploadBytes {
		return scoring.Request{}, domain.ErrDocumentTooLarge
	}
	content, err := file.Bytes()
	if err != nil {
		return scoring.Request{}, domain.ErrMissingFields
	}
	req.Document = domain.RawDocument{Filename: file.Filename(), Content: content}
	return req, nil
}

// GetUsage handles GET /api/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams) {
	raw := ""
	if params.Period != nil {
		raw = *params.Period
	}
	period, ok := domain.ParsePeriod(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "",
			"period must be one of day, month, total")
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	resp := UsageResponse{
		Period:          string(report.Period),
		TokensUsed:      report.TokensUsed,
		TokensLimit:     report.TokensLimit,
		TokensRemaining: report.TokensRemaining,
		IsExhausted:     report.Exhausted,
	}
	if report.PeriodStart > 0 {
		start := time.UnixMilli(report.PeriodStart).UTC()
		end := time.UnixMilli(report.PeriodEnd).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, stage, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:  code,
		Stage: stage,
		Error: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel text only, never the wrapped chain.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, stage string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, stage, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	stage := string(domain.StageOf(err))
	for _, h := range s.errorHandlers {
		if h(w, err, stage) {
			log.Warn("scoring failed", zap.String("stage", stage), zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.String("stage", stage), zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, stage, "internal error")
}
