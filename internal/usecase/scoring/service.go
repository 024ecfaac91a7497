// Package scoring grades a submitted answer document against a reference answer.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/autoeval/internal/domain"
	"github.com/kailas-cloud/autoeval/internal/logger"
	"github.com/kailas-cloud/autoeval/internal/metrics"
)

// Request is one scoring call.
type Request struct {
	Document      domain.RawDocument
	ReferenceText string
	// Marks is the maximum mark for the question; the result is scaled to it.
	Marks float64
}

// Config holds pipeline limits.
type Config struct {
	// MaxMarks rejects marks above it when positive.
	MaxMarks float64
}

// Service runs extract → normalize → embed → compare → scale.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	store      ArtifactStore
	extractor  Extractor
	embedder   EmbeddingProvider
	comparator Comparator
	cfg        Config
	logger     *zap.Logger
}

// New creates a Service.
func New(
	store ArtifactStore, extractor Extractor,
	embedder EmbeddingProvider, comparator Comparator,
	cfg Config, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		extractor:  extractor,
		embedder:   embedder,
		comparator: comparator,
		cfg:        cfg,
		logger:     logger,
	}
}

// Score grades req. Every failure is a *domain.PipelineError naming the stage; no
// failure is turned into a default score.
func (s *Service) Score(ctx context.Context, req Request) (res domain.ScoreResult, err error) {
	start := time.Now()
	done := false
	defer func() { s.observe(start, res, err, done) }()

	if err := s.validate(req); err != nil {
		return domain.ScoreResult{}, domain.NewPipelineError(domain.StageValidation, err)
	}

	text, err := s.extract(ctx, req.Document)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	if err := ctx.Err(); err != nil {
		return domain.ScoreResult{}, domain.NewPipelineError(domain.StageEmbedding, err)
	}
	answer := domain.Normalize(text)
	reference := domain.Normalize(req.ReferenceText)

	a, b, err := s.embedder.EmbedPair(ctx, answer, reference)
	if err != nil {
		if errors.Is(err, domain.ErrShapeMismatch) {
			logger.FromContextOr(ctx, s.logger).Error("Embedding has unexpected shape", zap.Error(err))
		}
		return domain.ScoreResult{}, domain.NewPipelineError(domain.StageEmbedding, err)
	}

	sim, err := s.comparator.Compare(a, b)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Error("Comparator rejected embeddings",
			zap.Int("answer_dim", len(a)),
			zap.Int("reference_dim", len(b)),
			zap.Error(err),
		)
		return domain.ScoreResult{}, domain.NewPipelineError(domain.StageComparator, err)
	}

	done = true
	return domain.ScoreResult{
		ExtractedText: text,
		Similarity:    sim,
		Marks:         req.Marks,
		ScaledScore:   sim * req.Marks,
	}, nil
}

func (s *Service) validate(req Request) error {
	switch {
	case req.Document.Filename == "":
		return domain.ErrNoFileSelected
	case math.IsNaN(req.Marks) || math.IsInf(req.Marks, 0):
		return domain.ErrInvalidMarks
	case req.Marks < 0:
		return domain.ErrNegativeMarks
	case s.cfg.MaxMarks > 0 && req.Marks > s.cfg.MaxMarks:
		return fmt.Errorf("%g > %g: %w", req.Marks, s.cfg.MaxMarks, domain.ErrMarksTooLarge)
	}
	return nil
}

// extract stores the document, runs OCR and always releases the artifact, including on
// panic and cancellation.
func (s *Service) extract(ctx context.Context, doc domain.RawDocument) (string, error) {
	artifact, err := s.store.Save(doc.Filename, doc.Content)
	if err != nil {
		if !errors.Is(err, domain.ErrTempStorage) {
			err = fmt.Errorf("%w: %w", domain.ErrTempStorage, err)
		}
		return "", domain.NewPipelineError(domain.StageStorage, err)
	}
	defer s.release(ctx, artifact)

	text, err := s.extractor.ExtractText(ctx, artifact.Path())
	if err != nil {
		if !isOCRError(err) {
			err = fmt.Errorf("%w: %w", domain.ErrOCRFailed, err)
		}
		return "", domain.NewPipelineError(domain.StageOCR, err)
	}
	return text, nil
}

func (s *Service) release(ctx context.Context, a domain.Artifact) {
	if err := a.Release(); err != nil {
		metrics.TempCleanupFailuresTotal.Inc()
		logger.FromContextOr(ctx, s.logger).Error("Failed to release temporary artifact",
			zap.String("path", a.Path()),
			zap.Error(err),
		)
	}
}

func isOCRError(err error) bool {
	return errors.Is(err, domain.ErrOCRFailed) ||
		errors.Is(err, domain.ErrOCRUnavailable) ||
		errors.Is(err, domain.ErrUnsupportedDocument)
}

// observe records the outcome. done is false only when a collaborator panicked.
func (s *Service) observe(start time.Time, res domain.ScoreResult, err error, done bool) {
	outcome, stage := "success", "none"
	switch {
	case !done && err == nil:
		outcome = "panic"
	case err != nil:
		outcome = "error"
		if st := domain.StageOf(err); st != "" {
			stage = string(st)
		}
	default:
		metrics.ScoreSimilarity.Observe(res.Similarity)
	}
	metrics.ScoreRequestsTotal.WithLabelValues(outcome, stage).Inc()
	metrics.ScoreDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
