package domain

// RawDocument is an uploaded answer sheet. It lives only for a single scoring call.
type RawDocument struct {
	Filename string
	Content  []byte
}

// ScoreResult is the outcome of scoring one document against a reference answer.
type ScoreResult struct {
	// ExtractedText is the raw OCR output, before normalization.
	ExtractedText string
	Similarity    float64
	Marks         float64
	// ScaledScore is Similarity * Marks.
	ScaledScore float64
}

// Artifact is a document persisted for the duration of one extraction call.
type Artifact interface {
	Path() string
	// Release removes the artifact. Calling it more than once is a no-op.
	Release() error
}
