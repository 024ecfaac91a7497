package domain

// KeyPrefix namespaces every key autoeval writes to the key-value store.
const KeyPrefix = "autoeval:"

// ModelConfig describes the trained scoring configuration.
type ModelConfig struct {
	EmbeddingModel string
	Dimensions     int
	HiddenDim      int
}

// DefaultModelConfig returns the configuration the comparator was trained with
// (paraphrase-MiniLM-L6-v2 sentence embeddings, 128 hidden units).
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		EmbeddingModel: "sentence-transformers/paraphrase-MiniLM-L6-v2",
		Dimensions:     384,
		HiddenDim:      128,
	}
}
