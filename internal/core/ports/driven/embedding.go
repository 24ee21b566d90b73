package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// This is an external capability with an explicit failure boundary:
// calls are subject to the caller's context timeout and a failed call
// is retryable, never fatal to the batch.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector
	// per input in input order. Inputs that fail individually are
	// reported as nil vectors with a non-nil entry in the returned
	// error slice; the overall error is non-nil only when the whole
	// call failed.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, []error, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}

// ClassifierService assigns a content-type label to text.
// External capability, same failure boundary as EmbeddingService.
type ClassifierService interface {
	// Classify returns a label from the fixed content-type set plus a
	// confidence in [0, 1].
	Classify(ctx context.Context, text string) (label string, confidence float64, err error)
}
