// Package embedder generates vector embeddings for text chunks and queries.
//
// The concrete backend hides behind the Provider interface: a remote
// model-serving endpoint is preferred, with a locally computable model as
// transparent fallback. Remote calls are retried with bounded exponential
// backoff and each request respects its own timeout, so a dead endpoint
// delays a caller by at most a few seconds before the fallback takes over.
//
//	provider, err := embedder.New(embedder.Config{
//	    PreferredURL: "http://gpu-rig:8005",
//	    Model:        "qwen",
//	    Dimension:    768,
//	})
//	vectors, err := provider.EmbedBatch(ctx, texts)
//
// When every backend fails the error wraps types.ErrEmbeddingUnavailable;
// ingestion treats that as "store the document without vectors", never as a
// reason to abort.
//
// Vectors are cached in an LRU keyed by the SHA-256 of the input text, shared
// across the provider chain so a fallback hit still warms the cache for the
// preferred backend.
package embedder
