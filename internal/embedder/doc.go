// Package embedder generates vector embeddings for document passages.
//
// It supports multiple providers behind one interface: the OpenAI
// embeddings API, Amazon Titan on Bedrock, and a deterministic local stub
// for offline use. All providers share an LRU cache keyed by content hash
// and retry transient failures with exponential backoff.
//
// # Basic Usage
//
//	emb, err := embedder.NewFromEnv(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "Paris is the capital of France.",
//	})
//
// # Provider Selection
//
// The factory selects a provider from environment variables:
//
//  1. DOCSEARCH_EMBEDDING_PROVIDER set -> use that provider
//  2. OPENAI_API_KEY set -> OpenAI
//  3. AWS_REGION set -> Titan on Bedrock
//  4. Otherwise -> local stub (offline mode)
//
// # Error Handling
//
// Transient provider failures surface as ErrProviderFailed after retries
// are exhausted. The search orchestrator treats any embedder error as
// "backend unavailable" and degrades rather than failing the request.
package embedder
