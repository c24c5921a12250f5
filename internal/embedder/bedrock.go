package embedder

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
)

const (
	// DefaultTitanModel is the Amazon Titan text embedding model
	DefaultTitanModel = "amazon.titan-embed-text-v2:0"
	// TitanDimension is the default output dimension of Titan v2
	TitanDimension = 1024
)

// TitanProvider implements Embedder using Amazon Bedrock's Titan embedding
// models. Titan has no batch endpoint, so GenerateBatch issues sequential
// InvokeModel calls.
type TitanProvider struct {
	client  *bedrockruntime.Client
	modelID string
	cache   *Cache
}

// NewTitanProvider creates a Bedrock-backed embedder in the given region.
func NewTitanProvider(ctx context.Context, region, modelID string, cache *Cache) (*TitanProvider, error) {
	if region == "" {
		return nil, errors.Wrap(ErrNoProviderEnabled, "AWS region not set")
	}
	if modelID == "" {
		modelID = DefaultTitanModel
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}

	return &TitanProvider{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		cache:   cache,
	}, nil
}

type titanEmbedRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

func (t *TitanProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	hash := ComputeHash(req.Text)
	if t.cache != nil {
		if emb, ok := t.cache.Get(hash); ok {
			return emb, nil
		}
	}

	payload, err := json.Marshal(titanEmbedRequest{InputText: req.Text})
	if err != nil {
		return nil, errors.Wrap(err, "marshal titan request")
	}

	config := DefaultRetryConfig()
	output, err := retryWithBackoff(ctx, config, func() (*bedrockruntime.InvokeModelOutput, error) {
		return t.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(t.modelID),
			Body:        payload,
			Accept:      aws.String("application/json"),
			ContentType: aws.String("application/json"),
		})
	})
	if err != nil {
		return nil, errors.Wrapf(ErrProviderFailed, "titan invoke: %v", err)
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, errors.Wrap(err, "parse titan response")
	}
	if len(resp.Embedding) == 0 {
		return nil, errors.Wrap(ErrProviderFailed, "empty titan embedding")
	}

	emb := &Embedding{
		Vector:    resp.Embedding,
		Dimension: len(resp.Embedding),
		Provider:  ProviderTitan,
		Model:     t.modelID,
		Hash:      hash,
	}

	if t.cache != nil {
		t.cache.Set(hash, emb)
	}

	return emb, nil
}

func (t *TitanProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	if len(req.Texts) > MaxBatchSize {
		return nil, errors.Wrapf(ErrBatchTooLarge, "max %d texts allowed", MaxBatchSize)
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := t.GenerateEmbedding(ctx, EmbeddingRequest{Text: text, Model: req.Model})
		if err != nil {
			return nil, errors.Wrapf(err, "embedding text %d", i)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderTitan,
		Model:      t.modelID,
	}, nil
}

func (t *TitanProvider) Dimension() int {
	return TitanDimension
}

func (t *TitanProvider) Provider() string {
	return ProviderTitan
}

func (t *TitanProvider) Model() string {
	return t.modelID
}

func (t *TitanProvider) Close() error {
	return nil
}
