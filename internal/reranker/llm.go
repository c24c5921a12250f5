package reranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/studykit/docsearch/pkg/types"
)

const (
	// DefaultClaudeModel is the Bedrock model used for LLM reranking
	DefaultClaudeModel = "anthropic.claude-3-5-haiku-20241022-v1:0"

	anthropicVersion = "bedrock-2023-05-31"
	maxRerankTokens  = 512

	// maxPassageChars truncates passages in the rerank prompt to bound cost
	maxPassageChars = 600
)

// LLMReranker asks a Bedrock-hosted model to order candidate passages by
// relevance to the query. Any protocol or parsing failure is an error; the
// orchestrator handles it by keeping the pre-rerank order.
type LLMReranker struct {
	client  *bedrockruntime.Client
	modelID string
	logger  zerolog.Logger
}

// NewLLMReranker creates a Bedrock-backed reranker in the given region.
func NewLLMReranker(ctx context.Context, region, modelID string, logger zerolog.Logger) (*LLMReranker, error) {
	if region == "" {
		return nil, errors.New("AWS region is required for LLM reranking")
	}
	if modelID == "" {
		modelID = DefaultClaudeModel
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}

	return &LLMReranker{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		logger:  logger,
	}, nil
}

// Name implements Reranker.
func (r *LLMReranker) Name() string { return "llm:" + r.modelID }

type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Rerank implements Reranker.
func (r *LLMReranker) Rerank(ctx context.Context, query string, candidates []types.ScoredHit) ([]types.ScoredHit, error) {
	if len(candidates) < 2 {
		return candidates, nil
	}

	payload, err := json.Marshal(claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxRerankTokens,
		Temperature:      0,
		Messages: []claudeMessage{
			{Role: "user", Content: r.buildPrompt(query, candidates)},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal rerank request")
	}

	output, err := r.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(r.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "invoke rerank model")
	}

	var resp claudeMessageResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, errors.Wrap(err, "parse rerank response")
	}
	if len(resp.Content) == 0 {
		return nil, errors.New("empty rerank response")
	}

	order, err := parseOrder(resp.Content[0].Text, len(candidates))
	if err != nil {
		return nil, err
	}

	reordered := make([]types.ScoredHit, len(candidates))
	for i, idx := range order {
		reordered[i] = candidates[idx]
	}

	if err := ValidatePermutation(candidates, reordered); err != nil {
		return nil, err
	}

	return reordered, nil
}

func (r *LLMReranker) buildPrompt(query string, candidates []types.ScoredHit) string {
	var b strings.Builder
	b.WriteString("Order the following passages from most to least relevant to the query.\n")
	b.WriteString("Respond with ONLY a JSON array of passage numbers, e.g. [2,0,1].\n\n")
	fmt.Fprintf(&b, "Query: %s\n\n", query)
	for i, c := range candidates {
		text := c.Text
		if len(text) > maxPassageChars {
			text = text[:maxPassageChars]
		}
		fmt.Fprintf(&b, "Passage %d: %s\n\n", i, text)
	}
	return b.String()
}

// parseOrder extracts a permutation of [0,n) from the model's reply.
func parseOrder(text string, n int) ([]int, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, errors.Newf("no JSON array in rerank reply: %q", text)
	}

	var order []int
	if err := json.Unmarshal([]byte(text[start:end+1]), &order); err != nil {
		return nil, errors.Wrap(err, "parse rerank order")
	}
	if len(order) != n {
		return nil, errors.Newf("rerank order has %d entries, want %d", len(order), n)
	}

	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return nil, errors.Newf("rerank order is not a permutation: %v", order)
		}
		seen[idx] = true
	}

	return order, nil
}
