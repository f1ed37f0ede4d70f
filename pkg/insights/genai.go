package insights

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GenAIConfig configures the Gemini-backed generator.
type GenAIConfig struct {
	APIKey string
	// HTTPTimeout bounds each HTTP round trip made by the SDK.
	HTTPTimeout time.Duration
}

// GenAIGenerator sends requests to Gemini through the genai SDK.
type GenAIGenerator struct {
	client *genai.Client
}

// NewGenAIGenerator creates a Gemini client for the Gemini API backend.
func NewGenAIGenerator(ctx context.Context, cfg GenAIConfig) (*GenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.HTTPTimeout > 0 {
		timeout := cfg.HTTPTimeout
		cc.HTTPOptions = genai.HTTPOptions{Timeout: &timeout}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("insights: create genai client: %w", err)
	}
	return &GenAIGenerator{client: client}, nil
}

// Generate implements Generator.
func (g *GenAIGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), generateConfig(req))
	if err != nil {
		return Response{}, err
	}
	if resp == nil {
		return Response{}, ErrMalformedResponse
	}
	out := Response{Text: resp.Text()}
	if req.Grounded {
		out.Sources = groundingSources(resp)
	}
	return out, nil
}

func generateConfig(req Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.Grounded {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(req.ThinkingBudget)}
	}
	return config
}

// groundingSources lifts web chunks from the first candidate. Filtering happens in NormalizeSources.
func groundingSources(resp *genai.GenerateContentResponse) []Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	sources := make([]Source, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			sources = append(sources, Source{})
			continue
		}
		sources = append(sources, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}
