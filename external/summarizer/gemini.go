package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/sambhavnoobcoder/solvent-ai/internal/summarizer"
)

const geminiSystemInstruction = "Follow the instruction at the start of the user's message and reply with only the resulting text, without preamble or formatting."

// GeminiModel runs both summarization passes on a Gemini model.
type GeminiModel struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiModel(apiKey, model string) *GeminiModel {
	return &GeminiModel{apiKey: apiKey, model: model}
}

func (m *GeminiModel) Name() string {
	return m.model
}

func (m *GeminiModel) getClient(ctx context.Context) (*genai.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return m.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  m.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	m.client = client
	return client, nil
}

func (m *GeminiModel) Generate(ctx context.Context, prompt string, params summarizer.GenerationParams) (string, error) {
	client, err := m.getClient(ctx)
	if err != nil {
		return "", err
	}
	result, err := client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), generateConfig(params))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return textFromResponse(result)
}

// generateConfig maps seq2seq options onto Gemini: greedy decoding and an
// output cap. Beam search and n-gram blocking have no equivalent.
func generateConfig(p summarizer.GenerationParams) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(geminiSystemInstruction, genai.RoleUser),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}
	if !p.DoSample {
		cfg.Temperature = genai.Ptr[float32](0)
	}
	if p.MaxLength > 0 {
		cfg.MaxOutputTokens = int32(p.MaxLength)
	}
	return cfg
}

func textFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("empty response from Gemini")
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty response from Gemini")
	}
	return b.String(), nil
}
