package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sambhavnoobcoder/solvent-ai/internal/summarizer"
)

const (
	huggingFaceTimeout = 2 * time.Minute
	maxErrorBodyBytes  = 512
)

// HuggingFaceModel calls a hosted text2text/summarization model through the
// Hugging Face inference API.
type HuggingFaceModel struct {
	endpoint string
	model    string
	token    string
	client   *http.Client
}

func NewHuggingFaceModel(endpoint, model, token string) *HuggingFaceModel {
	return &HuggingFaceModel{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		token:    token,
		client:   &http.Client{Timeout: huggingFaceTimeout},
	}
}

func (m *HuggingFaceModel) Name() string {
	return m.model
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxLength         int     `json:"max_length,omitempty"`
	MinLength         int     `json:"min_length,omitempty"`
	NumBeams          int     `json:"num_beams,omitempty"`
	LengthPenalty     float64 `json:"length_penalty,omitempty"`
	NoRepeatNgramSize int     `json:"no_repeat_ngram_size,omitempty"`
	DoSample          bool    `json:"do_sample"`
	Truncation        string  `json:"truncation,omitempty"`
	MaxInputLength    int     `json:"max_input_length,omitempty"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

type hfOutput struct {
	SummaryText   string `json:"summary_text"`
	GeneratedText string `json:"generated_text"`
}

func newHFRequest(prompt string, p summarizer.GenerationParams) hfRequest {
	params := hfParameters{
		MaxLength:         p.MaxLength,
		MinLength:         p.MinLength,
		NumBeams:          p.NumBeams,
		LengthPenalty:     p.LengthPenalty,
		NoRepeatNgramSize: p.NoRepeatNgramSize,
		DoSample:          p.DoSample,
	}
	if p.Truncation > 0 {
		params.Truncation = "only_first"
		params.MaxInputLength = p.Truncation
	}
	return hfRequest{
		Inputs:     prompt,
		Parameters: params,
		Options:    hfOptions{WaitForModel: true},
	}
}

func (m *HuggingFaceModel) Generate(ctx context.Context, prompt string, params summarizer.GenerationParams) (string, error) {
	b, err := json.Marshal(newHFRequest(prompt, params))
	if err != nil {
		return "", fmt.Errorf("marshal inference request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint+"/"+m.model, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request to %s: %w", m.model, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read inference response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("model %s returned status %d: %s", m.model, resp.StatusCode, errorDetail(body))
	}
	return parseHFOutput(body)
}

func parseHFOutput(body []byte) (string, error) {
	var outputs []hfOutput
	if err := json.Unmarshal(body, &outputs); err != nil {
		var single hfOutput
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return "", fmt.Errorf("decode inference response: %w", err)
		}
		outputs = []hfOutput{single}
	}
	if len(outputs) == 0 {
		return "", fmt.Errorf("inference response has no outputs")
	}
	out := outputs[0]
	if out.SummaryText != "" {
		return out.SummaryText, nil
	}
	if out.GeneratedText != "" {
		return out.GeneratedText, nil
	}
	return "", fmt.Errorf("inference response has no generated text")
}

func errorDetail(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyBytes {
		cut := maxErrorBodyBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
