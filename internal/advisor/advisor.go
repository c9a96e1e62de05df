// Package advisor asks a generative model for advice about the user's finances.
// The model only ever sees derived figures, never the raw transaction log.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/dvloznov/finance-dashboard/internal/dashboard"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

// Advisor answers a question about a computed overview.
type Advisor interface {
	Advise(ctx context.Context, ov *dashboard.Overview, question string) (string, error)
}

// ContentGenerator is the subset of the genai models API the advisor needs.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options tune the Gemini call. Zero fields take defaults.
type Options struct {
	Model       string
	Timeout     time.Duration
	Temperature float32
}

// GeminiAdvisor implements Advisor with Gemini.
type GeminiAdvisor struct {
	models ContentGenerator
	opts   Options
}

// NewGeminiAdvisor creates a genai client from the environment
// (GOOGLE_API_KEY, or GOOGLE_GENAI_USE_VERTEXAI with project and location).
func NewGeminiAdvisor(ctx context.Context, opts Options) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiAdvisor: create genai client: %w", err)
	}
	return NewGeminiAdvisorWithGenerator(client.Models, opts), nil
}

// NewGeminiAdvisorWithGenerator uses an existing generator, e.g. a fake in tests.
func NewGeminiAdvisorWithGenerator(models ContentGenerator, opts Options) *GeminiAdvisor {
	if opts.Model == "" {
		opts.Model = DefaultModelName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &GeminiAdvisor{models: models, opts: opts}
}

func (a *GeminiAdvisor) Advise(ctx context.Context, ov *dashboard.Overview, question string) (string, error) {
	if ov == nil || ov.Snapshot == nil {
		return "", fmt.Errorf("Advise: overview is required")
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildPrompt(ov, question)}},
		},
	}

	var config *genai.GenerateContentConfig
	if a.opts.Temperature > 0 {
		temperature := a.opts.Temperature
		config = &genai.GenerateContentConfig{Temperature: &temperature}
	}

	resp, err := a.models.GenerateContent(ctx, a.opts.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Advise: generate content: %w", err)
	}

	advice := cleanModelText(resp.Text())
	if advice == "" {
		return "", fmt.Errorf("Advise: empty response from model")
	}
	return advice, nil
}

// cleanModelText removes a Markdown code fence wrapping the whole answer.
func cleanModelText(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```markdown).
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return strings.TrimSpace(strings.Trim(s, "`"))
		}
		s = s[idx+1:]
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
	}

	return strings.TrimSpace(s)
}

var _ Advisor = (*GeminiAdvisor)(nil)
