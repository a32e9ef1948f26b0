// Package gemini recognizes formulas with a Google Gemini vision model.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/njchilds90/formsolve/internal/recognize"
)

const defaultModel = "gemini-1.5-flash"

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Recognizer struct {
	config Config
}

func New(config Config) (*Recognizer, error) {
	config.APIKey = strings.TrimSpace(config.APIKey)
	if config.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if config.Model = strings.TrimSpace(config.Model); config.Model == "" {
		config.Model = defaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Recognizer{config: config}, nil
}

func (r *Recognizer) Name() string { return "gemini" }

func (r *Recognizer) Recognize(ctx context.Context, img recognize.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", recognize.ErrEmptyImage
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	cl, err := genai.NewClient(ctx, option.WithAPIKey(r.config.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini: client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(r.config.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}

	resp, err := m.GenerateContent(ctx,
		genai.Text(recognize.Prompt),
		&genai.Blob{MIMEType: img.MIME, Data: img.Data},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	latex := recognize.StripMath(firstText(resp))
	if latex == "" {
		return "", recognize.ErrNoFormula
	}
	return latex, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
