// Package openai recognizes formulas with an OpenAI vision model.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/njchilds90/formsolve/internal/recognize"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Recognizer implements recognize.Recognizer on the Chat Completions API.
type Recognizer struct {
	client *openai.Client
	config Config
}

func New(config Config) (*Recognizer, error) {
	if config.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &Recognizer{client: openai.NewClientWithConfig(clientConfig), config: config}, nil
}

func (r *Recognizer) Name() string { return "openai" }

func (r *Recognizer) Recognize(ctx context.Context, img recognize.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", recognize.ErrEmptyImage
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: r.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: recognize.Prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: img.DataURL(), Detail: openai.ImageURLDetailHigh},
					},
				},
			},
		},
		MaxTokens:   300,
		Temperature: 0,
	}
	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", recognize.ErrNoFormula
	}
	latex := recognize.StripMath(strings.TrimSpace(resp.Choices[0].Message.Content))
	if latex == "" {
		return "", recognize.ErrNoFormula
	}
	return latex, nil
}
