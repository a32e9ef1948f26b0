package main

import (
	"fmt"
	"log/slog"

	"github.com/njchilds90/formsolve/internal/config"
	"github.com/njchilds90/formsolve/internal/recognize"
	"github.com/njchilds90/formsolve/internal/recognize/gemini"
	"github.com/njchilds90/formsolve/internal/recognize/openai"
)

// newRecognizer builds the configured OCR backend wrapped in retries.
func newRecognizer(cfg config.Config, logger *slog.Logger) (recognize.Recognizer, error) {
	var (
		rec recognize.Recognizer
		err error
	)
	rc := cfg.Recognizer
	switch rc.Provider {
	case "openai":
		rec, err = openai.New(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   rc.Model,
			Timeout: rc.Timeout,
		})
	case "gemini":
		rec, err = gemini.New(gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   rc.Model,
			Timeout: rc.Timeout,
		})
	case "tesseract":
		rec, err = newTesseract()
	default:
		err = fmt.Errorf("unknown recognizer provider %q", rc.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("recognizer %s: %w", rc.Provider, err)
	}
	return recognize.WithRetry(rec, rc.Attempts, rc.Delay, logger), nil
}
