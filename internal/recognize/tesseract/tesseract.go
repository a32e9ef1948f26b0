//go:build tesseract

// Package tesseract recognizes printed formulas locally with Tesseract.
// It needs libtesseract at build time.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/njchilds90/formsolve/internal/recognize"
)

const whitelist = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ+-*/=<>()[]{}^_.,|!√π×÷·≤≥≠≈∣∤∈∉⊂⊃ "

type Recognizer struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// New returns a recognizer for the given Tesseract languages, "eng" when
// none are named.
func New(languages ...string) *Recognizer {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Recognizer{languages: languages, clientFactory: gosseract.NewClient}
}

func (r *Recognizer) Name() string { return "tesseract" }

func (r *Recognizer) Recognize(ctx context.Context, img recognize.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", recognize.ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := r.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(r.languages...); err != nil {
		return "", fmt.Errorf("tesseract: set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("tesseract: set page mode: %w", err)
	}
	if err := c.SetWhitelist(whitelist); err != nil {
		return "", fmt.Errorf("tesseract: set whitelist: %w", err)
	}
	if err := c.SetImageFromBytes(img.Data); err != nil {
		return "", fmt.Errorf("tesseract: set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: recognize text: %w", err)
	}
	latex := recognize.PlainToLaTeX(text)
	if latex == "" {
		return "", recognize.ErrNoFormula
	}
	return latex, nil
}
