// Package pipeline runs recognized LaTeX through correction, relation
// extraction, classification and formatting.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/njchilds90/formsolve/internal/classify"
	"github.com/njchilds90/formsolve/internal/correct"
	"github.com/njchilds90/formsolve/internal/display"
	"github.com/njchilds90/formsolve/internal/format"
	"github.com/njchilds90/formsolve/internal/recognize"
	"github.com/njchilds90/formsolve/internal/relation"
)

// Engine is everything the pipeline needs from the symbolic engine.
type Engine interface {
	classify.Engine
	format.Engine
}

var normalizer = strings.NewReplacer(
	`\left(`, "(",
	`\right)`, ")",
	`\left[`, "[",
	`\right]`, "]",
	`\cdot`, "*",
	`\times`, "*",
	`\div`, "/",
)

type Pipeline struct {
	classifier *classify.Classifier
	formatter  *format.Formatter
	logger     *slog.Logger
}

func New(engine Engine, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		classifier: classify.New(engine, logger),
		formatter:  format.New(engine),
		logger:     logger,
	}
}

// Normalize applies the OCR correction table and rewrites operator
// commands into the plain forms the engine parses.
func Normalize(raw string) string {
	return normalize(correct.Apply(raw))
}

func normalize(corrected string) string {
	return strings.TrimSpace(normalizer.Replace(corrected))
}

// Classify returns the typed result for raw LaTeX without formatting it.
func (p *Pipeline) Classify(raw string) classify.Result {
	return p.classify(p.correct(raw))
}

func (p *Pipeline) correct(raw string) string {
	out := correct.Apply(raw)
	if out != raw {
		p.logger.Debug("ocr corrected latex", "before", raw, "after", out)
	}
	return out
}

func (p *Pipeline) classify(corrected string) classify.Result {
	cleaned := normalize(corrected)
	if m, ok := relation.Extract(cleaned); ok {
		p.logger.Debug("relation found", "token", m.Symbol.Token, "left", m.Left, "right", m.Right)
		return p.classifier.Classify(cleaned, &m)
	}
	return p.classifier.Classify(cleaned, nil)
}

// Process turns raw recognized LaTeX into a display record. It never
// panics, and Expression always holds the display form of the corrected
// input.
func (p *Pipeline) Process(raw string) (out format.DisplayResult) {
	corrected := p.correct(raw)
	expr := display.Clean(corrected)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic", "latex", raw, "panic", r)
			out = p.formatter.Format(classify.Error{Message: fmt.Sprintf("could not parse or solve: %v", r)})
		}
		out.Expression = &expr
	}()
	res := p.classify(corrected)
	out = p.formatter.Format(res)
	p.logger.Info("formula processed", "latex", raw, "label", out.Label)
	return out
}

// Recognize runs an image through rec and then through Process. A
// recognition failure yields the server error record along with the error.
func (p *Pipeline) Recognize(ctx context.Context, rec recognize.Recognizer, img recognize.Image) (string, format.DisplayResult, error) {
	latex, err := rec.Recognize(ctx, img)
	if err != nil {
		p.logger.Error("recognition failed", "recognizer", rec.Name(), "error", err)
		return "", format.Failure(err), fmt.Errorf("recognize with %s: %w", rec.Name(), err)
	}
	p.logger.Info("formula recognized", "recognizer", rec.Name(), "latex", latex)
	return latex, p.Process(latex), nil
}
