// Package recognize converts formula images into LaTeX through pluggable
// OCR backends.
package recognize

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

var (
	ErrEmptyImage = errors.New("recognize: empty image")
	ErrNoFormula  = errors.New("recognize: no formula in response")
)

// Prompt is the instruction sent to vision model backends.
const Prompt = "Transcribe the handwritten or printed math formula in this image as a single line of LaTeX. " +
	"Reply with the LaTeX only, without dollar signs, code fences or explanations."

// Image is an encoded picture and its MIME type.
type Image struct {
	Data []byte
	MIME string
}

// Recognizer turns an image of a formula into raw LaTeX.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, img Image) (string, error)
}

// DecodeBase64Image decodes a plain base64 payload or a data URL. The MIME
// type comes from the data URL prefix when present and is sniffed otherwise.
func DecodeBase64Image(s string) (Image, error) {
	s = strings.TrimSpace(s)
	var hint string
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hint = meta[:semi]
			} else {
				hint = meta
			}
			s = s[idx+1:]
		}
	} else if idx := strings.IndexByte(s, ','); idx >= 0 {
		s = s[idx+1:]
	}
	if s == "" {
		return Image{}, ErrEmptyImage
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var err2 error
		if data, err2 = base64.URLEncoding.DecodeString(s); err2 != nil {
			return Image{}, fmt.Errorf("recognize: bad base64: %w", err)
		}
	}
	return NewImage(data, hint)
}

// ReadImageFile loads an image from disk.
func ReadImageFile(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("recognize: read image: %w", err)
	}
	return NewImage(data, "")
}

// NewImage wraps raw bytes, sniffing the MIME type when mime is empty.
func NewImage(data []byte, mime string) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	if mime = strings.TrimSpace(mime); mime == "" {
		mime = http.DetectContentType(data)
	}
	return Image{Data: data, MIME: mime}, nil
}

// DataURL encodes the image as a data URL for vision model requests.
func (img Image) DataURL() string {
	return "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// StripMath removes code fences and math delimiters that models wrap
// around their LaTeX answer.
func StripMath(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```latex")
	s = strings.TrimPrefix(s, "```tex")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	for _, d := range [][2]string{{"$$", "$$"}, {`\[`, `\]`}, {`\(`, `\)`}, {"$", "$"}} {
		if len(s) >= len(d[0])+len(d[1]) && strings.HasPrefix(s, d[0]) && strings.HasSuffix(s, d[1]) {
			s = strings.TrimSpace(s[len(d[0]) : len(s)-len(d[1])])
			break
		}
	}
	return s
}

// Retrying retries a recognizer on failure. Empty images, empty answers and
// errors marked with retry.Unrecoverable stop the loop at once.
type Retrying struct {
	next     Recognizer
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

func WithRetry(next Recognizer, attempts int, delay time.Duration, logger *slog.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{next: next, attempts: uint(attempts), delay: delay, logger: logger}
}

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) Recognize(ctx context.Context, img Image) (string, error) {
	var latex string
	err := retry.Do(
		func() error {
			out, err := r.next.Recognize(ctx, img)
			if err != nil {
				return err
			}
			latex = out
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && !errors.Is(err, ErrEmptyImage) && !errors.Is(err, ErrNoFormula)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("recognition failed, retrying", "recognizer", r.next.Name(), "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return "", err
	}
	return latex, nil
}

var plainSymbols = strings.NewReplacer(
	"≤", `\leq `,
	"≥", `\geq `,
	"≠", `\neq `,
	"≈", `\approx `,
	"∤", `\nmid `,
	"∣", `\mid `,
	"∉", `\notin `,
	"∈", `\in `,
	"⊂", `\subset `,
	"⊃", `\supset `,
	"×", `\times `,
	"÷", `\div `,
	"·", `\cdot `,
	"π", `\pi `,
	"√", `\sqrt `,
	"−", "-",
	"\n", " ",
)

// PlainToLaTeX rewrites the Unicode math symbols of plain OCR text as LaTeX
// commands.
func PlainToLaTeX(text string) string {
	return strings.Join(strings.Fields(plainSymbols.Replace(text)), " ")
}
