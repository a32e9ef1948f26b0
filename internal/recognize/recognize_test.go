package recognize_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/njchilds90/formsolve/internal/recognize"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}

func TestDecodeBase64Image(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(pngHeader)

	img, err := recognize.DecodeBase64Image(payload)
	if err != nil {
		t.Fatal(err)
	}
	if img.MIME != "image/png" || len(img.Data) != len(pngHeader) {
		t.Errorf("want sniffed png, got %s (%d bytes)", img.MIME, len(img.Data))
	}

	img, err = recognize.DecodeBase64Image("data:image/jpeg;base64," + payload)
	if err != nil {
		t.Fatal(err)
	}
	if img.MIME != "image/jpeg" {
		t.Errorf("want MIME from data URL, got %s", img.MIME)
	}
}

func TestDecodeBase64Image_Errors(t *testing.T) {
	if _, err := recognize.DecodeBase64Image("  "); !errors.Is(err, recognize.ErrEmptyImage) {
		t.Errorf("want ErrEmptyImage, got %v", err)
	}
	if _, err := recognize.DecodeBase64Image("data:image/png;base64,"); !errors.Is(err, recognize.ErrEmptyImage) {
		t.Errorf("want ErrEmptyImage, got %v", err)
	}
	if _, err := recognize.DecodeBase64Image("not base64!"); err == nil {
		t.Error("want error for invalid base64")
	}
}

func TestImage_DataURL(t *testing.T) {
	img := recognize.Image{Data: []byte("hi"), MIME: "image/png"}
	if got := img.DataURL(); got != "data:image/png;base64,aGk=" {
		t.Errorf("unexpected data URL %s", got)
	}
}

func TestStripMath(t *testing.T) {
	cases := map[string]string{
		"x+1":                  "x+1",
		"$x+1$":                "x+1",
		"$$ x+1 $$":            "x+1",
		`\[ x \leq 3 \]`:       `x \leq 3`,
		"```latex\nx^{2}\n```": "x^{2}",
		"  \\(2 \\mid 4\\) ":   `2 \mid 4`,
	}
	for in, want := range cases {
		if got := recognize.StripMath(in); got != want {
			t.Errorf("StripMath(%q): want %q, got %q", in, want, got)
		}
	}
}

// ============================================================
// Retry tests
// ============================================================

type flaky struct {
	failures int
	err      error
	calls    int
}

func (f *flaky) Name() string { return "flaky" }

func (f *flaky) Recognize(ctx context.Context, img recognize.Image) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "x+1", nil
}

func TestWithRetry_Recovers(t *testing.T) {
	f := &flaky{failures: 2, err: errors.New("temporary")}
	r := recognize.WithRetry(f, 3, 0, nil)
	got, err := r.Recognize(context.Background(), recognize.Image{})
	if err != nil {
		t.Fatal(err)
	}
	if got != "x+1" || f.calls != 3 {
		t.Errorf("want x+1 after 3 calls, got %q after %d", got, f.calls)
	}
	if r.Name() != "flaky" {
		t.Errorf("want wrapped name, got %s", r.Name())
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	f := &flaky{failures: 5, err: errors.New("down")}
	_, err := recognize.WithRetry(f, 2, 0, nil).Recognize(context.Background(), recognize.Image{})
	if err == nil || err.Error() != "down" {
		t.Errorf("want last error, got %v", err)
	}
	if f.calls != 2 {
		t.Errorf("want 2 calls, got %d", f.calls)
	}
}

func TestWithRetry_StopsOnNoFormula(t *testing.T) {
	f := &flaky{failures: 5, err: recognize.ErrNoFormula}
	_, err := recognize.WithRetry(f, 4, 0, nil).Recognize(context.Background(), recognize.Image{})
	if !errors.Is(err, recognize.ErrNoFormula) {
		t.Errorf("want ErrNoFormula, got %v", err)
	}
	if f.calls != 1 {
		t.Errorf("want a single call, got %d", f.calls)
	}
}

func TestPlainToLaTeX(t *testing.T) {
	cases := map[string]string{
		"2 ∣ 4\n": `2 \mid 4`,
		"x≤3":     `x\leq 3`,
		"6 ÷ 2":   `6 \div 2`,
		"3 − 1":   "3 - 1",
		"  2π  ":  `2\pi`,
		"a ∉ B":   `a \notin B`,
		"":        "",
	}
	for in, want := range cases {
		if got := recognize.PlainToLaTeX(in); got != want {
			t.Errorf("PlainToLaTeX(%q): want %q, got %q", in, want, got)
		}
	}
}
