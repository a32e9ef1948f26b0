package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/njchilds90/formsolve/internal/recognize"
	"github.com/njchilds90/formsolve/internal/recognize/openai"
)

func fakeServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("want path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("want bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "data:image/png;base64,") {
			t.Errorf("request does not carry the image: %s", body)
		}
		resp := goopenai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: "gpt-4o-mini",
			Choices: []goopenai.ChatCompletionChoice{
				{Message: goopenai.ChatCompletionMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newRecognizer(t *testing.T, url string) *openai.Recognizer {
	t.Helper()
	r, err := openai.New(openai.Config{APIKey: "test-key", BaseURL: url, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

var img = recognize.Image{Data: []byte{1, 2, 3}, MIME: "image/png"}

func TestRecognize(t *testing.T) {
	srv := fakeServer(t, "$$2 \\mid 4$$")
	defer srv.Close()

	got, err := newRecognizer(t, srv.URL).Recognize(context.Background(), img)
	if err != nil {
		t.Fatal(err)
	}
	if got != `2 \mid 4` {
		t.Errorf("want 2 \\mid 4, got %q", got)
	}
}

func TestRecognize_EmptyAnswer(t *testing.T) {
	srv := fakeServer(t, "  ")
	defer srv.Close()

	_, err := newRecognizer(t, srv.URL).Recognize(context.Background(), img)
	if !errors.Is(err, recognize.ErrNoFormula) {
		t.Errorf("want ErrNoFormula, got %v", err)
	}
}

func TestRecognize_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	if _, err := newRecognizer(t, srv.URL).Recognize(context.Background(), img); err == nil {
		t.Error("want error from failing server")
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := openai.New(openai.Config{}); err == nil {
		t.Error("want error without API key")
	}
}

func TestRecognize_EmptyImage(t *testing.T) {
	r := newRecognizer(t, "http://127.0.0.1:0")
	if _, err := r.Recognize(context.Background(), recognize.Image{}); !errors.Is(err, recognize.ErrEmptyImage) {
		t.Errorf("want ErrEmptyImage, got %v", err)
	}
	if r.Name() != "openai" {
		t.Errorf("want openai, got %s", r.Name())
	}
}
