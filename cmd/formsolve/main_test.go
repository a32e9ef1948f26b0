package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/njchilds90/formsolve/internal/format"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("formsolve %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestSolveCommand_JSON(t *testing.T) {
	var res format.DisplayResult
	if err := json.Unmarshal([]byte(run(t, "solve", "2x+3=7")), &res); err != nil {
		t.Fatal(err)
	}
	if res.Label != "Equation solved" || res.Answer != "x  =  2" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSolveCommand_Text(t *testing.T) {
	got := run(t, "solve", "--text", `3 \mid 12`)
	if got != "Divisibility check\n3 divides 12 ✓\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	t.Setenv("FORMSOLVE_OPENAI_API_KEY", "sk-abcdefghijkl")
	got := run(t, "config", "show")
	if strings.Contains(got, "sk-abcdefghijkl") || !strings.Contains(got, "sk-a********") {
		t.Errorf("secret not masked:\n%s", got)
	}
}

func TestVersionCommand(t *testing.T) {
	if got := run(t, "version"); got != "formsolve dev\n" {
		t.Errorf("unexpected version output %q", got)
	}
}
