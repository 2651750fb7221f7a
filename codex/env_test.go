package codex

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeEnv_SubscriptionStripsKeys(t *testing.T) {
	base := []string{
		"PATH=/usr/bin",
		"ANTHROPIC_API_KEY=sk-ant",
		"ANTHROPIC_BASE_URL=https://a.example",
		"OPENAI_API_KEY=sk-oai",
		"OPENAI_BASE_URL=https://o.example",
		"HOME=/home/u",
	}

	got := SanitizeEnv(base, "", true)
	want := []string{"PATH=/usr/bin", "HOME=/home/u"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	// Base snapshot is untouched.
	if base[1] != "ANTHROPIC_API_KEY=sk-ant" {
		t.Fatal("base environment was mutated")
	}
}

func TestSanitizeEnv_APIKeyAuthKeepsKeys(t *testing.T) {
	base := []string{"OPENAI_API_KEY=sk-oai"}
	got := SanitizeEnv(base, "", false)
	if len(got) != 1 || got[0] != "OPENAI_API_KEY=sk-oai" {
		t.Fatalf("got %v, want keys preserved under api_key auth", got)
	}
}

func TestSanitizeEnv_ProxyInjection(t *testing.T) {
	got := SanitizeEnv([]string{"PATH=/usr/bin"}, "http://127.0.0.1:8080", false)

	wantVars := map[string]bool{
		"HTTP_PROXY=http://127.0.0.1:8080":  false,
		"HTTPS_PROXY=http://127.0.0.1:8080": false,
		"ALL_PROXY=http://127.0.0.1:8080":   false,
	}
	for _, kv := range got {
		if _, ok := wantVars[kv]; ok {
			wantVars[kv] = true
		}
	}
	for kv, seen := range wantVars {
		if !seen {
			t.Errorf("missing %s in %v", kv, got)
		}
	}
}

func TestResolveBinary_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "codex")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvPathOverride, exe)

	if got := resolveBinary(EnvPathOverride, "codex"); got != exe {
		t.Fatalf("got %q, want override path %q", got, exe)
	}
}

func TestResolveBinary_MissingOverrideIgnored(t *testing.T) {
	t.Setenv(EnvPathOverride, filepath.Join(t.TempDir(), "no-such-file"))
	t.Setenv("PATH", t.TempDir())

	// Nothing on PATH and no well-known install: falls back to the bare name.
	got := resolveBinary(EnvPathOverride, "definitely-not-installed-cli")
	if got != "definitely-not-installed-cli" {
		t.Fatalf("got %q, want bare name fallback", got)
	}
}
