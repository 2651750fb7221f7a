package claude

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EnvPathOverride names the environment variable that overrides the Claude
// CLI location.
const EnvPathOverride = "CRAFT_CLAUDE_PATH"

// strippedVars are the inherited credential variables removed under
// subscription auth so the CLI falls back to its own stored login.
var strippedVars = []string{
	"ANTHROPIC_API_KEY",
	"ANTHROPIC_BASE_URL",
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
}

// SanitizeEnv builds the spawn environment from an explicit base snapshot,
// never mutating it. Proxy variables are appended when a proxy URL is set;
// subscription auth drops inherited API-key and base-URL variables.
func SanitizeEnv(base []string, proxyURL string, subscription bool) []string {
	out := make([]string, 0, len(base)+3)
	for _, kv := range base {
		if subscription && isStripped(kv) {
			continue
		}
		out = append(out, kv)
	}
	if proxyURL != "" {
		out = append(out,
			"HTTP_PROXY="+proxyURL,
			"HTTPS_PROXY="+proxyURL,
			"ALL_PROXY="+proxyURL,
		)
	}
	return out
}

func isStripped(kv string) bool {
	for _, name := range strippedVars {
		if strings.HasPrefix(kv, name+"=") {
			return true
		}
	}
	return false
}

// ResolveExecutable locates the Claude CLI: the env override path when it
// exists, then PATH, then well-known install directories, then the bare name.
func ResolveExecutable() string {
	if override := os.Getenv(EnvPathOverride); override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
	}
	if path, err := exec.LookPath("claude"); err == nil {
		return path
	}
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".claude", "local"),
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, "bin"),
		)
	}
	dirs = append(dirs, "/usr/local/bin", "/opt/homebrew/bin")
	for _, dir := range dirs {
		candidate := filepath.Join(dir, "claude")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "claude"
}
