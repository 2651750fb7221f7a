package codex

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EnvPathOverride names the environment variable that overrides the Codex CLI
// location.
const EnvPathOverride = "CRAFT_CODEX_PATH"

// providerKeyVars are the inherited credential variables stripped under
// subscription auth, forcing the CLI onto its own local credential file.
var providerKeyVars = []string{
	"ANTHROPIC_API_KEY",
	"ANTHROPIC_BASE_URL",
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
}

// SanitizeEnv builds the environment for a spawned CLI from an explicit base
// snapshot. The base is never mutated. With a proxy URL, the standard proxy
// variables are appended; under subscription auth, inherited API-key and
// base-URL variables are dropped.
func SanitizeEnv(base []string, proxyURL string, subscription bool) []string {
	out := make([]string, 0, len(base)+3)
	for _, kv := range base {
		if subscription && hasAnyPrefix(kv, providerKeyVars) {
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

func hasAnyPrefix(kv string, names []string) bool {
	for _, name := range names {
		if strings.HasPrefix(kv, name+"=") {
			return true
		}
	}
	return false
}

// wellKnownDirs are the install locations probed when the binary is not on
// PATH.
var wellKnownDirs = []string{
	"/usr/local/bin",
	"/opt/homebrew/bin",
}

// ResolveExecutable locates the Codex CLI: the env override path when it
// exists on disk, then PATH, then well-known install directories, then the
// bare name as a last resort.
func ResolveExecutable() string {
	return resolveBinary(EnvPathOverride, "codex")
}

func resolveBinary(envVar, name string) string {
	if override := os.Getenv(envVar); override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	dirs := wellKnownDirs
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append([]string{
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, "bin"),
		}, dirs...)
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return name
}
