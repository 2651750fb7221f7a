package config

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Provider name constants for the supported agent backends.
const (
	ProviderClaude = "claude"
	ProviderCodex  = "codex"
)

// AllProviders is the ordered list of known provider names.
var AllProviders = []string{ProviderClaude, ProviderCodex}

// providerBinaries maps provider names to their CLI binary names.
var providerBinaries = map[string]string{
	ProviderClaude: "claude",
	ProviderCodex:  "codex",
}

// ProviderStatus describes the availability of a single provider CLI.
type ProviderStatus struct {
	Provider  string
	Version   string
	Error     string
	Installed bool
}

// Availability holds cached CLI availability information.
type Availability struct {
	statuses map[string]ProviderStatus
}

// ProbeProviders checks all known provider CLIs in parallel and returns their
// availability.
func ProbeProviders() *Availability {
	statuses := make(map[string]ProviderStatus, len(AllProviders))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, provider := range AllProviders {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			status := checkProvider(name)
			mu.Lock()
			statuses[name] = status
			mu.Unlock()
		}(provider)
	}

	wg.Wait()
	return &Availability{statuses: statuses}
}

// IsInstalled reports whether the provider's CLI binary is in PATH.
func (a *Availability) IsInstalled(provider string) bool {
	if s, ok := a.statuses[provider]; ok {
		return s.Installed
	}
	return false
}

// Status returns the full status for a provider. Unknown providers get a
// zero-value status with Installed=false.
func (a *Availability) Status(provider string) ProviderStatus {
	if s, ok := a.statuses[provider]; ok {
		return s
	}
	return ProviderStatus{Provider: provider}
}

// AllStatuses returns statuses for all known providers in order.
func (a *Availability) AllStatuses() []ProviderStatus {
	result := make([]ProviderStatus, 0, len(AllProviders))
	for _, name := range AllProviders {
		result = append(result, a.Status(name))
	}
	return result
}

// InstalledProviders returns the names of providers whose CLI is installed.
func (a *Availability) InstalledProviders() []string {
	var result []string
	for _, name := range AllProviders {
		if a.IsInstalled(name) {
			result = append(result, name)
		}
	}
	return result
}

func checkProvider(provider string) ProviderStatus {
	binary, ok := providerBinaries[provider]
	if !ok {
		return ProviderStatus{Provider: provider, Error: "unknown provider"}
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return ProviderStatus{Provider: provider, Error: "not found in PATH"}
	}

	return ProviderStatus{
		Provider:  provider,
		Installed: true,
		Version:   getVersion(path),
	}
}

// versionTimeout bounds the `--version` probe.
const versionTimeout = 5 * time.Second

// getVersion runs `<binary> --version` and returns the first line of stdout.
// Stderr is discarded to avoid capturing Node.js deprecation warnings. Returns
// "" on failure or timeout.
func getVersion(binaryPath string) string {
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, binaryPath, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	firstLine := strings.SplitN(strings.TrimSpace(out.String()), "\n", 2)[0]
	return strings.TrimSpace(firstLine)
}
