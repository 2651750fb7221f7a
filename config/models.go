package config

// Model describes a model selectable for a chat session.
type Model struct {
	ID       string // Identifier passed to the provider CLI's --model flag
	Provider string // "claude" or "codex"
	Label    string // Display label for the UI
	Fast     bool   // Smaller/faster variant; reduced thinking budgets
	Mini     bool   // Codex mini variant; collapsed reasoning-effort range
}

// AllModels is the ordered list of all known models across providers.
var AllModels = []Model{
	{ID: "opus", Provider: ProviderClaude, Label: "opus"},
	{ID: "sonnet", Provider: ProviderClaude, Label: "sonnet"},
	{ID: "haiku", Provider: ProviderClaude, Label: "haiku", Fast: true},
	{ID: "gpt-5.3-codex", Provider: ProviderCodex, Label: "gpt-5.3-codex"},
	{ID: "gpt-5.2", Provider: ProviderCodex, Label: "gpt-5.2"},
	{ID: "gpt-5.3-codex-mini", Provider: ProviderCodex, Label: "gpt-5.3-codex-mini", Mini: true},
}

// ModelByID returns the model for the given id from the full catalog.
func ModelByID(id string) (Model, bool) {
	for _, m := range AllModels {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Registry provides a filtered view of the catalog based on provider
// availability and user-enabled providers.
type Registry struct {
	filtered []Model
}

// NewRegistry creates a registry filtered by availability and enabled
// providers. If enabledProviders is empty, all installed providers count as
// enabled.
func NewRegistry(availability *Availability, enabledProviders []string) *Registry {
	r := &Registry{}
	r.Rebuild(availability, enabledProviders)
	return r
}

// Rebuild recomputes the filtered model list. A provider must be both
// installed and enabled for its models to appear.
func (r *Registry) Rebuild(availability *Availability, enabledProviders []string) {
	enabledSet := make(map[string]bool, len(enabledProviders))
	allEnabled := len(enabledProviders) == 0
	for _, p := range enabledProviders {
		enabledSet[p] = true
	}

	r.filtered = nil
	for _, m := range AllModels {
		if !availability.IsInstalled(m.Provider) {
			continue
		}
		if !allEnabled && !enabledSet[m.Provider] {
			continue
		}
		r.filtered = append(r.filtered, m)
	}
}

// Models returns the filtered model list.
func (r *Registry) Models() []Model {
	return r.filtered
}

// ModelByID returns a model from the filtered list.
func (r *Registry) ModelByID(id string) (Model, bool) {
	for _, m := range r.filtered {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// NextModel returns the next model in the filtered cycle after currentID, or
// the first filtered model when currentID is not in the list. With an empty
// filtered list the current model is returned unchanged so the selection never
// moves to an unavailable provider.
func (r *Registry) NextModel(currentID string) Model {
	if len(r.filtered) == 0 {
		if currentID != "" {
			if m, ok := ModelByID(currentID); ok {
				return m
			}
		}
		return AllModels[0]
	}
	for i, m := range r.filtered {
		if m.ID == currentID {
			return r.filtered[(i+1)%len(r.filtered)]
		}
	}
	return r.filtered[0]
}

// HasProvider reports whether any model from the provider survived filtering.
func (r *Registry) HasProvider(provider string) bool {
	for _, m := range r.filtered {
		if m.Provider == provider {
			return true
		}
	}
	return false
}

// FirstModelForProvider returns the first filtered model for a provider.
func (r *Registry) FirstModelForProvider(provider string) (Model, bool) {
	for _, m := range r.filtered {
		if m.Provider == provider {
			return m, true
		}
	}
	return Model{}, false
}
