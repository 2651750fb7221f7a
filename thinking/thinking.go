// Package thinking maps the user-facing reasoning-effort setting to the
// provider-specific encodings and token budgets each backend understands.
package thinking

import "strings"

// Level is the user-facing reasoning-effort knob. The full seven-value set is
// what the UI exposes; each provider family understands only a subset, so
// levels are normalized before they reach a backend.
type Level string

const (
	LevelOff    Level = "off"
	LevelThink  Level = "think"
	LevelMax    Level = "max"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
	LevelXHigh  Level = "xhigh"
)

// Levels is the ordered list of all user-facing levels.
var Levels = []Level{LevelOff, LevelThink, LevelMax, LevelLow, LevelMedium, LevelHigh, LevelXHigh}

// NormalizeClaude collapses a level to the three-value set the Claude backend
// understands: off, think, max.
func NormalizeClaude(level Level) Level {
	switch level {
	case LevelOff, LevelThink, LevelMax:
		return level
	case LevelLow:
		return LevelOff
	case LevelMedium:
		return LevelThink
	default:
		return LevelMax
	}
}

// NormalizeCodex collapses a level to the four-value set the Codex backend
// understands: low, medium, high, xhigh. Mini model variants support a
// narrower range, so low and xhigh are folded inward for them.
func NormalizeCodex(level Level, modelID string) Level {
	var out Level
	switch level {
	case LevelLow, LevelMedium, LevelHigh, LevelXHigh:
		out = level
	case LevelOff:
		out = LevelLow
	case LevelThink:
		out = LevelMedium
	default:
		out = LevelHigh
	}

	if isMiniModel(modelID) {
		switch out {
		case LevelLow:
			out = LevelMedium
		case LevelXHigh:
			out = LevelHigh
		}
	}

	return out
}

// Claude thinking-token budgets by normalized level.
const (
	fastBudgetThink = 4000
	fastBudgetMax   = 8000

	defaultBudgetThink = 10000
	defaultBudgetMax   = 32000
)

// ClaudeBudgetTokens returns the max-thinking-tokens budget for a normalized
// three-value level. Fast models (haiku family) get smaller budgets.
func ClaudeBudgetTokens(level Level, modelID string) int {
	fast := isFastModel(modelID)
	switch NormalizeClaude(level) {
	case LevelThink:
		if fast {
			return fastBudgetThink
		}
		return defaultBudgetThink
	case LevelMax:
		if fast {
			return fastBudgetMax
		}
		return defaultBudgetMax
	default:
		return 0
	}
}

func isMiniModel(modelID string) bool {
	return strings.Contains(strings.ToLower(modelID), "mini")
}

func isFastModel(modelID string) bool {
	return strings.Contains(strings.ToLower(modelID), "haiku")
}
