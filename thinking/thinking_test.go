package thinking

import "testing"

func TestNormalizeClaude_Total(t *testing.T) {
	want := map[Level]Level{
		LevelOff:    LevelOff,
		LevelThink:  LevelThink,
		LevelMax:    LevelMax,
		LevelLow:    LevelOff,
		LevelMedium: LevelThink,
		LevelHigh:   LevelMax,
		LevelXHigh:  LevelMax,
	}

	for _, level := range Levels {
		got := NormalizeClaude(level)
		if got != want[level] {
			t.Errorf("NormalizeClaude(%s) = %s, want %s", level, got, want[level])
		}
		switch got {
		case LevelOff, LevelThink, LevelMax:
		default:
			t.Errorf("NormalizeClaude(%s) = %s, outside {off, think, max}", level, got)
		}
	}
}

func TestNormalizeCodex_Total(t *testing.T) {
	want := map[Level]Level{
		LevelOff:    LevelLow,
		LevelThink:  LevelMedium,
		LevelMax:    LevelHigh,
		LevelLow:    LevelLow,
		LevelMedium: LevelMedium,
		LevelHigh:   LevelHigh,
		LevelXHigh:  LevelXHigh,
	}

	for _, level := range Levels {
		got := NormalizeCodex(level, "gpt-5.3-codex")
		if got != want[level] {
			t.Errorf("NormalizeCodex(%s) = %s, want %s", level, got, want[level])
		}
	}
}

func TestNormalizeCodex_MiniCollapses(t *testing.T) {
	// Mini variants never see low or xhigh.
	for _, level := range Levels {
		got := NormalizeCodex(level, "gpt-5.3-codex-mini")
		if got == LevelLow || got == LevelXHigh {
			t.Errorf("NormalizeCodex(%s, mini) = %s, want neither low nor xhigh", level, got)
		}
		switch got {
		case LevelLow, LevelMedium, LevelHigh, LevelXHigh:
		default:
			t.Errorf("NormalizeCodex(%s, mini) = %s, outside the four-value set", level, got)
		}
	}

	if got := NormalizeCodex(LevelOff, "gpt-5.3-codex-mini"); got != LevelMedium {
		t.Errorf("NormalizeCodex(off, mini) = %s, want medium", got)
	}
	if got := NormalizeCodex(LevelXHigh, "gpt-5.3-codex-mini"); got != LevelHigh {
		t.Errorf("NormalizeCodex(xhigh, mini) = %s, want high", got)
	}
}

func TestClaudeBudgetTokens(t *testing.T) {
	tests := []struct {
		name    string
		level   Level
		modelID string
		want    int
	}{
		{name: "off-default", level: LevelOff, modelID: "claude-sonnet-4-5", want: 0},
		{name: "think-default", level: LevelThink, modelID: "claude-sonnet-4-5", want: 10000},
		{name: "max-default", level: LevelMax, modelID: "claude-opus-4-6", want: 32000},
		{name: "off-fast", level: LevelOff, modelID: "claude-haiku-4-5", want: 0},
		{name: "think-fast", level: LevelThink, modelID: "claude-haiku-4-5", want: 4000},
		{name: "max-fast", level: LevelMax, modelID: "claude-haiku-4-5", want: 8000},
		{name: "seven-value-input", level: LevelXHigh, modelID: "claude-opus-4-6", want: 32000},
		{name: "low-maps-to-off", level: LevelLow, modelID: "claude-opus-4-6", want: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := ClaudeBudgetTokens(tc.level, tc.modelID); got != tc.want {
				t.Fatalf("ClaudeBudgetTokens(%s, %s) = %d, want %d", tc.level, tc.modelID, got, tc.want)
			}
		})
	}
}
