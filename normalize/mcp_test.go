package normalize

import "testing"

func TestCanonicalToolName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		hint   string
		want   string
	}{
		{name: "canonical-passthrough", input: "mcp__a__b", want: "mcp__a__b"},
		{name: "mcp-dotted", input: "mcp.a.b", want: "mcp__a__b"},
		{name: "dotted", input: "a.b", want: "mcp__a__b"},
		{name: "colon", input: "a:b", want: "mcp__a__b"},
		{name: "slash", input: "a/b", want: "mcp__a__b"},
		{name: "bare-with-hint", input: "search", hint: "linear", want: "mcp__linear__search"},
		{name: "bare-without-hint", input: "search", want: "search"},
		{name: "empty", input: "", hint: "linear", want: ""},
		{name: "too-many-dots", input: "a.b.c", want: "a.b.c"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalToolName(tc.input, tc.hint); got != tc.want {
				t.Fatalf("CanonicalToolName(%q, %q) = %q, want %q", tc.input, tc.hint, got, tc.want)
			}
		})
	}
}

func TestCanonicalToolName_Idempotent(t *testing.T) {
	inputs := []string{"mcp.a.b", "a.b", "a:b", "a/b", "mcp__a__b"}
	for _, in := range inputs {
		once := CanonicalToolName(in, "")
		twice := CanonicalToolName(once, "")
		if once != twice {
			t.Errorf("canonicalization of %q not idempotent: %q then %q", in, once, twice)
		}
	}
}
