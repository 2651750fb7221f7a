package normalize

import "strings"

// mcpPrefix is the canonical MCP tool-name prefix: mcp__<source>__<tool>.
const mcpPrefix = "mcp__"

// CanonicalToolName rewrites an MCP tool name to the canonical
// mcp__<source>__<tool> form. Recognized input shapes:
//
//	mcp__source__tool   (already canonical, returned unchanged)
//	mcp.source.tool
//	source.tool
//	source:tool
//	source/tool
//
// When none match but a source hint is known, mcp__<hint>__<name> is
// synthesized. Anything else is returned unchanged. Idempotent.
func CanonicalToolName(name, sourceHint string) string {
	if name == "" {
		return name
	}
	if strings.HasPrefix(name, mcpPrefix) {
		return name
	}

	if rest, ok := strings.CutPrefix(name, "mcp."); ok {
		if source, tool, ok := splitPair(rest, "."); ok {
			return mcpPrefix + source + "__" + tool
		}
	}

	for _, sep := range []string{".", ":", "/"} {
		if source, tool, ok := splitPair(name, sep); ok {
			return mcpPrefix + source + "__" + tool
		}
	}

	if sourceHint != "" {
		return mcpPrefix + sourceHint + "__" + name
	}

	return name
}

// splitPair splits s on sep when it yields exactly two non-empty halves.
func splitPair(s, sep string) (string, string, bool) {
	parts := strings.Split(s, sep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
