package normalize

import (
	"github.com/ohblue/craft-agents-oss/events"
)

// stderrLabel separates error-stream content appended to a tool result.
const stderrLabel = "\n\n[stderr]\n"

// extractToolResult normalizes a tool completion into a ToolResult. Both an
// invocation id and a defined result value are required; otherwise the event
// is not a usable tool result.
//
// The result is flagged as an error when an explicit error marker is set, the
// item status is "failed", an error field is present, or a non-zero exit code
// is reported.
func extractToolResult(raw map[string]interface{}) (events.ToolResult, bool) {
	item := itemPayload(raw)

	id, ok := probeString(item, callIDFields)
	if !ok {
		if id, ok = probeString(raw, callIDFields); !ok {
			return events.ToolResult{}, false
		}
	}

	output, ok := probeString(item, outputFields)
	if !ok {
		if output, ok = probeString(raw, outputFields); !ok {
			// An empty-but-present output field still counts as defined.
			if !hasAnyField(item, outputFields) && !hasAnyField(raw, outputFields) {
				return events.ToolResult{}, false
			}
		}
	}

	result := output
	if stderr, ok := probeString(item, stderrFields); ok {
		result += stderrLabel + stderr
	} else if stderr, ok := probeString(raw, stderrFields); ok {
		result += stderrLabel + stderr
	}

	return events.ToolResult{
		ID:      id,
		Result:  result,
		IsError: resultIsError(raw, item),
	}, true
}

// hasAnyField reports whether any of the keys is present, regardless of value.
func hasAnyField(raw map[string]interface{}, keys []string) bool {
	for _, key := range keys {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

func resultIsError(raw, item map[string]interface{}) bool {
	for _, m := range []map[string]interface{}{item, raw} {
		if flag, ok := m["is_error"].(bool); ok && flag {
			return true
		}
		if flag, ok := m["isError"].(bool); ok && flag {
			return true
		}
		if status, ok := probeString(m, statusFields); ok && status == "failed" {
			return true
		}
		if err, ok := m["error"]; ok && err != nil {
			return true
		}
		if code, ok := probeInt(m, exitCodeFields); ok && code != 0 {
			return true
		}
	}
	return false
}
