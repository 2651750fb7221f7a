package normalize

import "strings"

// Synonym lists for each logical field, in priority order. First match wins.
var (
	typeFields     = []string{"type", "event", "event_type", "eventType", "kind", "method"}
	deltaFields    = []string{"delta", "text_delta", "textDelta", "chunk"}
	textFields     = []string{"text", "full_text", "fullText", "final_text", "finalText", "message", "content"}
	toolNameFields = []string{"tool", "tool_name", "toolName", "name"}
	callIDFields   = []string{"call_id", "callId", "tool_use_id", "toolUseId", "invocation_id", "invocationId", "id"}
	inputFields    = []string{"input", "arguments", "args", "params"}
	parentFields   = []string{"parent_id", "parentId", "parent_call_id", "parentCallId", "parent"}
	commandFields  = []string{"command", "cmd", "parsed_cmd", "parsedCmd"}
	outputFields   = []string{"output", "stdout", "result", "aggregated_output", "aggregatedOutput"}
	stderrFields   = []string{"stderr", "error_output", "errorOutput"}
	exitCodeFields = []string{"exit_code", "exitCode"}
	statusFields   = []string{"status", "state"}
	threadIDFields = []string{"thread_id", "threadId", "session_id", "sessionId", "conversation_id", "conversationId"}
	itemTypeFields = []string{"type", "item_type", "itemType"}
	sourceFields   = []string{"server", "source", "provider"}
	intentFields   = []string{"intent", "description", "title"}
)

// probeString returns the first non-empty string value among the given keys.
func probeString(raw map[string]interface{}, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// probeMap returns the first map value among the given keys.
func probeMap(raw map[string]interface{}, keys []string) (map[string]interface{}, bool) {
	for _, key := range keys {
		if m, ok := raw[key].(map[string]interface{}); ok {
			return m, true
		}
	}
	return nil, false
}

// probeInt returns the first numeric value among the given keys. JSON numbers
// decode as float64; integers stored by typed producers also appear.
func probeInt(raw map[string]interface{}, keys []string) (int, bool) {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		case int64:
			return int(v), true
		}
	}
	return 0, false
}

// extractType returns the event's type string.
func extractType(raw map[string]interface{}) (string, bool) {
	return probeString(raw, typeFields)
}

// extractDelta returns an incremental text chunk.
func extractDelta(raw map[string]interface{}) (string, bool) {
	return probeString(raw, deltaFields)
}

// extractText returns the complete/final text of a message, probing the item
// payload before the envelope: agent-message items carry their text inside the
// item object.
func extractText(raw map[string]interface{}) (string, bool) {
	if item, ok := probeMap(raw, []string{"item"}); ok {
		if text, ok := probeString(item, textFields); ok {
			return text, true
		}
	}
	return probeString(raw, textFields)
}

// extractThreadID returns the upstream thread identifier.
func extractThreadID(raw map[string]interface{}) (string, bool) {
	return probeString(raw, threadIDFields)
}

// extractParentID returns the parent invocation id, probing the item payload
// before the envelope.
func extractParentID(raw map[string]interface{}) (string, bool) {
	if item, ok := probeMap(raw, []string{"item"}); ok {
		if parent, ok := probeString(item, parentFields); ok {
			return parent, true
		}
	}
	return probeString(raw, parentFields)
}

// toolCall is a generic tool descriptor extracted from an upstream event.
type toolCall struct {
	Input map[string]interface{}
	Name  string
	ID    string
}

// extractToolCall returns a generic tool descriptor. Both a name and an id are
// required; anything less is not a usable tool call.
func extractToolCall(raw map[string]interface{}) (toolCall, bool) {
	name, ok := probeString(raw, toolNameFields)
	if !ok {
		return toolCall{}, false
	}
	id, ok := probeString(raw, callIDFields)
	if !ok {
		return toolCall{}, false
	}
	input, _ := probeMap(raw, inputFields)
	return toolCall{Name: name, ID: id, Input: input}, true
}

// itemPayload returns the event's item object, or the event itself when the
// item's fields are inlined in the envelope.
func itemPayload(raw map[string]interface{}) map[string]interface{} {
	if item, ok := probeMap(raw, []string{"item"}); ok {
		return item
	}
	return raw
}

// extractItemType returns the canonicalized item-type discriminator, so that
// "command_execution", "command-execution" and "CommandExecution" all compare
// equal to "commandexecution". The discriminator is probed from the item
// payload, then from dedicated envelope fields; producers that only encode it
// in the event type string are handled by itemTypeFromCanon.
func extractItemType(raw map[string]interface{}) (string, bool) {
	if item, ok := probeMap(raw, []string{"item"}); ok {
		if s, ok := probeString(item, itemTypeFields); ok {
			return canonToken(s), true
		}
	}
	if s, ok := probeString(raw, []string{"item_type", "itemType"}); ok {
		return canonToken(s), true
	}
	return "", false
}

// knownItemTypes are the item discriminators the dispatcher cares about.
var knownItemTypes = []string{"commandexecution", "mcptoolcall", "filechange", "agentmessage"}

// itemTypeFromCanon derives the item type from a canonicalized event type
// string, for producers that embed it there (e.g. "item.commandExecution.started").
func itemTypeFromCanon(canonType string) string {
	for _, token := range knownItemTypes {
		if strings.Contains(canonType, token) {
			return token
		}
	}
	return ""
}

// extractCommand returns the command text of a command-execution item.
// Producers send either a string or an argv array.
func extractCommand(item map[string]interface{}) (string, bool) {
	if s, ok := probeString(item, commandFields); ok {
		return strings.TrimSpace(s), true
	}
	for _, key := range commandFields {
		if argv, ok := item[key].([]interface{}); ok {
			parts := make([]string, 0, len(argv))
			for _, a := range argv {
				if s, ok := a.(string); ok {
					parts = append(parts, s)
				}
			}
			if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
				return joined, true
			}
		}
	}
	return "", false
}

// canonToken lowercases a discriminator and strips delimiter characters, so
// that "thread.started", "thread_started" and "ThreadStarted" all compare
// equal to "threadstarted".
func canonToken(s string) string {
	s = strings.ToLower(s)
	for _, sep := range []string{"_", "-", ".", "/"} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

// isItemEvent reports whether the type string describes a discrete item event
// (as opposed to a raw delta): the literal "item" adjacent to a '.', '/' or
// '_' delimiter.
func isItemEvent(typeStr string) bool {
	lower := strings.ToLower(typeStr)
	for _, marker := range []string{"item.", ".item", "item/", "/item", "item_", "_item"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
