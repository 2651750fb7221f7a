package normalize

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ohblue/craft-agents-oss/events"
)

// RuleSet selects which dispatch rules the engine applies. The streamed path
// uses FullRules; the non-streaming fallback path iterates a completed run's
// event collection with ReducedRules.
type RuleSet uint

const (
	RuleThreadStarted RuleSet = 1 << iota
	RuleTextDelta
	RuleOutputDelta
	RuleCommandItem
	RuleMCPToolItem
	RuleGenericTool
	RuleToolResult
	RuleTextComplete
)

// FullRules enables every dispatch rule.
const FullRules = RuleThreadStarted | RuleTextDelta | RuleOutputDelta |
	RuleCommandItem | RuleMCPToolItem | RuleGenericTool | RuleToolResult | RuleTextComplete

// ReducedRules is the subset reachable from a non-streaming run's event
// collection: deltas, generic tools, tool results and final text.
const ReducedRules = RuleTextDelta | RuleGenericTool | RuleToolResult | RuleTextComplete

// itemCompletedMarker is the literal completion type some producers send.
const itemCompletedMarker = "item.completed"

// Engine classifies upstream events one at a time and returns the normalized
// events each one produces, in order. Not safe for concurrent use; one engine
// serves one chat turn at a time.
type Engine struct {
	log             *slog.Logger
	onThreadStarted func(id string)
	parents         map[string]string
	parentReported  map[string]bool
	seenThreads     map[string]bool
	rules           RuleSet
	finalText       strings.Builder
	textCompleted   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithThreadStartedFunc registers the callback invoked once per newly observed
// upstream thread id.
func WithThreadStartedFunc(fn func(id string)) Option {
	return func(e *Engine) { e.onThreadStarted = fn }
}

// NewEngine creates an engine with the given rule set.
func NewEngine(rules RuleSet, opts ...Option) *Engine {
	e := &Engine{
		log:            slog.New(nopHandler{}),
		rules:          rules,
		parents:        make(map[string]string),
		parentReported: make(map[string]bool),
		seenThreads:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BeginTurn resets per-turn state: the tool parent map and the running
// final-text buffer. Thread identity survives across turns.
func (e *Engine) BeginTurn() {
	e.parents = make(map[string]string)
	e.parentReported = make(map[string]bool)
	e.finalText.Reset()
	e.textCompleted = false
}

// FinalText returns the accumulated assistant text for the current turn.
func (e *Engine) FinalText() string {
	return e.finalText.String()
}

// Process classifies one upstream event. The returned slice preserves emission
// order and is empty for events that match no rule.
func (e *Engine) Process(raw map[string]interface{}) []events.Event {
	if raw == nil {
		return nil
	}

	typeStr, _ := extractType(raw)
	lowerType := strings.ToLower(typeStr)
	canonType := canonToken(typeStr)

	// Thread-started notifications report the new id and fall through to the
	// remaining rules on the same event.
	if e.rules&RuleThreadStarted != 0 && strings.Contains(canonType, "threadstarted") {
		if id, ok := extractThreadID(raw); ok && !e.seenThreads[id] {
			e.seenThreads[id] = true
			e.log.Debug("thread started", "threadID", id)
			if e.onThreadStarted != nil {
				e.onThreadStarted(id)
			}
		}
	}

	itemType, ok := extractItemType(raw)
	if !ok {
		itemType = itemTypeFromCanon(canonType)
	}

	// Streaming assistant text.
	if e.rules&RuleTextDelta != 0 && !e.textCompleted {
		if delta, ok := extractDelta(raw); ok {
			if strings.Contains(lowerType, "delta") || itemType == "agentmessage" {
				e.finalText.WriteString(delta)
				return []events.Event{events.TextDelta{Delta: delta}}
			}
		}
	}

	// Streaming command/file-change output arrives as output deltas and is
	// reported as (repeated) tool results.
	if e.rules&RuleOutputDelta != 0 && strings.Contains(canonType, "outputdelta") {
		if strings.Contains(canonType, "commandexecution") || strings.Contains(canonType, "filechange") ||
			itemType == "commandexecution" || itemType == "filechange" {
			if result, ok := extractToolResult(raw); ok {
				return []events.Event{result}
			}
		}
	}

	if isItemEvent(typeStr) {
		switch itemType {
		case "commandexecution":
			if e.rules&RuleCommandItem != 0 {
				if start, ok := e.commandToolStart(raw); ok {
					return []events.Event{start}
				}
			}
		case "mcptoolcall":
			if e.rules&RuleMCPToolItem != 0 {
				if start, ok := e.mcpToolStart(raw); ok {
					return []events.Event{start}
				}
			}
		}
	}

	// Generic tool descriptor on tool-flavored events.
	if e.rules&RuleGenericTool != 0 && strings.Contains(lowerType, "tool") {
		if call, ok := extractToolCall(raw); ok {
			return []events.Event{e.toolStart(call.Name, call.ID, call.Input, raw, "", "")}
		}
	}

	// Tool completion.
	if e.rules&RuleToolResult != 0 {
		if strings.Contains(lowerType, "completed") || typeStr == itemCompletedMarker {
			if result, ok := extractToolResult(raw); ok {
				return e.withParentUpdate(result, raw)
			}
		}
	}

	// Final assistant text.
	if e.rules&RuleTextComplete != 0 && !e.textCompleted {
		if text, ok := extractText(raw); ok {
			if strings.Contains(lowerType, "completed") || itemType == "agentmessage" {
				e.finalText.Reset()
				e.finalText.WriteString(text)
				e.textCompleted = true
				return []events.Event{events.TextComplete{Text: text}}
			}
		}
	}

	e.log.Debug("upstream event skipped", "type", typeStr)
	return nil
}

// Finish terminates the turn sequence. If no final text was ever reported,
// one is synthesized from the accumulated deltas or from a directly-returned
// result value. Exactly one Complete is appended, always last.
func (e *Engine) Finish(directResult string) []events.Event {
	var out []events.Event
	if !e.textCompleted {
		text := e.finalText.String()
		if text == "" {
			text = directResult
		}
		if text != "" {
			e.textCompleted = true
			out = append(out, events.TextComplete{Text: text})
		}
	}
	return append(out, events.Complete{})
}

// commandToolStart maps a command-execution item to a synthetic bash tool
// call. An item id is required.
func (e *Engine) commandToolStart(raw map[string]interface{}) (events.Event, bool) {
	item := itemPayload(raw)
	id, ok := probeString(item, callIDFields)
	if !ok {
		return nil, false
	}
	command, _ := extractCommand(item)
	input := map[string]interface{}{}
	if command != "" {
		input["command"] = command
	}
	intent, _ := probeString(item, intentFields)
	return e.toolStart("bash", id, input, raw, intent, command), true
}

// mcpToolStart maps an MCP tool-call item to a tool start with the name
// rewritten to canonical mcp__<source>__<tool> form.
func (e *Engine) mcpToolStart(raw map[string]interface{}) (events.Event, bool) {
	item := itemPayload(raw)
	name, ok := probeString(item, toolNameFields)
	if !ok {
		return nil, false
	}
	id, ok := probeString(item, callIDFields)
	if !ok {
		return nil, false
	}
	hint, _ := probeString(item, sourceFields)
	input, _ := probeMap(item, inputFields)
	intent, _ := probeString(item, intentFields)
	return e.toolStart(CanonicalToolName(name, hint), id, input, raw, intent, ""), true
}

// toolStart builds a ToolStart, recording any parent relationship observed on
// the same event. First observation wins; later parents for the same id are
// ignored.
func (e *Engine) toolStart(name, id string, input map[string]interface{}, raw map[string]interface{}, intent, displayName string) events.Event {
	start := events.ToolStart{
		Name:        name,
		ID:          id,
		Input:       input,
		Intent:      intent,
		DisplayName: displayName,
	}
	if parent, ok := extractParentID(raw); ok {
		if _, exists := e.parents[id]; !exists {
			e.parents[id] = parent
		}
		start.ParentID = e.parents[id]
		e.parentReported[id] = true
	}
	return start
}

// withParentUpdate prefixes a ToolResult with a ParentUpdate when a parent
// relationship for the invocation id is being reported for the first time.
func (e *Engine) withParentUpdate(result events.ToolResult, raw map[string]interface{}) []events.Event {
	if parent, ok := extractParentID(raw); ok {
		if _, exists := e.parents[result.ID]; !exists {
			e.parents[result.ID] = parent
		}
	}
	parent, known := e.parents[result.ID]
	if known && !e.parentReported[result.ID] {
		e.parentReported[result.ID] = true
		return []events.Event{
			events.ParentUpdate{ID: result.ID, ParentID: parent},
			result,
		}
	}
	return []events.Event{result}
}

// nopHandler discards all log output.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
