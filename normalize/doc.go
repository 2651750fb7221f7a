// Package normalize converts loosely-typed upstream agent events into the
// typed vocabulary defined by the events package.
//
// # Background
//
// The upstream CLIs emit JSON objects whose field names vary by event family
// and protocol revision: the same logical field may arrive as "call_id",
// "callId" or "tool_use_id" depending on which code path produced it. Rather
// than modeling every shape, extraction is a small ordered list of synonym
// field names per logical field, applied in fixed priority order. Events that
// match no extractor contribute nothing and are skipped.
//
// # Design
//
// One classification engine serves both the streamed and the non-streamed
// fallback paths; the RuleSet parameter selects which dispatch rules are
// reachable. The engine is single-goroutine: callers feed it one decoded
// event at a time and forward the events it returns, in order.
package normalize
