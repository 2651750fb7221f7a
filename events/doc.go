// Package events defines the normalized event vocabulary shared by all agent
// backends.
//
// Each backend wraps a CLI subprocess whose wire protocol is loosely typed and
// provider-specific. The normalize package translates those upstream payloads
// into the small set of typed events defined here, and the chat UI consumes
// only this vocabulary. A chat turn is delivered as an ordered sequence of
// Event values terminated by exactly one Complete.
package events
