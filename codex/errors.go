package codex

import (
	"errors"
	"fmt"
)

// ErrTurnInFlight is returned by Chat when a turn is already running on the
// session. Sessions run at most one turn at a time.
var ErrTurnInFlight = errors.New("codex: a chat turn is already in flight")

// ErrNoThread is returned when an operation requires a thread that was never
// started.
var ErrNoThread = errors.New("codex: no active thread")

// ProtocolError reports a failure in the JSONL exchange with the Codex CLI.
type ProtocolError struct {
	Message string
	Cause   error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("codex protocol: %s: %v", e.Message, e.Cause)
	}
	return "codex protocol: " + e.Message
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// ProcessError reports a failure spawning or running the Codex CLI process.
type ProcessError struct {
	Message string
	Cause   error
}

func (e *ProcessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("codex process: %s: %v", e.Message, e.Cause)
	}
	return "codex process: " + e.Message
}

func (e *ProcessError) Unwrap() error { return e.Cause }
