package claude

import (
	"errors"
	"fmt"
)

// ErrTurnInFlight is returned by Chat when a turn is already running on the
// session.
var ErrTurnInFlight = errors.New("claude: a chat turn is already in flight")

// ProcessError reports a failure spawning or running the Claude CLI.
type ProcessError struct {
	Message string
	Cause   error
}

func (e *ProcessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("claude process: %s: %v", e.Message, e.Cause)
	}
	return "claude process: " + e.Message
}

func (e *ProcessError) Unwrap() error { return e.Cause }
