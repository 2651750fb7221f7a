package events

// Kind discriminates between event kinds.
type Kind int

const (
	// KindTextDelta fires for streaming assistant text chunks.
	KindTextDelta Kind = iota

	// KindTextComplete fires once with the full final text of a turn.
	KindTextComplete

	// KindToolStart fires when a tool invocation begins.
	KindToolStart

	// KindToolResult fires when a tool invocation produces output.
	KindToolResult

	// KindParentUpdate retroactively assigns a parent to a reported invocation.
	KindParentUpdate

	// KindInfo carries an informational notice for the user.
	KindInfo

	// KindComplete terminates a turn sequence. Always last, exactly once.
	KindComplete
)

// Event is the interface for all normalized events.
type Event interface {
	EventKind() Kind
}

// TextDelta contains an incremental assistant text chunk.
type TextDelta struct {
	Delta string
}

func (e TextDelta) EventKind() Kind { return KindTextDelta }

// TextComplete contains the full final text for an assistant turn.
type TextComplete struct {
	Text string
}

func (e TextComplete) EventKind() Kind { return KindTextComplete }

// ToolStart fires when a tool invocation begins.
//
// Intent, DisplayName and ParentID are optional metadata: Intent is a short
// human-readable description of what the tool is doing, DisplayName overrides
// Name for rendering, and ParentID links a sub-invocation to the invocation
// that spawned it.
type ToolStart struct {
	Input       map[string]interface{}
	Name        string
	ID          string
	Intent      string
	DisplayName string
	ParentID    string
}

func (e ToolStart) EventKind() Kind { return KindToolStart }

// ToolResult carries the output of a tool invocation. Result may include
// error-stream content appended under a labeled section.
type ToolResult struct {
	ID      string
	Result  string
	IsError bool
}

func (e ToolResult) EventKind() Kind { return KindToolResult }

// ParentUpdate assigns a parent to an invocation id that was already reported
// without one. Emitted immediately before the ToolResult it qualifies.
type ParentUpdate struct {
	ID       string
	ParentID string
}

func (e ParentUpdate) EventKind() Kind { return KindParentUpdate }

// Info carries an informational notice (e.g. attachments are unsupported).
type Info struct {
	Message string
}

func (e Info) EventKind() Kind { return KindInfo }

// Complete is the terminal marker for a turn.
type Complete struct{}

func (e Complete) EventKind() Kind { return KindComplete }
