package codex

// PermissionRequest describes a tool invocation the upstream wants approved.
type PermissionRequest struct {
	ID          string
	Tool        string
	Description string
}

// Notifier receives out-of-band session notifications, independent of the
// normalized event sequence a chat turn yields. Implementations must not
// block.
type Notifier interface {
	OnThreadStarted(id string)
	OnPermissionRequest(req PermissionRequest)
	OnModeChanged(mode string)
	OnPlanSubmitted(plan string)
	OnAuthRequest()
	OnSourcesChanged(sources []string)
	OnSourceActivationRequest(source string)
	OnValidationError(err error)
	OnDebug(msg string)
}

// BaseNotifier is a Notifier that ignores everything. Embed it to implement
// only the notifications you care about.
type BaseNotifier struct{}

func (BaseNotifier) OnThreadStarted(string)              {}
func (BaseNotifier) OnPermissionRequest(PermissionRequest) {}
func (BaseNotifier) OnModeChanged(string)                {}
func (BaseNotifier) OnPlanSubmitted(string)              {}
func (BaseNotifier) OnAuthRequest()                      {}
func (BaseNotifier) OnSourcesChanged([]string)           {}
func (BaseNotifier) OnSourceActivationRequest(string)    {}
func (BaseNotifier) OnValidationError(error)             {}
func (BaseNotifier) OnDebug(string)                      {}
