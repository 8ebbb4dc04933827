package event

// EventType represents the type of event.
type EventType string

const (
	HookRegistered    EventType = "hook.registered"
	HookFailed        EventType = "hook.failed"
	DispatchDenied    EventType = "dispatch.denied"
	DispatchCompleted EventType = "dispatch.completed"
	ConfigReloaded    EventType = "config.reloaded"
)

// Event represents an event to be published.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// HookRegisteredData is the data for hook.registered events.
type HookRegisteredData struct {
	ID       string `json:"id"`
	Order    uint64 `json:"order"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Source   string `json:"source,omitempty"`
}

// HookFailedData is the data for hook.failed events.
type HookFailedData struct {
	DispatchID string `json:"dispatchID"`
	HookID     string `json:"hookID"`
	Category   string `json:"category"`
	Name       string `json:"name"`
	Kind       string `json:"kind"` // "callable_failure" | "timeout_failure"
	Cause      string `json:"cause"`
	DurationMS int64  `json:"durationMs"`
}

// DispatchDeniedData is the data for dispatch.denied events.
type DispatchDeniedData struct {
	DispatchID string `json:"dispatchID"`
	Category   string `json:"category"`
	Name       string `json:"name"`
	ActorID    string `json:"actorID,omitempty"`
	AuthType   string `json:"authType,omitempty"`
}

// DispatchCompletedData is the data for dispatch.completed events.
type DispatchCompletedData struct {
	DispatchID string `json:"dispatchID"`
	Category   string `json:"category"`
	Name       string `json:"name"`
	Result     string `json:"result"` // "handled" | "unhandled" | "denied"
	HookID     string `json:"hookID,omitempty"`
	Candidates int    `json:"candidates"`
	DurationMS int64  `json:"durationMs"`
}

// ConfigReloadedData is the data for config.reloaded events.
type ConfigReloadedData struct {
	Path  string `json:"path"`
	Rules int    `json:"rules"`
	Error string `json:"error,omitempty"`
}
