package types

import (
	"fmt"
	"time"
)

// Config represents the hook dispatcher configuration.
// JSON, JSONC and YAML files share the same shape.
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	Server     *ServerConfig     `json:"server,omitempty" yaml:"server,omitempty"`
	Dispatch   *DispatchConfig   `json:"dispatch,omitempty" yaml:"dispatch,omitempty"`
	Permission *PermissionConfig `json:"permission,omitempty" yaml:"permission,omitempty"`
	Log        *LogConfig        `json:"log,omitempty" yaml:"log,omitempty"`

	// Hooks declared in configuration, appended across files in load order.
	Hooks []HookConfig `json:"hooks,omitempty" yaml:"hooks,omitempty"`
}

// ServerConfig holds HTTP host adapter settings.
type ServerConfig struct {
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Hostname string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	CORS     *bool  `json:"cors,omitempty" yaml:"cors,omitempty"`
}

// DispatchConfig selects the host discipline and the default deadline.
type DispatchConfig struct {
	Mode    string `json:"mode,omitempty" yaml:"mode,omitempty"`       // "blocking" | "cooperative"
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Go duration, e.g. "5s"
}

// TimeoutDuration parses Timeout. An empty value means no deadline.
func (d *DispatchConfig) TimeoutDuration() (time.Duration, error) {
	if d == nil || d.Timeout == "" {
		return 0, nil
	}
	v, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return 0, fmt.Errorf("dispatch timeout: %w", err)
	}
	if v < 0 {
		return 0, fmt.Errorf("dispatch timeout must not be negative: %s", d.Timeout)
	}
	return v, nil
}

// PermissionConfig configures the rule-based permission gate.
type PermissionConfig struct {
	Default string           `json:"default,omitempty" yaml:"default,omitempty"` // "allow" | "deny"
	Rules   []PermissionRule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// PermissionRule matches events by category and name glob.
type PermissionRule struct {
	Category  string   `json:"category,omitempty" yaml:"category,omitempty"` // empty or "*" matches any
	Pattern   string   `json:"pattern" yaml:"pattern"`
	Actors    []string `json:"actors,omitempty" yaml:"actors,omitempty"`
	AuthTypes []string `json:"authTypes,omitempty" yaml:"authTypes,omitempty"`
	Action    string   `json:"action" yaml:"action"` // "allow" | "deny"
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Pretty bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"`
}

// HookConfig declares a hook in configuration.
type HookConfig struct {
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
	Kind     string `json:"kind" yaml:"kind"` // "shell" | "jq" | "static"

	Run   string `json:"run,omitempty" yaml:"run,omitempty"`     // shell
	Query string `json:"query,omitempty" yaml:"query,omitempty"` // jq
	Value any    `json:"value,omitempty" yaml:"value,omitempty"` // static

	// Suspendable overrides the default discipline of the kind
	// (shell hooks are suspendable, jq and static hooks are blocking).
	Suspendable *bool  `json:"suspendable,omitempty" yaml:"suspendable,omitempty"`
	Timeout     string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}
