// Package permission provides the permission gate consulted before any hook runs.
package permission

import (
	"fmt"
	"strings"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Action represents the decision a rule produces.
type Action string

const (
	ActionAllow Action = "allow"
	ActionDeny  Action = "deny"
)

// ParseAction parses "allow" or "deny" (case-insensitive).
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionAllow:
		return ActionAllow, nil
	case ActionDeny:
		return ActionDeny, nil
	}
	return "", fmt.Errorf("unknown permission action %q", s)
}

// Gate decides whether a dispatch may invoke hooks at all.
// Allow must be fast and must not block: the engine calls it before
// committing to any suspendable work, possibly on a cooperative scheduler.
type Gate interface {
	Allow(category types.Category, name string, actor *types.Actor, auth *types.Auth) bool
}

// GateFunc adapts a function to Gate.
type GateFunc func(category types.Category, name string, actor *types.Actor, auth *types.Auth) bool

// Allow implements Gate.
func (f GateFunc) Allow(category types.Category, name string, actor *types.Actor, auth *types.Auth) bool {
	return f(category, name, actor, auth)
}

type constGate bool

func (g constGate) Allow(types.Category, string, *types.Actor, *types.Auth) bool { return bool(g) }

var (
	// AllowAll permits every dispatch.
	AllowAll Gate = constGate(true)
	// DenyAll rejects every dispatch.
	DenyAll Gate = constGate(false)
)
