package types

import (
	"fmt"
	"strings"
)

// Actor identifies the actor instance an event is addressed to.
type Actor struct {
	ID      string `json:"id"`
	Creator string `json:"creator,omitempty"`
}

// AuthType describes how the caller authenticated.
type AuthType string

const (
	AuthAnonymous AuthType = "anonymous"
	AuthBasic     AuthType = "basic"
	AuthOAuth     AuthType = "oauth"
	AuthTrust     AuthType = "trust"
)

// ParseAuthType parses an auth type name (case-insensitive). An empty
// string is anonymous.
func ParseAuthType(s string) (AuthType, error) {
	t := AuthType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return AuthAnonymous, nil
	case AuthAnonymous, AuthBasic, AuthOAuth, AuthTrust:
		return t, nil
	}
	return "", fmt.Errorf("unknown auth type %q", s)
}

// Auth is the authentication context the handler layer resolved for a
// request. The hook engine only hands it to the permission gate and to hooks.
type Auth struct {
	Type     AuthType `json:"type"`
	PeerID   string   `json:"peerID,omitempty"`
	ClientID string   `json:"clientID,omitempty"`
	Token    string   `json:"-"`
}

// AuthTypeOf returns the auth type of a, treating nil as anonymous.
func AuthTypeOf(a *Auth) AuthType {
	if a == nil || a.Type == "" {
		return AuthAnonymous
	}
	return a.Type
}

// ActorID returns the id of a, or "" for nil.
func ActorID(a *Actor) string {
	if a == nil {
		return ""
	}
	return a.ID
}
