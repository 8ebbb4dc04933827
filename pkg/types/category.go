package types

import (
	"fmt"
	"strings"
)

// Category classifies the event a hook is registered against.
type Category string

const (
	CategoryMethod       Category = "method"
	CategoryAction       Category = "action"
	CategoryProperty     Category = "property"
	CategoryCallback     Category = "callback"
	CategoryAppCallback  Category = "app_callback"
	CategoryLifecycle    Category = "lifecycle"
	CategorySubscription Category = "subscription"
)

// Wildcard is the reserved hook name matching any event name in a category.
// It is tried only after every registration for the exact name.
const Wildcard = "*"

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryMethod,
	CategoryAction,
	CategoryProperty,
	CategoryCallback,
	CategoryAppCallback,
	CategoryLifecycle,
	CategorySubscription,
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }

// ParseCategory parses a category name (case-insensitive). The plural forms
// used in URL paths ("methods", "actions", ...) are accepted as well.
func ParseCategory(s string) (Category, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "-", "_")
	switch v {
	case "methods":
		v = "method"
	case "actions":
		v = "action"
	case "properties":
		v = "property"
	case "callbacks":
		v = "callback"
	case "app_callbacks", "appcallback", "appcallbacks":
		v = "app_callback"
	case "subscriptions":
		v = "subscription"
	}
	c := Category(v)
	if !c.Valid() {
		return "", fmt.Errorf("unknown hook category %q", s)
	}
	return c, nil
}

// Lifecycle event names emitted by the framework.
const (
	LifecycleActorCreated        = "actor_created"
	LifecycleActorDeleted        = "actor_deleted"
	LifecycleOAuthSuccess        = "oauth_success"
	LifecycleTrustApproved       = "trust_approved"
	LifecycleTrustDeleted        = "trust_deleted"
	LifecycleSubscriptionDeleted = "subscription_deleted"
)
