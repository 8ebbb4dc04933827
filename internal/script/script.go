// Package script compiles hooks declared in configuration into callables.
//
// Three kinds are supported:
//
//	shell   a bash snippet run by an embedded interpreter; the call is
//	        passed as JSON on stdin and as ACTINGWEB_* variables
//	jq      a jq query evaluated against the call document
//	static  a literal value
//
// Shell hooks are suspendable by default, jq and static hooks blocking.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Kind names a script hook implementation.
type Kind string

const (
	KindShell  Kind = "shell"
	KindJQ     Kind = "jq"
	KindStatic Kind = "static"
)

// SourceConfig labels hooks registered from configuration.
const SourceConfig = "config"

// Hook is a compiled configuration hook.
type Hook struct {
	Category types.Category
	Name     string
	Kind     Kind
	Callable hook.Callable
}

// Compile turns one hook declaration into a callable.
func Compile(hc types.HookConfig) (*Hook, error) {
	category, err := types.ParseCategory(hc.Category)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(hc.Name)
	if name == "" {
		return nil, errors.New("hook name is required")
	}

	var timeout time.Duration
	if hc.Timeout != "" {
		timeout, err = time.ParseDuration(hc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
	}

	var (
		fn          hook.Func
		suspendable bool
	)
	kind := Kind(strings.ToLower(hc.Kind))
	switch kind {
	case KindShell:
		fn, err = compileShell(hc.Run)
		suspendable = true
	case KindJQ:
		fn, err = compileJQ(hc.Query)
	case KindStatic:
		fn = static(hc.Value)
	default:
		return nil, fmt.Errorf("unknown hook kind %q", hc.Kind)
	}
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		fn = withTimeout(fn, timeout)
	}
	if hc.Suspendable != nil {
		suspendable = *hc.Suspendable
	}

	c := hook.Blocking(fn)
	if suspendable {
		c = hook.Suspendable(fn)
	}
	return &Hook{Category: category, Name: name, Kind: kind, Callable: c}, nil
}

// RegisterAll compiles every declaration and registers them in order.
// Nothing is registered if any declaration fails to compile.
func RegisterAll(t *hook.Table, hooks []types.HookConfig) ([]hook.Handle, error) {
	compiled := make([]*Hook, 0, len(hooks))
	var errs []error
	for i, hc := range hooks {
		h, err := Compile(hc)
		if err != nil {
			errs = append(errs, fmt.Errorf("hook %d (%s/%s): %w", i, hc.Category, hc.Name, err))
			continue
		}
		compiled = append(compiled, h)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	handles := make([]hook.Handle, 0, len(compiled))
	for _, h := range compiled {
		handles = append(handles, t.Register(h.Category, h.Name, h.Callable, hook.WithSource(SourceConfig)))
	}
	return handles, nil
}

func static(v any) hook.Func {
	return func(context.Context, *hook.Call) (any, error) {
		return v, nil
	}
}

func withTimeout(fn hook.Func, d time.Duration) hook.Func {
	return func(ctx context.Context, call *hook.Call) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return fn(ctx, call)
	}
}

// document is the JSON form of a call handed to scripts.
type document struct {
	DispatchID string       `json:"dispatchId"`
	Category   string       `json:"category"`
	Name       string       `json:"name"`
	Actor      *types.Actor `json:"actor,omitempty"`
	Auth       *types.Auth  `json:"auth,omitempty"`
	Payload    any          `json:"payload,omitempty"`
}

func encodeCall(call *hook.Call) ([]byte, error) {
	return json.Marshal(document{
		DispatchID: call.DispatchID,
		Category:   string(call.Category),
		Name:       call.Name,
		Actor:      call.Actor,
		Auth:       call.Auth,
		Payload:    call.Payload,
	})
}

// callValue returns the call document as plain JSON values.
func callValue(call *hook.Call) (any, error) {
	data, err := encodeCall(call)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
