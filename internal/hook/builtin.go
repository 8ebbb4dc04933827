package hook

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// SourceBuiltin labels the hooks added by RegisterBuiltins.
const SourceBuiltin = "builtin"

// RegisterBuiltins adds the hooks every host ships with:
//
//	method:ping   returns {"pong": true, "time": ...}
//	method:echo   returns the payload unchanged
//	lifecycle:*   logs the transition, leaves it unhandled
func RegisterBuiltins(t *Table, log zerolog.Logger) {
	t.Register(types.CategoryMethod, "ping", Blocking(func(_ context.Context, call *Call) (any, error) {
		return map[string]any{
			"pong": true,
			"time": time.Now().UTC().Format(time.RFC3339Nano),
		}, nil
	}), WithSource(SourceBuiltin))

	t.Register(types.CategoryMethod, "echo", Blocking(func(_ context.Context, call *Call) (any, error) {
		return call.Payload, nil
	}), WithSource(SourceBuiltin))

	t.RegisterWildcard(types.CategoryLifecycle, Blocking(func(_ context.Context, call *Call) (any, error) {
		log.Info().
			Str("event", call.Name).
			Str("actor", types.ActorID(call.Actor)).
			Str("dispatch", call.DispatchID).
			Msg("lifecycle")
		return nil, nil
	}), WithSource(SourceBuiltin))
}
