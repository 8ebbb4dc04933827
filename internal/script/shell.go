package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// maxStderr bounds the stderr excerpt kept in a failure.
const maxStderr = 512

func compileShell(src string) (hook.Func, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("shell hook needs run")
	}
	// Parse once to reject syntax errors at wiring time.
	if _, err := parseShell(src); err != nil {
		return nil, err
	}

	return func(ctx context.Context, call *hook.Call) (any, error) {
		prog, err := parseShell(src)
		if err != nil {
			return nil, err
		}
		input, err := encodeCall(call)
		if err != nil {
			return nil, fmt.Errorf("encode call: %w", err)
		}

		var stdout, stderr bytes.Buffer
		runner, err := interp.New(
			interp.StdIO(bytes.NewReader(input), &stdout, &stderr),
			interp.Env(expand.ListEnviron(shellEnv(call)...)),
		)
		if err != nil {
			return nil, err
		}

		err = runner.Run(ctx, prog)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			var status interp.ExitStatus
			if errors.As(err, &status) {
				return nil, fmt.Errorf("shell hook exited with status %d: %s", uint8(status), excerpt(stderr.String()))
			}
			return nil, err
		}
		return decodeOutput(stdout.Bytes()), nil
	}, nil
}

func parseShell(src string) (*syntax.File, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	prog, err := parser.Parse(strings.NewReader(src), "")
	if err != nil {
		return nil, fmt.Errorf("shell hook: %w", err)
	}
	return prog, nil
}

func shellEnv(call *hook.Call) []string {
	env := append([]string{}, os.Environ()...)
	return append(env,
		"ACTINGWEB_DISPATCH_ID="+call.DispatchID,
		"ACTINGWEB_CATEGORY="+string(call.Category),
		"ACTINGWEB_NAME="+call.Name,
		"ACTINGWEB_ACTOR_ID="+types.ActorID(call.Actor),
		"ACTINGWEB_AUTH_TYPE="+string(types.AuthTypeOf(call.Auth)),
	)
}

// decodeOutput returns nil for blank output, the decoded value for JSON,
// and the trimmed text otherwise.
func decodeOutput(out []byte) any {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil
	}
	if json.Valid(trimmed) {
		var v any
		if err := json.Unmarshal(trimmed, &v); err == nil {
			return v
		}
	}
	return string(trimmed)
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return s[:maxStderr] + "..."
	}
	return s
}
