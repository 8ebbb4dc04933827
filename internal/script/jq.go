package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/actingweb/actingweb-sub001/internal/hook"
)

func compileJQ(src string) (hook.Func, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("jq hook needs query")
	}
	query, err := gojq.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("jq: filter parse error: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq: compile error: %w", err)
	}

	return func(ctx context.Context, call *hook.Call) (any, error) {
		input, err := callValue(call)
		if err != nil {
			return nil, fmt.Errorf("jq: encode call: %w", err)
		}

		// The first non-null output is the hook's value.
		iter := code.RunWithContext(ctx, input)
		for {
			v, ok := iter.Next()
			if !ok {
				return nil, nil
			}
			if err, ok := v.(error); ok {
				var halt *gojq.HaltError
				if errors.As(err, &halt) && halt.Value() == nil {
					return nil, nil
				}
				return nil, fmt.Errorf("jq: execution error: %w", err)
			}
			if v != nil {
				return v, nil
			}
		}
	}, nil
}
