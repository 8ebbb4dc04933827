// Package dispatch provides an MCP server that exposes the hook dispatcher
// as tools, so agents can fire actor events the same way HTTP clients do.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// Host runs one dispatch in whatever mode it was configured for.
type Host interface {
	Dispatch(ctx context.Context, req hook.Request) hook.Result
}

// HostFunc adapts a function to Host.
type HostFunc func(ctx context.Context, req hook.Request) hook.Result

func (f HostFunc) Dispatch(ctx context.Context, req hook.Request) hook.Result { return f(ctx, req) }

// NewServer creates an MCP server with the dispatch and list_hooks tools.
func NewServer(host Host, table *hook.Table, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"actingweb-hooks",
		version,
		server.WithToolCapabilities(true),
	)

	categories := make([]string, len(types.Categories))
	for i, c := range types.Categories {
		categories[i] = string(c)
	}

	dispatchTool := mcp.NewTool("dispatch",
		mcp.WithDescription("Dispatches one actor event to the registered hooks and returns the first hook's value"),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Event category"),
			mcp.Enum(categories...),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Event name, e.g. the method or property name"),
		),
		mcp.WithString("actor", mcp.Description("Actor ID")),
		mcp.WithString("payload", mcp.Description("Event payload as JSON; other text is passed as a string")),
		mcp.WithString("auth_type",
			mcp.Description("How the caller authenticated"),
			mcp.Enum(string(types.AuthAnonymous), string(types.AuthBasic), string(types.AuthOAuth), string(types.AuthTrust)),
		),
		mcp.WithString("peer", mcp.Description("Peer ID for trust auth")),
	)
	s.AddTool(dispatchTool, dispatchHandler(host))

	listTool := mcp.NewTool("list_hooks",
		mcp.WithDescription("Lists registered hooks in dispatch order"),
		mcp.WithString("category",
			mcp.Description("Only list hooks of this category"),
			mcp.Enum(categories...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listTool, listHandler(table))

	return s
}

// Outcome is the JSON document returned by the dispatch tool.
type Outcome struct {
	DispatchID string `json:"dispatchID"`
	Result     string `json:"result"`
	Value      any    `json:"value,omitempty"`
	HookID     string `json:"hookID,omitempty"`
	Candidates int    `json:"candidates"`
	Invoked    int    `json:"invoked"`
	Failures   int    `json:"failures"`
}

func dispatchHandler(host Host) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawCategory, err := request.RequireString("category")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		category, err := types.ParseCategory(rawCategory)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		name, err := request.RequireString("name")
		if err != nil || name == "" || name == types.Wildcard {
			return mcp.NewToolResultError("event name required"), nil
		}

		authType, err := types.ParseAuthType(request.GetString("auth_type", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		req := hook.Request{
			Category: category,
			Name:     name,
			Payload:  payload(request.GetString("payload", "")),
			Auth: &types.Auth{
				Type:   authType,
				PeerID: request.GetString("peer", ""),
			},
		}
		if actor := request.GetString("actor", ""); actor != "" {
			req.Actor = &types.Actor{ID: actor}
		}

		res := host.Dispatch(ctx, req)
		if res.Kind == hook.ResultDenied {
			return mcp.NewToolResultError(fmt.Sprintf("dispatch %s denied: %s %s", res.DispatchID, category, name)), nil
		}

		data, err := json.Marshal(Outcome{
			DispatchID: res.DispatchID,
			Result:     res.Kind.String(),
			Value:      res.Value,
			HookID:     res.HookID,
			Candidates: res.Candidates,
			Invoked:    res.Invoked,
			Failures:   res.Failures,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("hook value is not JSON: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// HookInfo is one entry of the list_hooks result.
type HookInfo struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Source   string `json:"source,omitempty"`
}

func listHandler(table *hook.Table) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var filter types.Category
		if raw := request.GetString("category", ""); raw != "" {
			c, err := types.ParseCategory(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			filter = c
		}

		out := []HookInfo{}
		for _, c := range types.Categories {
			if filter != "" && c != filter {
				continue
			}
			var wildcards []HookInfo
			for _, reg := range table.Registrations() {
				if reg.Category != c {
					continue
				}
				info := HookInfo{
					ID:       reg.ID,
					Category: string(reg.Category),
					Name:     reg.Name,
					Kind:     reg.Callable.Kind().String(),
					Source:   reg.Source,
				}
				if reg.Wildcard() {
					wildcards = append(wildcards, info)
				} else {
					out = append(out, info)
				}
			}
			out = append(out, wildcards...)
		}

		data, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func payload(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
