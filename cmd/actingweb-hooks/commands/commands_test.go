package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// execute runs the root command with args in an isolated environment.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	printLogs, logLevel, envFile, noColor = false, "", ".env", false
	dispatchActor, dispatchPayload, dispatchAuthType, dispatchToken, dispatchPeer = "", "", "", "", ""
	dispatchMode, dispatchTimeout, dispatchJSON = "", "", false
	hooksCategory = ""
	mcpSSEAddr, mcpMode, mcpTimeout = "", "", ""

	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--directory", dir,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--no-color",
	}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func decodeResult(t *testing.T, out string) resultJSON {
	t.Helper()
	var res resultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	return res
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "actingweb-hooks "+Version)
}

func TestDispatchCommand_Builtin(t *testing.T) {
	out, err := execute(t, "dispatch", "methods", "echo", "--payload", `{"a": 1}`, "--json")
	require.NoError(t, err)

	res := decodeResult(t, out)
	assert.Equal(t, "handled", res.Result)
	assert.Equal(t, map[string]any{"a": 1.0}, res.Value)
	assert.Equal(t, 1, res.Invoked)
	assert.NotEmpty(t, res.DispatchID)
}

func TestDispatchCommand_ConfigHooks(t *testing.T) {
	t.Setenv("ACTINGWEB_CONFIG_CONTENT", `{
		// config-declared hooks run before the builtins
		"hooks": [
			{"category": "action", "name": "whoami", "kind": "jq", "query": ".actor.id"},
			{"category": "action", "name": "*", "kind": "static", "value": "fallback"}
		]
	}`)

	out, err := execute(t, "dispatch", "action", "whoami", "--actor", "a42", "--json")
	require.NoError(t, err)
	assert.Equal(t, "a42", decodeResult(t, out).Value)

	out, err = execute(t, "dispatch", "action", "other", "--json", "--mode", "cooperative")
	require.NoError(t, err)
	assert.Equal(t, "fallback", decodeResult(t, out).Value)
}

func TestDispatchCommand_Denied(t *testing.T) {
	t.Setenv("ACTINGWEB_PERMISSION", `{"default": "allow", "rules": [{"pattern": "ping", "action": "deny"}]}`)

	out, err := execute(t, "dispatch", "method", "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "denied method:ping")
}

func TestDispatchCommand_Unhandled(t *testing.T) {
	out, err := execute(t, "dispatch", "property", "color")
	require.NoError(t, err)
	assert.Contains(t, out, "unhandled property:color")
	assert.Contains(t, out, "0/0 hooks invoked")
}

func TestDispatchCommand_Errors(t *testing.T) {
	_, err := execute(t, "dispatch", "nope", "x")
	assert.ErrorContains(t, err, "unknown hook category")

	_, err = execute(t, "dispatch", "method", "echo", "--auth", "kerberos")
	assert.ErrorContains(t, err, "unknown auth type")

	_, err = execute(t, "dispatch", "method")
	assert.Error(t, err)

	_, err = execute(t, "dispatch", "method", "echo", "--timeout", "later")
	assert.Error(t, err)
}

func TestHooksCommand(t *testing.T) {
	out, err := execute(t, "hooks", "--category", "methods")
	require.NoError(t, err)
	assert.Contains(t, out, "ping")
	assert.Contains(t, out, "echo")
	assert.NotContains(t, out, "lifecycle")

	out, err = execute(t, "hooks")
	require.NoError(t, err)
	assert.Contains(t, out, "lifecycle")
}

func TestParsePayload(t *testing.T) {
	assert.Nil(t, parsePayload(""))
	assert.Nil(t, parsePayload("   "))
	assert.Equal(t, 3.0, parsePayload("3"))
	assert.Equal(t, "plain text", parsePayload("plain text"))
	assert.Equal(t, []any{"a"}, parsePayload(`["a"]`))
}

func TestParseAuthFlags(t *testing.T) {
	tests := []struct {
		authType, token, peer string
		want                  types.AuthType
		wantErr               bool
	}{
		{want: types.AuthAnonymous},
		{token: "t", want: types.AuthOAuth},
		{token: "t", peer: "p", want: types.AuthTrust},
		{authType: "BASIC", token: "t", want: types.AuthBasic},
		{authType: "other", wantErr: true},
	}
	for _, tt := range tests {
		auth, err := parseAuthFlags(tt.authType, tt.token, tt.peer)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, auth.Type)
	}
}

func TestRenderer_HooksWildcardLast(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, true)

	regs := []*hook.Registration{
		{ID: "h1", Category: types.CategoryAction, Name: types.Wildcard, Source: "config"},
		{ID: "h2", Category: types.CategoryAction, Name: "run", Source: "config"},
		{ID: "h3", Category: types.CategoryMethod, Name: "ping", Source: "builtin"},
	}
	r.Hooks(regs, "")

	out := buf.String()
	assert.Less(t, strings.Index(out, "method"), strings.Index(out, "action"))
	assert.Less(t, strings.Index(out, "h2"), strings.Index(out, "h1"))

	buf.Reset()
	r.Hooks(regs, types.CategoryLifecycle)
	assert.Contains(t, buf.String(), "no hooks registered")
}

func TestRenderer_Result(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, true)

	req := hook.Request{Category: types.CategoryMethod, Name: "ping"}
	r.Result(req, hook.Result{
		Kind: hook.ResultHandled, Value: map[string]any{"pong": true}, HookID: "h1",
		DispatchID: "d1", Candidates: 2, Invoked: 2, Failures: 1, Duration: time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "handled method:ping by h1")
	assert.Contains(t, out, `"pong": true`)
	assert.Contains(t, out, "1 hook(s) failed")
	assert.Contains(t, out, "dispatch d1: 2/2 hooks invoked")
}
