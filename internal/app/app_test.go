package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actingweb/actingweb-sub001/internal/config"
	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/internal/permission"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

func boolPtr(b bool) *bool { return &b }

func TestNew_Defaults(t *testing.T) {
	a, err := New(nil)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, hook.ModeBlocking, a.Mode)
	assert.Nil(t, a.Loop)
	assert.Zero(t, a.Timeout)
	assert.True(t, a.Table.Frozen())

	res := a.Dispatch(context.Background(), hook.Request{Category: types.CategoryMethod, Name: "echo", Payload: "hi"})
	assert.Equal(t, hook.ResultHandled, res.Kind)
	assert.Equal(t, "hi", res.Value)
}

func TestNew_ConfigHooksShadowBuiltins(t *testing.T) {
	cfg := &types.Config{
		Hooks: []types.HookConfig{
			{Category: "method", Name: "echo", Kind: "static", Value: "from config"},
			{Category: "actions", Name: "double", Kind: "jq", Query: ".payload * 2"},
		},
	}
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	res := a.Dispatch(context.Background(), hook.Request{Category: types.CategoryMethod, Name: "echo", Payload: "hi"})
	assert.Equal(t, "from config", res.Value)

	res = a.Dispatch(context.Background(), hook.Request{Category: types.CategoryAction, Name: "double", Payload: 21})
	assert.Equal(t, hook.ResultHandled, res.Kind)
	assert.EqualValues(t, 42, res.Value)
}

func TestNew_WithoutBuiltins(t *testing.T) {
	a, err := New(&types.Config{}, WithoutBuiltins())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Zero(t, a.Table.Len())
	res := a.Dispatch(context.Background(), hook.Request{Category: types.CategoryMethod, Name: "ping"})
	assert.Equal(t, hook.ResultUnhandled, res.Kind)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *types.Config
	}{
		{"mode", &types.Config{Dispatch: &types.DispatchConfig{Mode: "turbo"}}},
		{"timeout", &types.Config{Dispatch: &types.DispatchConfig{Timeout: "soon"}}},
		{"permission", &types.Config{Permission: &types.PermissionConfig{Default: "maybe"}}},
		{"hook", &types.Config{Hooks: []types.HookConfig{{Category: "method", Name: "x", Kind: "python"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestCooperativeApp(t *testing.T) {
	cfg := &types.Config{
		Dispatch: &types.DispatchConfig{Mode: "cooperative", Timeout: "2s"},
	}
	a, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, a.Loop)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close(context.Background())

	assert.Equal(t, 2*time.Second, a.Timeout)
	assert.True(t, a.Server.Cooperative())
	assert.Equal(t, hook.ModeCooperative, a.ExecutionContext(context.Background()).Mode())

	res := a.Dispatch(context.Background(), hook.Request{Category: types.CategoryMethod, Name: "ping"})
	require.Equal(t, hook.ResultHandled, res.Kind)
	assert.Equal(t, true, res.Value.(map[string]any)["pong"])
	assert.NotZero(t, a.Loop.Executed())
}

func TestPermissionAndMetricsWiring(t *testing.T) {
	cfg := &types.Config{
		Permission: &types.PermissionConfig{
			Rules: []types.PermissionRule{{Category: "method", Pattern: "ping", Action: "deny"}},
		},
	}
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	w := httptest.NewRecorder()
	a.Server.Router().ServeHTTP(w, httptest.NewRequest("POST", "/actor/methods/ping", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	a.Server.Router().ServeHTTP(w, httptest.NewRequest("POST", "/actor/methods/echo", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "echo of nil is unhandled")

	snap := a.Metrics.Snapshot()
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, int64(1), snap.Categories[0].Denied)
	assert.Equal(t, int64(1), snap.Categories[0].Unhandled)

	a.Reload(&types.Config{}, nil)
	res := a.Dispatch(context.Background(), hook.Request{Category: types.CategoryMethod, Name: "ping"})
	assert.Equal(t, hook.ResultHandled, res.Kind)
}

func TestReload_KeepsPolicyOnError(t *testing.T) {
	cfg := &types.Config{Permission: &types.PermissionConfig{Default: "deny"}}
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	a.Reload(nil, assert.AnError)
	a.Reload(&types.Config{Permission: &types.PermissionConfig{Default: "bogus"}}, nil)
	assert.Equal(t, permission.ActionDeny, a.Gate.Policy().Default)
}

func TestWatcherReloadsPermissions(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := config.ProjectConfigPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`{"permission": {"default": "deny"}}`), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	a, err := New(cfg, WithDirectory(dir), WithWatch(true))
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	defer a.Close(context.Background())

	req := hook.Request{Category: types.CategoryMethod, Name: "ping"}
	assert.Equal(t, hook.ResultDenied, a.Dispatch(context.Background(), req).Kind)

	require.NoError(t, os.WriteFile(path, []byte(`{"permission": {"default": "allow"}}`), 0644))
	assert.Eventually(t, func() bool {
		return a.Dispatch(context.Background(), req).Kind == hook.ResultHandled
	}, 5*time.Second, 50*time.Millisecond)
}

func TestServerConfig(t *testing.T) {
	sc := ServerConfig(nil)
	assert.Equal(t, DefaultPort, sc.Port)

	sc = ServerConfig(&types.Config{Server: &types.ServerConfig{Port: 9000, Hostname: "0.0.0.0", CORS: boolPtr(false)}})
	assert.Equal(t, 9000, sc.Port)
	assert.Equal(t, "0.0.0.0", sc.Hostname)
	assert.False(t, sc.EnableCORS)
}

func TestLogConfig(t *testing.T) {
	base := logging.DefaultConfig()
	assert.Equal(t, base, LogConfig(base, &types.Config{}))

	got := LogConfig(base, &types.Config{Log: &types.LogConfig{Level: "debug", Pretty: true}})
	assert.Equal(t, logging.DebugLevel, got.Level)
	assert.True(t, got.Pretty)
}
