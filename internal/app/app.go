// Package app wires configuration, the hook table, the dispatch engine and
// the HTTP host into one runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/actingweb/actingweb-sub001/internal/config"
	"github.com/actingweb/actingweb-sub001/internal/coop"
	"github.com/actingweb/actingweb-sub001/internal/event"
	"github.com/actingweb/actingweb-sub001/internal/hook"
	"github.com/actingweb/actingweb-sub001/internal/logging"
	"github.com/actingweb/actingweb-sub001/internal/metrics"
	"github.com/actingweb/actingweb-sub001/internal/permission"
	"github.com/actingweb/actingweb-sub001/internal/script"
	"github.com/actingweb/actingweb-sub001/internal/server"
	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// DefaultPort is used when the configuration names none.
const DefaultPort = 8080

// App holds the wired components.
type App struct {
	Config  *types.Config
	Mode    hook.Mode
	Timeout time.Duration

	Bus     *event.Bus
	Table   *hook.Table
	Gate    *permission.RuleGate
	Metrics *metrics.Recorder
	Engine  *hook.Engine
	Server  *server.Server

	// Loop is the scheduler of a cooperative app, nil otherwise.
	Loop *coop.Loop

	directory string
	builtins  bool
	watch     bool
	watcher   *config.Watcher
	stopLoop  func()
	log       zerolog.Logger
}

// Option configures New.
type Option func(*App)

// WithDirectory sets the project directory whose config files are
// watched by Start.
func WithDirectory(dir string) Option {
	return func(a *App) { a.directory = dir }
}

// WithWatch enables reloading permission rules when config files change.
func WithWatch(enabled bool) Option {
	return func(a *App) { a.watch = enabled }
}

// WithoutBuiltins skips hook.RegisterBuiltins.
func WithoutBuiltins() Option {
	return func(a *App) { a.builtins = false }
}

// New builds an App from cfg. Config-declared hooks are registered before
// the built-in ones so they take precedence, and the table is frozen
// afterwards. Nothing runs until Start.
func New(cfg *types.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = &types.Config{}
	}
	a := &App{
		Config:   cfg,
		builtins: true,
		log:      logging.Component("app"),
	}
	for _, opt := range opts {
		opt(a)
	}

	var err error
	if cfg.Dispatch != nil {
		if a.Mode, err = hook.ParseMode(cfg.Dispatch.Mode); err != nil {
			return nil, err
		}
	}
	if a.Timeout, err = cfg.Dispatch.TimeoutDuration(); err != nil {
		return nil, err
	}
	policy, err := permission.PolicyFromConfig(cfg.Permission)
	if err != nil {
		return nil, fmt.Errorf("permission: %w", err)
	}

	a.Bus = event.NewBus()
	a.Table = hook.NewTable(hook.WithTableBus(a.Bus))
	if _, err := script.RegisterAll(a.Table, cfg.Hooks); err != nil {
		a.Bus.Close()
		return nil, fmt.Errorf("hooks: %w", err)
	}
	if a.builtins {
		hook.RegisterBuiltins(a.Table, logging.Component("lifecycle"))
	}
	a.Table.Freeze()

	a.Gate = permission.NewRuleGate(policy)
	a.Metrics = metrics.NewRecorder()
	a.Engine = hook.NewEngine(a.Table,
		hook.WithGate(a.Gate),
		hook.WithSink(hook.MultiSink{
			hook.LogSink{Logger: logging.Component("hook")},
			hook.BusSink{Bus: a.Bus},
			a.Metrics,
		}),
		hook.WithObserver(a.Metrics),
		hook.WithBus(a.Bus),
		hook.WithDefaultTimeout(a.Timeout),
	)

	serverOpts := []server.Option{server.WithBus(a.Bus), server.WithMetrics(a.Metrics)}
	if a.Mode == hook.ModeCooperative {
		a.Loop = coop.New()
		serverOpts = append(serverOpts, server.WithScheduler(a.Loop))
	}
	a.Server = server.New(ServerConfig(cfg), a.Engine, serverOpts...)

	a.log.Debug().
		Int("hooks", a.Table.Len()).
		Str("mode", a.Mode.String()).
		Dur("timeout", a.Timeout).
		Int("rules", len(policy.Rules)).
		Msg("app built")
	return a, nil
}

// ServerConfig derives the HTTP settings from cfg.
func ServerConfig(cfg *types.Config) *server.Config {
	sc := server.DefaultConfig()
	sc.Port = DefaultPort
	if cfg == nil || cfg.Server == nil {
		return sc
	}
	if cfg.Server.Port != 0 {
		sc.Port = cfg.Server.Port
	}
	sc.Hostname = cfg.Server.Hostname
	if cfg.Server.CORS != nil {
		sc.EnableCORS = *cfg.Server.CORS
	}
	return sc
}

// LogConfig applies the log section of cfg to base.
func LogConfig(base logging.Config, cfg *types.Config) logging.Config {
	if cfg == nil || cfg.Log == nil {
		return base
	}
	if cfg.Log.Level != "" {
		base.Level = logging.ParseLevel(cfg.Log.Level)
	}
	if cfg.Log.Pretty {
		base.Pretty = true
	}
	return base
}

// Start runs the scheduler of a cooperative app and, if enabled, the
// config watcher. It does not start the HTTP server.
func (a *App) Start(ctx context.Context) error {
	if a.Loop != nil && a.stopLoop == nil {
		a.stopLoop = a.Loop.Go(ctx)
	}
	if a.watch && a.watcher == nil {
		w, err := config.NewWatcher(a.directory, a.Reload, config.WithWatcherBus(a.Bus))
		if err != nil {
			return fmt.Errorf("config watcher: %w", err)
		}
		w.Start()
		a.watcher = w
	}
	return nil
}

// Reload installs the permission policy of a freshly loaded config.
// Hooks are not reloaded; the table is frozen once built.
func (a *App) Reload(cfg *types.Config, err error) {
	if err != nil {
		a.log.Warn().Err(err).Msg("keeping previous permission policy")
		return
	}
	policy, err := permission.PolicyFromConfig(cfg.Permission)
	if err != nil {
		a.log.Warn().Err(err).Msg("keeping previous permission policy")
		return
	}
	a.Gate.SetPolicy(policy)
	a.log.Info().Int("rules", len(policy.Rules)).Str("default", string(policy.Default)).Msg("permission policy reloaded")
}

// ExecutionContext returns the execution context matching the app's mode.
func (a *App) ExecutionContext(ctx context.Context) hook.ExecutionContext {
	if a.Loop != nil {
		return hook.NewCooperativeContext(ctx, a.Loop)
	}
	return hook.NewBlockingContext(ctx)
}

// Dispatch runs one dispatch in the app's mode. It must not be called
// from the loop goroutine.
func (a *App) Dispatch(ctx context.Context, req hook.Request) hook.Result {
	return a.Engine.Dispatch(a.ExecutionContext(ctx), req)
}

// Close shuts the HTTP server down and stops the watcher, the loop and the
// bus.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
		a.watcher = nil
	}
	if a.stopLoop != nil {
		a.stopLoop()
		a.stopLoop = nil
	}
	if err := a.Bus.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
